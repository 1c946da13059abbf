// Package imaging provides the image plumbing around corner detection.
//
// It loads and caches images, turns them into padded grayscale intensity
// buffers for the scoring kernels, and renders detection results (corner
// overlays and score heatmaps) as PNG.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Angles are in radians,
// 0 pointing along +X and π/2 along +Y.
//
// # Preprocessing
//
// NewPaddedGray reduces each pixel to the mean of its R, G and B channels on a
// 0-255 scale, then replicates the outermost pixels outward by the requested
// padding. A scoring window of radius up to the padding can therefore be read
// for any in-bounds pixel without bounds checks.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. GrayBuffer is immutable after
// construction and may be read from many goroutines.
package imaging
