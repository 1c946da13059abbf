// Package corners detects corner-like features with an oriented dual-prong
// ("donut") edge kernel.
//
// # Scoring
//
// For each of beam_count directions the kernel pairs a positive prong on one
// side of a ray with a negative prong on the other, so a beam responds to an
// intensity edge running along the ray away from the scored pixel. A pixel's
// per-beam response is |mean(weights * window)| over the beam's support.
// Amorphous scoring averages all beams; sectional scoring keeps the max_n
// strongest beams found by non-max suppression and averages those, which
// favours pixels where two or more differently oriented edges meet.
//
// Scores are computed lazily by a ScoreField and cached for the life of a
// Session. Pixels outside the image score exactly 0.
//
// # Searches
//
// Two strategies turn scores into a ranked corner list:
//
//   - FindCornersBasin repeatedly runs a local optimizer from random unclaimed
//     pixels. Each run paints the pixels it evaluates into a basin grid, and
//     the search ends once the interior is covered or a budget is hit.
//   - FindCornersRays seeds a grid, follows each seed along its strongest
//     edge directions at decreasing distances, confirms peaks by an
//     8-neighbour probe and sweeps further along the edges for additional
//     corners. A (mode, position) visited set bounds the work.
//
// Both return at most top_n corners, strongest first.
//
// # Concurrency
//
// A Detector is immutable and safe to share. A Session has a single logical
// writer and must not be used concurrently; only ScoreAll fans out, over
// disjoint rows.
package corners
