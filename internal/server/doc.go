// Package server implements the MCP (Model Context Protocol) server for the
// donut corner detector.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Corner Detection:
//   - corners_detect: Ranked corners by ray or basin search
//   - corners_score_point: Score breakdown of one pixel
//   - corners_score_map: Whole-image score field as PNG
//   - corners_overlay: Detected corners drawn over the image
//   - corners_features: Fixed-width corner feature rows for a batch of images
//   - corners_default_config: The configuration options are applied to
//
// Every corners_* tool accepts an "options" object with the keys of the YAML
// configuration file. Options override the server defaults for that call only.
//
// # Image Caching
//
// Decoded images and their padded grayscale buffers are cached by path (and
// padding) for the lifetime of the process. Score caches are not shared:
// every tool call runs a fresh detection session.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.WithLogger(logger), server.WithDefaults(cfg))
//	if err := srv.Run(); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
