package server

import (
	"encoding/json"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/donut-corners-mcp/internal/corners"
	"github.com/ironsheep/donut-corners-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "corners_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Info("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each corners_* handler:
//  1. Unmarshals arguments from JSON
//  2. Applies the option overrides to a copy of the server defaults
//  3. Loads the padded grayscale buffer from cache
//  4. Runs a fresh detection session
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Corner Detection
	case "corners_detect":
		return s.handleCornersDetect(args)
	case "corners_score_point":
		return s.handleCornersScorePoint(args)
	case "corners_score_map":
		return s.handleCornersScoreMap(args)
	case "corners_overlay":
		return s.handleCornersOverlay(args)
	case "corners_features":
		return s.handleCornersFeatures(args)
	case "corners_default_config":
		return s.defaults, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// detector builds a detector from the server defaults and per-call overrides.
func (s *Server) detector(opts map[string]interface{}) (*corners.Detector, error) {
	cfg := s.defaults
	if err := cfg.ApplyOptions(opts); err != nil {
		return nil, err
	}
	return corners.NewDetector(cfg, corners.WithLogger(s.log))
}

// session starts a detection pass over the cached buffer for path.
func (s *Server) session(det *corners.Detector, path string) (*corners.Session, error) {
	gray, err := s.cache.LoadGray(path, det.Config().BeamLength)
	if err != nil {
		return nil, err
	}
	return det.NewSessionFromGray(gray)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Corner Detection Handlers ===

// CornerResult is one detected corner in tool output.
type CornerResult struct {
	Rank      int       `json:"rank"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Strength  float64   `json:"strength"`
	Angles    []float64 `json:"angles,omitempty"`
	Strengths []float64 `json:"strengths,omitempty"`
}

// DetectResult is the output of corners_detect.
type DetectResult struct {
	Width    int                 `json:"width"`
	Height   int                 `json:"height"`
	Strategy corners.Strategy    `json:"strategy"`
	Corners  []CornerResult      `json:"corners"`
	Stats    corners.SearchStats `json:"stats"`
}

type cornersDetectArgs struct {
	Path     string                 `json:"path"`
	Strategy string                 `json:"strategy"`
	Options  map[string]interface{} `json:"options"`
}

func (s *Server) handleCornersDetect(args json.RawMessage) (interface{}, error) {
	var a cornersDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res, _, err := s.detect(a)
	return res, err
}

// detect runs one search and returns the tool result and the detector it used.
func (s *Server) detect(a cornersDetectArgs) (*DetectResult, *corners.Detector, error) {
	strategy, err := corners.ParseStrategy(a.Strategy)
	if err != nil {
		return nil, nil, err
	}
	det, err := s.detector(a.Options)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.session(det, a.Path)
	if err != nil {
		return nil, nil, err
	}

	found, err := sess.FindCorners(strategy)
	if err != nil {
		return nil, nil, err
	}

	bounds := sess.Field().Bounds()
	res := &DetectResult{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Strategy: strategy,
		Corners:  make([]CornerResult, len(found)),
		Stats:    sess.Stats(),
	}
	for i, c := range found {
		res.Corners[i] = CornerResult{
			Rank:     i + 1,
			X:        c.Position.X,
			Y:        c.Position.Y,
			Strength: c.Strength,
		}
		if c.Detail != nil {
			res.Corners[i].Angles = c.Detail.Angles
			res.Corners[i].Strengths = c.Detail.Strengths
		}
	}

	s.log.Debug("corners detected",
		zap.String("path", a.Path),
		zap.String("strategy", string(strategy)),
		zap.Int("corners", len(found)),
		zap.Int64("evaluations", res.Stats.Evaluations))

	return res, det, nil
}

// ScorePointResult is the output of corners_score_point.
type ScorePointResult struct {
	X        int            `json:"x"`
	Y        int            `json:"y"`
	InBounds bool           `json:"in_bounds"`
	Score    *corners.Score `json:"score"`
}

type cornersScorePointArgs struct {
	Path    string                 `json:"path"`
	X       int                    `json:"x"`
	Y       int                    `json:"y"`
	Options map[string]interface{} `json:"options"`
}

func (s *Server) handleCornersScorePoint(args json.RawMessage) (interface{}, error) {
	var a cornersScorePointArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	det, err := s.detector(a.Options)
	if err != nil {
		return nil, err
	}
	sess, err := s.session(det, a.Path)
	if err != nil {
		return nil, err
	}

	p := image.Pt(a.X, a.Y)
	score, _ := sess.ScoreDetail(p)
	return &ScorePointResult{
		X:        a.X,
		Y:        a.Y,
		InBounds: sess.Field().InBounds(p),
		Score:    score,
	}, nil
}

// ScoreMapResult is the output of corners_score_map.
type ScoreMapResult struct {
	*imaging.RenderResult
	MaxScore float64 `json:"max_score"`
	MaxX     int     `json:"max_x"`
	MaxY     int     `json:"max_y"`
}

type cornersScoreMapArgs struct {
	Path    string                 `json:"path"`
	Heat    *bool                  `json:"heat"`
	Options map[string]interface{} `json:"options"`
}

func (s *Server) handleCornersScoreMap(args json.RawMessage) (interface{}, error) {
	var a cornersScoreMapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	heat := true
	if a.Heat != nil {
		heat = *a.Heat
	}

	det, err := s.detector(a.Options)
	if err != nil {
		return nil, err
	}
	sess, err := s.session(det, a.Path)
	if err != nil {
		return nil, err
	}

	scores := sess.ScoreAll()
	rendered, err := imaging.RenderScoreMap(scores, heat)
	if err != nil {
		return nil, err
	}

	res := &ScoreMapResult{RenderResult: rendered}
	for y, row := range scores {
		for x, v := range row {
			if v > res.MaxScore {
				res.MaxScore, res.MaxX, res.MaxY = v, x, y
			}
		}
	}
	return res, nil
}

// OverlayResult is the output of corners_overlay.
type OverlayResult struct {
	*imaging.RenderResult
	Corners []CornerResult `json:"corners"`
}

func (s *Server) handleCornersOverlay(args json.RawMessage) (interface{}, error) {
	var a cornersDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	detected, det, err := s.detect(a)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	offset := img.Bounds().Min
	markers := make([]imaging.Marker, len(detected.Corners))
	for i, c := range detected.Corners {
		markers[i] = imaging.Marker{X: c.X + offset.X, Y: c.Y + offset.Y, Angles: c.Angles}
	}

	rendered, err := imaging.RenderCorners(img, markers, det.Config().BeamLength)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{RenderResult: rendered, Corners: detected.Corners}, nil
}

// FeaturesResult is the output of corners_features.
type FeaturesResult struct {
	Paths    []string    `json:"paths"`
	Width    int         `json:"width"`
	Features [][]float64 `json:"features"`
}

type cornersFeaturesArgs struct {
	Paths         []string               `json:"paths"`
	IncludePixels bool                   `json:"include_pixels"`
	Options       map[string]interface{} `json:"options"`
}

func (s *Server) handleCornersFeatures(args json.RawMessage) (interface{}, error) {
	var a cornersFeaturesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must list at least one image")
	}
	det, err := s.detector(a.Options)
	if err != nil {
		return nil, err
	}

	images := make([]image.Image, len(a.Paths))
	for i, p := range a.Paths {
		img, err := s.cache.Load(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		images[i] = img
	}

	extract := det.ExtractFeatures
	if a.IncludePixels {
		extract = det.ExtractFeaturesWithPixels
	}
	rows, err := extract(images)
	if err != nil {
		return nil, err
	}
	return &FeaturesResult{Paths: a.Paths, Width: len(rows[0]), Features: rows}, nil
}
