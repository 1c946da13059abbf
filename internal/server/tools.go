package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func strategyProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        []string{"rays", "basin"},
		"description": "Maxima search: rays (ray following from a seed grid, fast) or basin (random-start simplex runs until the image is covered, thorough). Default rays",
		"default":     "rays",
	}
}

// optionsProperty describes the detector overrides accepted by every corners_*
// tool. Keys match the YAML configuration file; unknown keys are rejected.
func optionsProperty() map[string]interface{} {
	integer := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "integer", "description": desc}
	}
	number := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "number", "description": desc}
	}

	return map[string]interface{}{
		"type":                 "object",
		"description":          "Detector option overrides applied on top of the server defaults (see corners_default_config)",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			"angle_count": integer("Number of edge directions, a multiple of 4"),
			"beam_count":  integer("Number of kernel beams, 0 = angle_count"),
			"beam_width":  integer("Prong width in pixels"),
			"fork_spread": number("Distance between the two prongs"),
			"beam_length": integer("Beam length in pixels; also the image padding"),
			"beam_start":  integer("Distance from the center where beams begin"),
			"eval_method": map[string]interface{}{
				"type":        "object",
				"description": "Score representation",
				"properties": map[string]interface{}{
					"sectional":         map[string]interface{}{"type": "boolean", "description": "Report the max_n strongest directions instead of the all-beam mean"},
					"elimination_width": integer("Beams suppressed on each side of an extracted direction"),
					"max_n":             integer("Directions reported per pixel"),
					"elim_double_ends":  map[string]interface{}{"type": "boolean", "description": "Also suppress the opposite direction"},
				},
			},
			"grid_size":        integer("Ray search seed spacing"),
			"min_grid":         number("Score a seed must exceed to be followed"),
			"min_corner_score": number("Score a basin search maximum must exceed"),
			"search": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"edge_offset":  integer("Border excluded from basin coverage"),
					"stop_percent": number("Stop the basin search at this claimed fraction, 0 = off"),
					"max_rounds":   integer("Cap on basin search runs, 0 = off"),
					"top_n":        integer("Corners returned"),
					"seed":         integer("Random seed of the basin search"),
				},
			},
			"simplex": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"max_iters":            integer("Iteration limit per run"),
					"max_step":             integer("Largest per-axis move from the incumbent"),
					"initial_simplex_size": number("Initial simplex edge in pixels"),
				},
			},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image stays cached for subsequent corner tools.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Corner Detection
		{
			Name:        "corners_detect",
			Description: "Detect corners with the donut beam kernel and return the strongest ones, ranked, with their edge directions in sectional mode.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"strategy": strategyProperty(),
					"options":  optionsProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "corners_score_point",
			Description: "Score a single pixel: aggregate corner strength and, in sectional mode, its strongest edge directions. Pixels outside the image score 0.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
					"options": optionsProperty(),
				},
				"required": []string{"path", "x", "y"},
			},
		},
		{
			Name:        "corners_score_map",
			Description: "Score every pixel and return the field as a base64 PNG normalized to its maximum, with the location of the maximum.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"heat": map[string]interface{}{
						"type":        "boolean",
						"description": "Colour the map from dark blue to yellow instead of grayscale. Default true",
						"default":     true,
					},
					"options": optionsProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "corners_overlay",
			Description: "Detect corners and return the image with each corner marked, labelled by rank and with ticks along its edge directions, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"strategy": strategyProperty(),
					"options":  optionsProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "corners_features",
			Description: "Build a fixed-width corner feature vector per image (strength, x, y and, in sectional mode, directions and direction strengths of the top_n corners). Missing corners are filled with the batch column mean.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the images, one feature row each",
					},
					"include_pixels": map[string]interface{}{
						"type":        "boolean",
						"description": "Prefix each row with the image's gray intensities in row-major order (all images must share one size)",
					},
					"options": optionsProperty(),
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "corners_default_config",
			Description: "Return the detector configuration the server applies options on top of.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
