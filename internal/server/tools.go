package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func noArgs() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func pointProps(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"x": map[string]interface{}{
			"type":        "integer",
			"description": "X coordinate in image pixels (0-based)",
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": "Y coordinate in image pixels (0-based)",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session
		{
			Name:        "annotation_open",
			Description: "Open an image for annotation. Saved layer files, the scene mask and the box record next to the image are loaded; the undo history starts empty.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "annotation_save",
			Description: "Save layer masks and records, the scene box record (<base>_bbox.xml) and the identity, color and smart masks.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotation_state",
			Description: "Report the open image, interaction mode, current label, history position, dirty flag and the label palette.",
			InputSchema: noArgs(),
		},

		// Labels
		{
			Name:        "annotation_set_label",
			Description: "Select the label used for painting, filling and new boxes. Give either id or name; id 0 clears the label.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "integer",
						"description": "Label id (0-255)",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Label name from the palette",
					},
				},
			},
		},
		{
			Name:        "annotation_label_at",
			Description: "Return the label under a pixel of the scene mask. With pick, a non-background label becomes the current label.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pointProps(map[string]interface{}{
					"pick": map[string]interface{}{
						"type":        "boolean",
						"description": "Make the label under the pixel current",
						"default":     false,
					},
				}),
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "annotation_relabel",
			Description: "Replace the connected labeled region under a pixel with the current label, in the scene and in the layer holding it.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pointProps(nil),
				"required":   []string{"x", "y"},
			},
		},

		// Interaction
		{
			Name:        "annotation_pointer",
			Description: "Send one pointer event to the interaction state machine. Plain down/move/up paints a freehand stroke; down with fill flood-fills; down with box selects the box under the point (cycling through overlaps) or starts a new box. Down on a selected box's corner resizes it, inside it moves it, outside it releases it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": pointProps(map[string]interface{}{
					"action": map[string]interface{}{
						"type":        "string",
						"description": "Pointer action",
						"enum":        []string{"down", "move", "up"},
					},
					"fill": map[string]interface{}{
						"type":        "boolean",
						"description": "Fill modifier held",
						"default":     false,
					},
					"box": map[string]interface{}{
						"type":        "boolean",
						"description": "Box modifier held",
						"default":     false,
					},
				}),
				"required": []string{"action", "x", "y"},
			},
		},
		{
			Name:        "annotation_delete",
			Description: "Delete the selected box. A layered box takes its layer mask with it and the scene is rebuilt. Does nothing without a selection.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotation_undo",
			Description: "Undo the last committed operation. Returns undone=false at the start of the history.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotation_redo",
			Description: "Redo the next operation. Returns redone=false at the end of the history.",
			InputSchema: noArgs(),
		},

		// Layers
		{
			Name:        "annotation_promote_layer",
			Description: "Turn the draft strokes into a new instance layer with a derived bounding box. With a layered box selected, re-derive that box from its layer instead.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotation_regenerate",
			Description: "Re-derive every layered box from its layer and rebuild the scene mask from the layers in box order.",
			InputSchema: noArgs(),
		},

		// Inspection
		{
			Name:        "annotation_boxes",
			Description: "List all bounding boxes in order with inclusive pixel coordinates.",
			InputSchema: noArgs(),
		},
		{
			Name:        "annotation_preview",
			Description: "Render the scene mask over the image as a base64 PNG, optionally cropped to one box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"alpha": map[string]interface{}{
						"type":        "number",
						"description": "Mask opacity in (0,1]; negative hides the mask",
						"default":     0.5,
					},
					"outline": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw box outlines",
						"default":     true,
					},
					"box_id": map[string]interface{}{
						"type":        "string",
						"description": "Crop to this box",
					},
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the box when cropping",
						"default":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
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
