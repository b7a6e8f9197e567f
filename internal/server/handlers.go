package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/interaction"
	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
	"github.com/ironsheep/mask-annotator-mcp/internal/session"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "annotation_open", "annotation_pointer").
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
		logging.L().Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session
	case "annotation_open":
		return s.handleOpen(args)
	case "annotation_save":
		return s.session.Save()
	case "annotation_state":
		return s.handleState()

	// Labels
	case "annotation_set_label":
		return s.handleSetLabel(args)
	case "annotation_label_at":
		return s.handleLabelAt(args)
	case "annotation_relabel":
		return s.handleRelabel(args)

	// Interaction
	case "annotation_pointer":
		return s.handlePointer(args)
	case "annotation_delete":
		return s.session.Delete()
	case "annotation_undo":
		ok, err := s.session.Undo()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"undone": ok, "state": s.session.Status()}, nil
	case "annotation_redo":
		ok, err := s.session.Redo()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"redone": ok, "state": s.session.Status()}, nil

	// Layers
	case "annotation_promote_layer":
		box, err := s.session.PromoteLayer()
		if err != nil {
			return nil, err
		}
		return newBoxView(box), nil
	case "annotation_regenerate":
		if err := s.session.Regenerate(); err != nil {
			return nil, err
		}
		return s.handleBoxes()

	// Inspection
	case "annotation_boxes":
		return s.handleBoxes()
	case "annotation_preview":
		return s.handlePreview(args)

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

// decodeArgs unmarshals tool arguments. Missing arguments decode as the
// zero value.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// boxView is the wire form of a bounding box.
type boxView struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Class     uint8  `json:"class"`
	XMin      int    `json:"xmin"`
	YMin      int    `json:"ymin"`
	XMax      int    `json:"xmax"`
	YMax      int    `json:"ymax"`
	Layered   bool   `json:"layered"`
	MaskColor string `json:"mask_color,omitempty"`
	Instance  *int   `json:"instance,omitempty"`
	Selected  bool   `json:"selected"`
}

func newBoxView(b annotation.BoundingBox) boxView {
	v := boxView{
		ID:       b.ID,
		Label:    b.Label,
		Class:    b.Class,
		XMin:     b.Min.X,
		YMin:     b.Min.Y,
		XMax:     b.Max.X,
		YMax:     b.Max.Y,
		Layered:  b.Layer != annotation.NoLayer,
		Selected: b.Selected,
	}
	if v.Layered {
		v.MaskColor = mask.Label{Color: b.MaskColor}.Hex()
		_, instance := mask.InstanceOf(b.MaskColor)
		v.Instance = &instance
	}
	return v
}

// labelView is the wire form of a palette label.
type labelView struct {
	ID    uint8  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func newLabelView(l mask.Label) labelView {
	return labelView{ID: l.ID, Name: l.Name, Color: l.Hex()}
}

// === Session Handlers ===

type openArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleOpen(args json.RawMessage) (interface{}, error) {
	var a openArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return s.session.Open(a.Path)
}

func (s *Server) handleState() (interface{}, error) {
	labels := s.session.Palette().Labels()
	views := make([]labelView, 0, len(labels))
	for _, l := range labels {
		views = append(views, newLabelView(l))
	}
	return map[string]interface{}{
		"state":  s.session.Status(),
		"labels": views,
	}, nil
}

func (s *Server) handleBoxes() (interface{}, error) {
	boxes, err := s.session.Boxes()
	if err != nil {
		return nil, err
	}
	views := make([]boxView, 0, len(boxes))
	for _, b := range boxes {
		views = append(views, newBoxView(b))
	}
	return map[string]interface{}{"boxes": views}, nil
}

// === Label Handlers ===

type setLabelArgs struct {
	ID   *int   `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleSetLabel(args json.RawMessage) (interface{}, error) {
	var a setLabelArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	switch {
	case a.Name != "":
		l, err := s.session.SetLabelByName(a.Name)
		if err != nil {
			return nil, err
		}
		return newLabelView(l), nil
	case a.ID != nil:
		if *a.ID < 0 || *a.ID > 255 {
			return nil, fmt.Errorf("label id %d outside 0-255", *a.ID)
		}
		return newLabelView(s.session.SetLabel(uint8(*a.ID))), nil
	default:
		return nil, errors.New("id or name is required")
	}
}

type pointArgs struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Pick bool `json:"pick"`
}

func (s *Server) handleLabelAt(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	l, err := s.session.LabelAt(image.Pt(a.X, a.Y), a.Pick)
	if err != nil {
		return nil, err
	}
	return newLabelView(l), nil
}

func (s *Server) handleRelabel(args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	n, err := s.session.Relabel(image.Pt(a.X, a.Y))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"changed": n}, nil
}

// === Interaction Handlers ===

type pointerArgs struct {
	Action string `json:"action"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Fill   bool   `json:"fill"`
	Box    bool   `json:"box"`
}

func (s *Server) handlePointer(args json.RawMessage) (interface{}, error) {
	var a pointerArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	ev := interaction.Event{Point: image.Pt(a.X, a.Y)}
	switch a.Action {
	case "down":
		ev.Kind = interaction.PointerDown
	case "move":
		ev.Kind = interaction.PointerMove
	case "up":
		ev.Kind = interaction.PointerUp
	default:
		return nil, fmt.Errorf("unknown pointer action: %q", a.Action)
	}
	if a.Fill {
		ev.Modifiers |= interaction.FillModifier
	}
	if a.Box {
		ev.Modifiers |= interaction.BoxModifier
	}
	return s.session.Pointer(ev)
}

// === Inspection Handlers ===

type previewArgs struct {
	Alpha   float64 `json:"alpha"`
	Outline *bool   `json:"outline"`
	BoxID   string  `json:"box_id"`
	Margin  int     `json:"margin"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handlePreview(args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	outline := true
	if a.Outline != nil {
		outline = *a.Outline
	}
	return s.session.Preview(session.PreviewOptions{
		Alpha:   a.Alpha,
		Outline: outline,
		BoxID:   a.BoxID,
		Margin:  a.Margin,
		Scale:   a.Scale,
	})
}
