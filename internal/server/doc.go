// Package server implements the MCP (Model Context Protocol) server for mask
// and bounding box annotation.
//
// The server holds one annotation session and exposes it as tools, so an MCP
// client can open an image, paint labels, draw and edit boxes, and save the
// results the same way a person at a labeling tool would.
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
// Session:
//   - annotation_open: Load an image with its saved layers and boxes
//   - annotation_save: Write layers, box records and masks
//   - annotation_state: Mode, label, history and palette
//
// Labels:
//   - annotation_set_label: Choose the painting label
//   - annotation_label_at: Read (or pick) the label under a pixel
//   - annotation_relabel: Replace a connected region's label
//
// Interaction:
//   - annotation_pointer: Pointer down/move/up with fill and box modifiers
//   - annotation_delete: Delete the selected box
//   - annotation_undo, annotation_redo: Walk the operation history
//
// Layers:
//   - annotation_promote_layer: Turn the draft into an instance layer
//   - annotation_regenerate: Re-derive layered boxes and rebuild the scene
//
// Inspection:
//   - annotation_boxes: List boxes
//   - annotation_preview: Render the mask over the image as PNG
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	sess, err := session.New(cfg)
//	if err != nil {
//	    return err
//	}
//	if err := server.New(sess).Run(); err != nil {
//	    return err
//	}
package server
