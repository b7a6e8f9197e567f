package session

import (
	"fmt"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/preview"
)

// PreviewOptions selects what Preview renders.
type PreviewOptions struct {
	Alpha   float64
	Outline bool
	// BoxID crops the preview to one box grown by Margin pixels.
	BoxID  string
	Margin int
	Scale  float64
}

// Preview renders the scene over the source image. A box being dragged out
// is outlined along with the existing boxes.
func (s *Session) Preview(opts PreviewOptions) (*preview.Result, error) {
	if s.state == nil {
		return nil, ErrNoImage
	}
	st := s.state

	boxes := st.Boxes
	if r, ok := s.machine.Preview(); ok && opts.Outline {
		id, name := s.machine.Label()
		boxes = append(append([]annotation.BoundingBox(nil), st.Boxes...), annotation.BoundingBox{
			Label: name,
			Class: id,
			Min:   r.Min,
			Max:   r.Max,
		})
	}

	popts := preview.Options{Alpha: opts.Alpha, Outline: opts.Outline, Scale: opts.Scale}
	if opts.BoxID != "" {
		i := st.FindBox(opts.BoxID)
		if i < 0 {
			return nil, fmt.Errorf("box %q: %w", opts.BoxID, annotation.ErrBoxNotFound)
		}
		popts.Region = st.Boxes[i].Rect().Inset(-opts.Margin)
	}
	return preview.Render(s.image, st.Scene, boxes, s.palette, popts)
}
