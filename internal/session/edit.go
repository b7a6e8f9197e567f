package session

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/history"
	"github.com/ironsheep/mask-annotator-mcp/internal/interaction"
	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

// ErrUnknownLabel is returned when a label name is not in the palette.
var ErrUnknownLabel = errors.New("unknown label")

// EditResult reports what one edit did.
type EditResult struct {
	Mode      string   `json:"mode"`
	Committed []string `json:"committed"`
	Selected  string   `json:"selected,omitempty"`
}

func (s *Session) result(ops []history.Operation) EditResult {
	res := EditResult{Mode: s.machine.Mode().String(), Committed: []string{}}
	for _, op := range ops {
		res.Committed = append(res.Committed, op.Kind())
	}
	if i := s.state.SelectedBox(); i >= 0 {
		res.Selected = s.state.Boxes[i].ID
	}
	return res
}

// settle ends the machine's gesture in progress before the state is changed
// from outside it, committing whatever the gesture left pending.
func (s *Session) settle() {
	s.commit(s.machine.Settle(s.state))
}

func (s *Session) commit(ops []history.Operation) {
	for _, op := range ops {
		s.history.Commit(s.state, op)
	}
	if len(ops) > 0 {
		s.dirty = true
	}
}

// SetLabel makes id the current label for painting and new boxes. Id 0
// clears it, which disables painting and box creation.
func (s *Session) SetLabel(id uint8) mask.Label {
	l, ok := s.palette.Label(id)
	if !ok {
		l = mask.Label{ID: id, Color: s.palette.Color(id)}
		if id != mask.Background {
			l.Name = strconv.Itoa(int(id))
		}
	}
	s.machine.SetLabel(id, l.Name)
	return l
}

// SetLabelByName makes the named palette label current.
func (s *Session) SetLabelByName(name string) (mask.Label, error) {
	l, ok := s.palette.Lookup(name)
	if !ok {
		return mask.Label{}, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
	}
	s.machine.SetLabel(l.ID, l.Name)
	return l, nil
}

// Pointer feeds one pointer event to the machine and commits whatever
// operations it completes.
func (s *Session) Pointer(ev interaction.Event) (EditResult, error) {
	if s.state == nil {
		return EditResult{}, ErrNoImage
	}
	ops := s.machine.Handle(s.state, ev)
	s.commit(ops)
	return s.result(ops), nil
}

// Delete deletes the selected box. Without a selection it does nothing.
func (s *Session) Delete() (EditResult, error) {
	return s.Pointer(interaction.Event{Kind: interaction.DeleteKey})
}

// Undo reverts the last committed operation. It returns false at the start
// of the history.
func (s *Session) Undo() (bool, error) {
	if s.state == nil {
		return false, ErrNoImage
	}
	s.settle()
	s.machine.Reset(s.state)
	ok, err := s.history.Undo(s.state)
	if ok {
		s.dirty = true
	}
	return ok, err
}

// Redo replays the next operation. It returns false at the end of the
// history.
func (s *Session) Redo() (bool, error) {
	if s.state == nil {
		return false, ErrNoImage
	}
	s.settle()
	s.machine.Reset(s.state)
	ok, err := s.history.Redo(s.state)
	if ok {
		s.dirty = true
	}
	return ok, err
}

// PromoteLayer turns the draft into a new layered box. With a layered box
// selected it re-derives that box from its layer instead.
func (s *Session) PromoteLayer() (annotation.BoundingBox, error) {
	if s.state == nil {
		return annotation.BoundingBox{}, ErrNoImage
	}
	s.settle()
	box, err := s.state.PromoteDraft(s.palette, s.ids)
	if err != nil {
		return annotation.BoundingBox{}, err
	}
	if err := s.bulk(); err != nil {
		return annotation.BoundingBox{}, err
	}
	return box, nil
}

// Regenerate re-derives every layered box and rebuilds the scene from the
// layers.
func (s *Session) Regenerate() error {
	if s.state == nil {
		return ErrNoImage
	}
	s.settle()
	if err := s.state.Regenerate(s.palette); err != nil {
		return err
	}
	return s.bulk()
}

// bulk records a whole-state replacement and drops any selection the
// machine was tracking, since the boxes it saw were replaced.
func (s *Session) bulk() error {
	s.machine.Reset(s.state)
	if err := s.history.RecordBulkReplace(s.state); err != nil {
		return err
	}
	s.dirty = true
	return nil
}

// Boxes returns a copy of the box list.
func (s *Session) Boxes() ([]annotation.BoundingBox, error) {
	if s.state == nil {
		return nil, ErrNoImage
	}
	return append([]annotation.BoundingBox(nil), s.state.Boxes...), nil
}

// LabelAt returns the scene label under p. With pick set, a non-background
// label also becomes the current label.
func (s *Session) LabelAt(p image.Point, pick bool) (mask.Label, error) {
	if s.state == nil {
		return mask.Label{}, ErrNoImage
	}
	if !p.In(s.state.Scene.Bounds()) {
		return mask.Label{}, fmt.Errorf("point %v outside image %v", p, s.state.Scene.Bounds())
	}
	id := s.state.LabelAt(p)
	if pick && id != mask.Background {
		return s.SetLabel(id), nil
	}
	l, ok := s.palette.Label(id)
	if !ok {
		l = mask.Label{ID: id, Color: s.palette.Color(id)}
	}
	return l, nil
}

// Relabel replaces the connected region under p with the current label. The
// region is relabeled in the scene and in every layer or draft that has a
// label at p. Background regions are left alone. It returns the number of
// scene pixels changed.
func (s *Session) Relabel(p image.Point) (int, error) {
	if s.state == nil {
		return 0, ErrNoImage
	}
	id, _ := s.machine.Label()
	if id == mask.Background {
		return 0, nil
	}
	s.settle()
	st := s.state

	n := st.Scene.ExchangeLabel(p.X, p.Y, id)
	if n == 0 {
		return 0, nil
	}
	st.Draft.ExchangeLabel(p.X, p.Y, id)
	layered := false
	for lid, layer := range st.Layers {
		if layer.ExchangeLabel(p.X, p.Y, id) > 0 {
			layered = true
			logging.L().Debug("relabeled layer", zap.Uint32("layer", uint32(lid)))
		}
	}

	if !layered {
		if _, err := s.history.RecordDraw(st, annotation.NoLayer); err != nil {
			return 0, err
		}
		s.dirty = true
		return n, nil
	}
	if err := st.Regenerate(s.palette); err != nil {
		return 0, err
	}
	return n, s.bulk()
}

// PreviewRect returns the rectangle being dragged out, if a box is being
// created.
func (s *Session) PreviewRect() (image.Rectangle, bool) {
	return s.machine.Preview()
}
