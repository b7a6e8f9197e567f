package history

import (
	"errors"
	"fmt"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

// ErrStaleOperation is returned when an operation's target no longer exists
// in the state it is replayed against.
var ErrStaleOperation = errors.New("operation target no longer exists")

// Operation is one undoable edit. The concrete types are Draw,
// CreateOrDelete, Change and BulkReplace.
type Operation interface {
	Kind() string
	isOperation()
}

// Draw is a raster edit: a stroke, a fill or a relabel. Scene changes the
// flattened mask; Target changes the draft (Layer == NoLayer) or a layer.
type Draw struct {
	Scene  mask.Diff
	Target mask.Diff
	Layer  annotation.LayerID
}

// CreateOrDelete adds (Created) or removes one box. A layered box carries its
// layer mask so deletion can be reverted, and Scene records how the scene
// changed when the layer was removed.
type CreateOrDelete struct {
	Box     annotation.BoundingBox
	Index   int
	Created bool
	Layer   *mask.Mask
	Scene   mask.Diff
}

// Change replaces the geometry of one box.
type Change struct {
	Old   annotation.BoundingBox
	New   annotation.BoundingBox
	Index int
}

// BulkReplace swaps the whole box list and layer arena, as done by layer
// promotion and regeneration.
type BulkReplace struct {
	Before annotation.Snapshot
	After  annotation.Snapshot
	Scene  mask.Diff
	Draft  mask.Diff
}

func (Draw) Kind() string           { return "draw" }
func (CreateOrDelete) Kind() string { return "create_or_delete" }
func (Change) Kind() string         { return "change" }
func (BulkReplace) Kind() string    { return "bulk_replace" }

func (Draw) isOperation()           {}
func (CreateOrDelete) isOperation() {}
func (Change) isOperation()         {}
func (BulkReplace) isOperation()    {}

// Apply replays op against st.
func Apply(st *annotation.State, op Operation) error {
	switch op := op.(type) {
	case Draw:
		return applyDraw(st, op, false)
	case CreateOrDelete:
		if op.Created {
			return insertBox(st, op, false)
		}
		return removeBox(st, op, false)
	case Change:
		return replaceBox(st, op.Old, op.New)
	case BulkReplace:
		return swapAll(st, op.After, op.Scene, op.Draft, false)
	}
	return fmt.Errorf("unknown operation %T", op)
}

// Invert reverts op against st.
func Invert(st *annotation.State, op Operation) error {
	switch op := op.(type) {
	case Draw:
		return applyDraw(st, op, true)
	case CreateOrDelete:
		if op.Created {
			return removeBox(st, op, true)
		}
		return insertBox(st, op, true)
	case Change:
		return replaceBox(st, op.New, op.Old)
	case BulkReplace:
		return swapAll(st, op.Before, op.Scene, op.Draft, true)
	}
	return fmt.Errorf("unknown operation %T", op)
}

// addDiff applies d forward or backward.
func addDiff(d mask.Diff, m *mask.Mask, backward bool) error {
	if backward {
		return d.Remove(m)
	}
	return d.Apply(m)
}

func applyDraw(st *annotation.State, op Draw, backward bool) error {
	target, ok := st.TargetFor(op.Layer)
	if !ok {
		return fmt.Errorf("draw on layer %d: %w", op.Layer, ErrStaleOperation)
	}
	if err := addDiff(op.Scene, st.Scene, backward); err != nil {
		return fmt.Errorf("draw scene: %w", err)
	}
	if err := addDiff(op.Target, target, backward); err != nil {
		return fmt.Errorf("draw target: %w", err)
	}
	return nil
}

func insertBox(st *annotation.State, op CreateOrDelete, backward bool) error {
	if st.FindBox(op.Box.ID) >= 0 {
		return fmt.Errorf("insert %s: box already present: %w", op.Box.ID, ErrStaleOperation)
	}
	box := op.Box
	box.Unselect()
	st.InsertBox(op.Index, box)
	if op.Layer != nil && box.Layer != annotation.NoLayer {
		st.PutLayer(box.Layer, op.Layer.Clone())
	}
	return addDiff(op.Scene, st.Scene, backward)
}

func removeBox(st *annotation.State, op CreateOrDelete, backward bool) error {
	box, _, err := st.RemoveBox(op.Box.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStaleOperation, err)
	}
	if box.Layer != annotation.NoLayer {
		st.RemoveLayer(box.Layer)
	}
	return addDiff(op.Scene, st.Scene, backward)
}

func replaceBox(st *annotation.State, from, to annotation.BoundingBox) error {
	i := st.FindBox(from.ID)
	if i < 0 {
		return fmt.Errorf("change %s: %w", from.ID, ErrStaleOperation)
	}
	box := to
	box.Selected = st.Boxes[i].Selected
	box.SelectedCorner = st.Boxes[i].SelectedCorner
	st.Boxes[i] = box
	return nil
}

func swapAll(st *annotation.State, snap annotation.Snapshot, scene, draft mask.Diff, backward bool) error {
	st.Restore(snap)
	if err := addDiff(scene, st.Scene, backward); err != nil {
		return fmt.Errorf("bulk scene: %w", err)
	}
	if err := addDiff(draft, st.Draft, backward); err != nil {
		return fmt.Errorf("bulk draft: %w", err)
	}
	return nil
}
