package interaction

import (
	"image"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/history"
	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

// Mode is the machine's current state.
type Mode int

const (
	Idle Mode = iota
	BoxSelected
	BoxMoving
	BoxResizing
	BoxCreating
	BoxUnselecting
)

var modeNames = [...]string{"idle", "box_selected", "box_moving", "box_resizing", "box_creating", "box_unselecting"}

func (m Mode) String() string {
	if m < Idle || m > BoxUnselecting {
		return "unknown"
	}
	return modeNames[m]
}

// EventKind is the kind of input event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	DeleteKey
)

// Modifiers is a set of held modifier flags.
type Modifiers uint8

const (
	// FillModifier turns a press into a flood fill.
	FillModifier Modifiers = 1 << iota
	// BoxModifier turns a press into box selection or creation.
	BoxModifier
)

// Has reports whether every flag in f is held.
func (m Modifiers) Has(f Modifiers) bool { return m&f == f }

// Event is one input to the machine. Point is in image coordinates.
type Event struct {
	Kind      EventKind
	Point     image.Point
	Modifiers Modifiers
}

// Config holds the interaction thresholds.
type Config struct {
	HitRadius  float64
	MinBoxSize int
	PenSize    int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		HitRadius:  annotation.DefaultHitRadius,
		MinBoxSize: annotation.DefaultMinBoxSize,
		PenSize:    5,
	}
}

// stroke holds the rasters as they were when a freehand stroke began.
type stroke struct {
	scene  *mask.Mask
	target *mask.Mask
	layer  annotation.LayerID
}

// Machine is the interaction state machine.
type Machine struct {
	cfg Config
	ids annotation.IDGenerator

	mode      Mode
	label     uint8
	labelName string

	anchor  image.Point
	current image.Point
	cycle   int

	selectedID string
	selectedAt annotation.BoundingBox

	stroke *stroke
}

// New creates an idle machine.
func New(cfg Config, ids annotation.IDGenerator) *Machine {
	return &Machine{cfg: cfg, ids: ids}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode { return m.mode }

// SetLabel sets the label used for painting and new boxes. Id 0 unsets it.
func (m *Machine) SetLabel(id uint8, name string) {
	m.label = id
	m.labelName = name
}

// Label returns the current label.
func (m *Machine) Label() (uint8, string) { return m.label, m.labelName }

// Preview returns the rectangle being dragged out while creating a box.
func (m *Machine) Preview() (image.Rectangle, bool) {
	if m.mode != BoxCreating {
		return image.Rectangle{}, false
	}
	return image.Rectangle{Min: m.anchor, Max: m.current}.Canon(), true
}

// Reset abandons any gesture in progress, clears the selection and returns
// to Idle. It is used after the state was replaced underneath the machine,
// so an unfinished stroke is dropped without touching st.
func (m *Machine) Reset(st *annotation.State) {
	m.mode = Idle
	m.stroke = nil
	m.selectedID = ""
	st.ClearSelection()
}

// Settle brings st to a point where every edit it holds is either recorded
// or gone, before st is changed from outside the machine. An unfinished
// stroke is rolled back. A drag ends as if released, and a selected box whose
// geometry changed reports the pending Change and stays selected.
func (m *Machine) Settle(st *annotation.State) []history.Operation {
	m.abortStroke(st)

	switch m.mode {
	case BoxMoving, BoxResizing:
		m.mode = BoxSelected
	case BoxCreating, BoxUnselecting:
		m.mode = Idle
	}
	if m.mode != BoxSelected {
		return nil
	}

	i, ok := m.selected(st)
	if !ok {
		return nil
	}
	ops := m.change(st, i)
	m.selectedAt = st.Boxes[i]
	return ops
}

// abortStroke restores the rasters a stroke in progress has painted.
func (m *Machine) abortStroke(st *annotation.State) {
	s := m.stroke
	if s == nil {
		return
	}
	m.stroke = nil

	if _, ok := st.TargetFor(s.layer); !ok {
		return
	}
	st.Scene = s.scene
	if s.layer == annotation.NoLayer {
		st.Draft = s.target
	} else {
		st.PutLayer(s.layer, s.target)
	}
	logging.L().Debug("stroke abandoned", zap.Uint32("layer", uint32(s.layer)))
}

// Handle applies ev to st and returns the operations it completed.
func (m *Machine) Handle(st *annotation.State, ev Event) []history.Operation {
	m.current = ev.Point

	switch m.mode {
	case Idle:
		return m.handleIdle(st, ev)
	case BoxSelected:
		return m.handleSelected(st, ev)
	case BoxMoving, BoxResizing:
		return m.handleDragging(st, ev)
	case BoxCreating:
		return m.handleCreating(st, ev)
	case BoxUnselecting:
		switch ev.Kind {
		case PointerUp:
			m.mode = Idle
		case PointerDown:
			m.mode = Idle
			return m.handleIdle(st, ev)
		}
	}
	return nil
}

func (m *Machine) handleIdle(st *annotation.State, ev Event) []history.Operation {
	switch ev.Kind {
	case PointerDown:
		if m.label == mask.Background {
			return nil
		}
		switch {
		case ev.Modifiers.Has(FillModifier):
			return m.fill(st, ev.Point)
		case ev.Modifiers.Has(BoxModifier):
			m.pickOrCreate(st, ev.Point)
		default:
			m.beginStroke(st)
			m.paint(st, ev.Point)
		}
	case PointerMove:
		if m.stroke != nil {
			m.paint(st, ev.Point)
		}
	case PointerUp:
		return m.endStroke(st)
	}
	return nil
}

// pickOrCreate selects the next box under p, cycling through overlapping
// boxes on repeated clicks, or starts a new box when none is hit.
func (m *Machine) pickOrCreate(st *annotation.State, p image.Point) {
	var hits []int
	for i := range st.Boxes {
		if st.Boxes[i].ContainsPoint(p) {
			hits = append(hits, i)
		}
	}

	if len(hits) > 0 {
		m.selectBox(st, hits[m.cycle%len(hits)])
		m.cycle++
		m.mode = BoxSelected
		return
	}

	m.cycle = 0
	st.ClearSelection()
	m.selectedID = ""
	m.anchor = p
	m.mode = BoxCreating
}

func (m *Machine) selectBox(st *annotation.State, i int) {
	st.ClearSelection()
	st.Boxes[i].Select()
	m.selectedID = st.Boxes[i].ID
	m.selectedAt = st.Boxes[i]
}

// selected returns the index of the machine's selected box. A selection that
// vanished from the state drops the machine back to Idle.
func (m *Machine) selected(st *annotation.State) (int, bool) {
	i := st.FindBox(m.selectedID)
	if i < 0 {
		m.Reset(st)
		return -1, false
	}
	return i, true
}

func (m *Machine) handleSelected(st *annotation.State, ev Event) []history.Operation {
	i, ok := m.selected(st)
	if !ok {
		return nil
	}

	switch ev.Kind {
	case PointerDown:
		if ev.Modifiers.Has(FillModifier) {
			if m.label == mask.Background {
				return nil
			}
			return m.fill(st, ev.Point)
		}

		box := &st.Boxes[i]
		if c := box.CornerHitTest(ev.Point, m.cfg.HitRadius); c != annotation.NoCorner {
			box.SelectedCorner = c
			m.anchor = ev.Point
			m.mode = BoxResizing
			return nil
		}
		if box.ContainsPoint(ev.Point) {
			m.anchor = ev.Point
			m.mode = BoxMoving
			return nil
		}

		ops := m.release(st, i)
		if ev.Modifiers.Has(BoxModifier) && m.label != mask.Background {
			m.cycle = 0
			m.anchor = ev.Point
			m.mode = BoxCreating
		} else {
			m.mode = BoxUnselecting
		}
		return ops

	case DeleteKey:
		return m.deleteSelected(st, i)
	}
	return nil
}

// deleteSelected records any pending change of box i, deletes it and
// returns to Idle.
func (m *Machine) deleteSelected(st *annotation.State, i int) []history.Operation {
	ops := m.change(st, i)
	ops = append(ops, m.deleteBox(st, i)...)
	m.Reset(st)
	return ops
}

// change returns a Change for box i when its geometry differs from the
// geometry it had when it was selected.
func (m *Machine) change(st *annotation.State, i int) []history.Operation {
	box := st.Boxes[i]
	if box.SameGeometry(m.selectedAt) {
		return nil
	}
	return []history.Operation{history.Change{Old: m.selectedAt, New: box, Index: i}}
}

// release unselects box i and reports any pending geometry change.
func (m *Machine) release(st *annotation.State, i int) []history.Operation {
	ops := m.change(st, i)
	st.Boxes[i].Unselect()
	m.selectedID = ""
	return ops
}

// deleteBox removes box i. A layered box takes its layer with it and the
// scene is rebuilt from the remaining layers.
func (m *Machine) deleteBox(st *annotation.State, i int) []history.Operation {
	box, index, err := st.RemoveBox(st.Boxes[i].ID)
	if err != nil {
		return nil
	}
	box.Unselect()

	op := history.CreateOrDelete{Box: box, Index: index}
	if box.Layer != annotation.NoLayer {
		before := st.Scene.Clone()
		op.Layer = st.RemoveLayer(box.Layer)
		if err := st.RebuildScene(); err != nil {
			logging.L().Warn("rebuild scene after delete", zap.Error(err))
		}
		if d, err := mask.NewDiff(before, st.Scene); err == nil {
			op.Scene = d
		}
	}
	return []history.Operation{op}
}

func (m *Machine) handleDragging(st *annotation.State, ev Event) []history.Operation {
	i, ok := m.selected(st)
	if !ok {
		return nil
	}

	switch ev.Kind {
	case PointerMove:
		dx, dy := ev.Point.X-m.anchor.X, ev.Point.Y-m.anchor.Y
		if m.mode == BoxMoving {
			st.Boxes[i].Move(dx, dy)
		} else {
			st.Boxes[i].Resize(dx, dy)
		}
		m.anchor = ev.Point
	case PointerUp:
		m.mode = BoxSelected
	case DeleteKey:
		return m.deleteSelected(st, i)
	}
	return nil
}

func (m *Machine) handleCreating(st *annotation.State, ev Event) []history.Operation {
	if ev.Kind != PointerUp {
		return nil
	}
	m.mode = Idle

	box := annotation.NewBoundingBox(m.anchor, ev.Point, m.labelName, m.ids)
	box.Class = m.label
	if box.Width() <= m.cfg.MinBoxSize || box.Height() <= m.cfg.MinBoxSize {
		logging.L().Debug("discarding small box",
			zap.Int("width", box.Width()), zap.Int("height", box.Height()))
		return nil
	}

	st.Boxes = append(st.Boxes, box)
	return []history.Operation{
		history.CreateOrDelete{Box: box, Index: len(st.Boxes) - 1, Created: true},
	}
}

func (m *Machine) beginStroke(st *annotation.State) {
	target, layer := st.Target()
	m.stroke = &stroke{scene: st.Scene.Clone(), target: target.Clone(), layer: layer}
}

func (m *Machine) paint(st *annotation.State, p image.Point) {
	target, ok := st.TargetFor(m.stroke.layer)
	if !ok {
		return
	}
	st.Scene.PaintCircle(p.X, p.Y, m.cfg.PenSize, m.label)
	target.PaintCircle(p.X, p.Y, m.cfg.PenSize, m.label)
}

func (m *Machine) endStroke(st *annotation.State) []history.Operation {
	if m.stroke == nil {
		return nil
	}
	s := m.stroke
	m.stroke = nil

	target, ok := st.TargetFor(s.layer)
	if !ok {
		return nil
	}
	return drawOp(s.scene, st.Scene, s.target, target, s.layer)
}

// fill flood-fills the scene region under p and stamps the changed pixels
// into the current target.
func (m *Machine) fill(st *annotation.State, p image.Point) []history.Operation {
	target, layer := st.Target()
	sceneBefore := st.Scene.Clone()
	targetBefore := target.Clone()

	if st.Scene.FloodFill(p.X, p.Y, m.label) == 0 {
		return nil
	}
	if err := target.Stamp(sceneBefore, st.Scene, m.label); err != nil {
		logging.L().Warn("stamp fill into target", zap.Error(err))
	}
	return drawOp(sceneBefore, st.Scene, targetBefore, target, layer)
}

func drawOp(sceneBefore, sceneAfter, targetBefore, targetAfter *mask.Mask, layer annotation.LayerID) []history.Operation {
	scene, err := mask.NewDiff(sceneBefore, sceneAfter)
	if err != nil {
		return nil
	}
	target, err := mask.NewDiff(targetBefore, targetAfter)
	if err != nil {
		return nil
	}
	if scene.IsZero() && target.IsZero() {
		return nil
	}
	return []history.Operation{history.Draw{Scene: scene, Target: target, Layer: layer}}
}
