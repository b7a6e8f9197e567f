package history

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

// Manager is a linear undo/redo history. Committing after an undo discards
// the redo tail.
type Manager struct {
	history  []Operation
	cursor   int
	baseline *annotation.State
}

// NewManager creates an empty history whose baseline is st.
func NewManager(st *annotation.State) *Manager {
	m := &Manager{}
	m.Sync(st)
	return m
}

// Sync captures st as the baseline for the next recorded diff.
func (m *Manager) Sync(st *annotation.State) {
	m.baseline = st.Clone()
}

// Len returns the number of operations held.
func (m *Manager) Len() int { return len(m.history) }

// Cursor returns the number of operations currently applied.
func (m *Manager) Cursor() int { return m.cursor }

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool { return m.cursor > 0 }

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool { return m.cursor < len(m.history) }

// Reset drops every operation and re-baselines on st.
func (m *Manager) Reset(st *annotation.State) {
	m.history = nil
	m.cursor = 0
	m.Sync(st)
}

// Commit appends op, which must already be reflected in st.
func (m *Manager) Commit(st *annotation.State, op Operation) {
	m.history = append(m.history[:m.cursor], op)
	m.cursor++
	m.Sync(st)
	logging.L().Debug("operation committed",
		zap.String("kind", op.Kind()),
		zap.Int("cursor", m.cursor))
}

// RecordDraw commits the raster change of the scene and of the given target
// since the baseline. It returns false when nothing changed.
func (m *Manager) RecordDraw(st *annotation.State, layer annotation.LayerID) (bool, error) {
	scene, err := mask.NewDiff(m.baseline.Scene, st.Scene)
	if err != nil {
		return false, fmt.Errorf("scene diff: %w", err)
	}

	var target mask.Diff
	cur, ok := st.TargetFor(layer)
	if !ok {
		return false, fmt.Errorf("draw on layer %d: %w", layer, ErrStaleOperation)
	}
	if base, ok := m.baseline.TargetFor(layer); ok {
		target, err = mask.NewDiff(base, cur)
	} else {
		target, err = mask.NewDiff(mask.New(cur.Width(), cur.Height()), cur)
	}
	if err != nil {
		return false, fmt.Errorf("target diff: %w", err)
	}

	if scene.IsZero() && target.IsZero() {
		return false, nil
	}
	m.Commit(st, Draw{Scene: scene, Target: target, Layer: layer})
	return true, nil
}

// RecordBulkReplace commits the difference between the baseline and st as a
// whole-list replacement.
func (m *Manager) RecordBulkReplace(st *annotation.State) error {
	scene, err := mask.NewDiff(m.baseline.Scene, st.Scene)
	if err != nil {
		return fmt.Errorf("scene diff: %w", err)
	}
	draft, err := mask.NewDiff(m.baseline.Draft, st.Draft)
	if err != nil {
		return fmt.Errorf("draft diff: %w", err)
	}
	m.Commit(st, BulkReplace{
		Before: m.baseline.Snapshot(),
		After:  st.Snapshot(),
		Scene:  scene,
		Draft:  draft,
	})
	return nil
}

// Undo reverts the operation before the cursor. It returns false at the
// start of the history.
func (m *Manager) Undo(st *annotation.State) (bool, error) {
	if m.cursor == 0 {
		logging.L().Debug("undo at start of history")
		return false, nil
	}
	op := m.history[m.cursor-1]
	if err := Invert(st, op); err != nil {
		logging.L().Warn("undo failed", zap.String("kind", op.Kind()), zap.Error(err))
		return false, err
	}
	m.cursor--
	m.Sync(st)
	return true, nil
}

// Redo replays the operation at the cursor. It returns false at the end of
// the history.
func (m *Manager) Redo(st *annotation.State) (bool, error) {
	if m.cursor == len(m.history) {
		logging.L().Debug("redo at end of history")
		return false, nil
	}
	op := m.history[m.cursor]
	if err := Apply(st, op); err != nil {
		logging.L().Warn("redo failed", zap.String("kind", op.Kind()), zap.Error(err))
		return false, err
	}
	m.cursor++
	m.Sync(st)
	return true, nil
}
