// Package session runs one annotation edit session.
//
// A Session owns the open image, its annotation State, the interaction
// Machine that turns pointer events into edits, and the history Manager that
// records them. Every completed gesture is committed to the history as soon
// as the machine reports it.
//
// A Session is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"image"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/config"
	"github.com/ironsheep/mask-annotator-mcp/internal/history"
	"github.com/ironsheep/mask-annotator-mcp/internal/interaction"
	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
	"github.com/ironsheep/mask-annotator-mcp/internal/store"
)

// ErrNoImage is returned by operations that need an open image.
var ErrNoImage = errors.New("no image open")

// Session is the single active edit session.
type Session struct {
	cfg     *config.Config
	palette *mask.Palette
	cache   *store.ImageCache
	ids     annotation.IDGenerator
	machine *interaction.Machine

	layout  store.Layout
	image   image.Image
	state   *annotation.State
	history *history.Manager
	dirty   bool
}

// New creates a session with no image open.
func New(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	pal, err := BuildPalette(cfg.Labels)
	if err != nil {
		return nil, err
	}
	ids := annotation.NewIDGenerator(cfg.Session.IDSeed)
	return &Session{
		cfg:     cfg,
		palette: pal,
		cache:   store.NewImageCache(),
		ids:     ids,
		machine: interaction.New(interaction.Config{
			HitRadius:  cfg.Session.HitRadius,
			MinBoxSize: cfg.Session.MinBoxSize,
			PenSize:    cfg.Session.PenSize,
		}, ids),
	}, nil
}

// Palette returns the label palette.
func (s *Session) Palette() *mask.Palette { return s.palette }

// Image returns the open source image.
func (s *Session) Image() (image.Image, error) {
	if s.state == nil {
		return nil, ErrNoImage
	}
	return s.image, nil
}

// Annotation returns the live state. Callers must not mutate it.
func (s *Session) Annotation() (*annotation.State, error) {
	if s.state == nil {
		return nil, ErrNoImage
	}
	return s.state, nil
}

// Dirty reports whether the annotation changed since it was opened or last
// saved.
func (s *Session) Dirty() bool { return s.dirty }

// Open loads the image at path together with any saved annotation. When
// layer files exist the scene is rebuilt from them; otherwise the saved
// scene mask and box records are used. Missing annotation files are not an
// error.
func (s *Session) Open(path string) (Status, error) {
	// One image is open at a time; reopening rereads the file.
	s.cache.Clear()
	img, err := s.cache.Load(path)
	if err != nil {
		return Status{}, err
	}
	b := img.Bounds()
	layout := store.NewLayout(path, s.cfg.Paths.MaskDir, s.cfg.Paths.XMLDir)

	st, err := s.loadState(layout, b.Dx(), b.Dy())
	if err != nil {
		return Status{}, err
	}

	s.layout = layout
	s.image = img
	s.state = st
	s.machine.Reset(st)
	s.history = history.NewManager(st)
	s.dirty = false

	logging.L().Info("image opened",
		zap.String("path", path),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.Int("boxes", len(st.Boxes)),
		zap.Int("layers", len(st.Layers)))
	return s.Status(), nil
}

func (s *Session) loadState(layout store.Layout, width, height int) (*annotation.State, error) {
	st := annotation.NewState(width, height)

	layers, err := store.LoadLayers(layout)
	if err != nil {
		return nil, err
	}
	doc, err := store.LoadAnnotation(layout.SceneXML())
	if err != nil {
		return nil, err
	}
	scene, err := s.loadSceneMask(layout, width, height)
	if err != nil {
		return nil, err
	}

	for i, l := range layers {
		if l.Mask.Width() != width || l.Mask.Height() != height {
			logging.L().Warn("skipping layer of wrong size",
				zap.Int("index", i), zap.Int("width", l.Mask.Width()), zap.Int("height", l.Mask.Height()))
			continue
		}
		box := annotation.FromRecord(l.Record, s.ids)
		box.Layer = st.AddLayer(l.Mask)
		st.Boxes = append(st.Boxes, box)
	}
	for _, r := range doc.Records {
		if len(layers) > 0 && r.Layered {
			continue
		}
		box := annotation.FromRecord(r, s.ids)
		if l, ok := s.palette.Lookup(r.Label); ok {
			box.Class = l.ID
		}
		st.Boxes = append(st.Boxes, box)
	}

	if scene != nil {
		st.Draft = draftOf(scene, st)
	}
	if len(st.Layers) == 0 {
		if scene != nil {
			st.Scene = scene
		}
		return st, nil
	}

	if err := st.Regenerate(s.palette); err != nil {
		return nil, fmt.Errorf("regenerate from layers: %w", err)
	}
	return st, nil
}

func (s *Session) loadSceneMask(layout store.Layout, width, height int) (*mask.Mask, error) {
	path := layout.SceneMask()
	if _, err := os.Stat(path); err != nil {
		logging.L().Info("scene mask not found", zap.String("path", path))
		return nil, nil
	}
	m, err := store.LoadMask(path)
	if err != nil {
		return nil, err
	}
	if m.Width() != width || m.Height() != height {
		logging.L().Warn("ignoring scene mask of wrong size",
			zap.String("path", path), zap.Int("width", m.Width()), zap.Int("height", m.Height()))
		return nil, nil
	}
	return m, nil
}

// draftOf recovers the draft: scene pixels that no layer covers. Without
// layers the whole scene is draft.
func draftOf(scene *mask.Mask, st *annotation.State) *mask.Mask {
	covered := mask.New(scene.Width(), scene.Height())
	for _, l := range st.Layers {
		_ = covered.Collapse(l)
	}
	draft := mask.New(scene.Width(), scene.Height())
	for y := 0; y < scene.Height(); y++ {
		for x := 0; x < scene.Width(); x++ {
			if covered.At(x, y) == mask.Background {
				draft.PaintPixel(x, y, scene.At(x, y))
			}
		}
	}
	return draft
}

// SaveResult lists the files written by Save.
type SaveResult struct {
	SceneXML  string `json:"scene_xml"`
	SceneMask string `json:"scene_mask"`
	ColorMask string `json:"color_mask"`
	SmartMask string `json:"smart_mask,omitempty"`
	Layers    int    `json:"layers"`
	Boxes     int    `json:"boxes"`
}

// Save writes the layer files, the scene record and the scene rasters.
func (s *Session) Save() (SaveResult, error) {
	if s.state == nil {
		return SaveResult{}, ErrNoImage
	}
	st := s.state

	var layers []store.Layer
	records := make([]annotation.Record, 0, len(st.Boxes))
	for _, box := range st.Boxes {
		records = append(records, box.Record())
		if box.Layer == annotation.NoLayer {
			continue
		}
		if m, ok := st.Layers[box.Layer]; ok {
			layers = append(layers, store.Layer{Mask: m, Record: box.Record()})
		}
	}

	if err := store.SaveLayers(s.layout, layers); err != nil {
		return SaveResult{}, err
	}
	doc := s.layout.Document(st.Width(), st.Height())
	doc.Records = records
	if err := store.WriteAnnotation(s.layout.SceneXML(), doc); err != nil {
		return SaveResult{}, err
	}
	if err := store.SaveMask(st.Scene, s.layout.SceneMask()); err != nil {
		return SaveResult{}, err
	}
	if err := store.SaveImage(st.Scene.Render(s.palette), s.layout.ColorMask()); err != nil {
		return SaveResult{}, err
	}

	res := SaveResult{
		SceneXML:  s.layout.SceneXML(),
		SceneMask: s.layout.SceneMask(),
		ColorMask: s.layout.ColorMask(),
		Layers:    len(layers),
		Boxes:     len(records),
	}
	if len(layers) > 0 {
		if err := store.SaveImage(st.SmartMask(), s.layout.SmartMask()); err != nil {
			return SaveResult{}, err
		}
		res.SmartMask = s.layout.SmartMask()
	}

	s.dirty = false
	logging.L().Info("annotation saved",
		zap.String("path", s.layout.ImagePath),
		zap.Int("boxes", res.Boxes),
		zap.Int("layers", res.Layers))
	return res, nil
}

// Status summarizes the session.
type Status struct {
	Open        bool   `json:"open"`
	Path        string `json:"path,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Mode        string `json:"mode"`
	LabelID     uint8  `json:"label_id"`
	LabelName   string `json:"label_name,omitempty"`
	Boxes       int    `json:"boxes"`
	Layers      int    `json:"layers"`
	Instances   int    `json:"instances"`
	Selected    string `json:"selected,omitempty"`
	History     int    `json:"history"`
	Cursor      int    `json:"cursor"`
	CanUndo     bool   `json:"can_undo"`
	CanRedo     bool   `json:"can_redo"`
	Dirty       bool   `json:"dirty"`
	DraftEmpty  bool   `json:"draft_empty"`
	// SceneLabels lists the label ids present in the scene.
	SceneLabels []int  `json:"scene_labels"`
}

// Status returns the current summary.
func (s *Session) Status() Status {
	id, name := s.machine.Label()
	out := Status{
		Mode:      s.machine.Mode().String(),
		LabelID:   id,
		LabelName: name,
		Dirty:     s.dirty,
	}
	if s.state == nil {
		return out
	}
	st := s.state
	out.Open = true
	out.Path = s.layout.ImagePath
	out.Width = st.Width()
	out.Height = st.Height()
	out.Boxes = len(st.Boxes)
	out.Layers = len(st.Layers)
	out.Instances = mask.CountInstances(st.SmartMask())
	if i := st.SelectedBox(); i >= 0 {
		out.Selected = st.Boxes[i].ID
	}
	out.History = s.history.Len()
	out.Cursor = s.history.Cursor()
	out.CanUndo = s.history.CanUndo()
	out.CanRedo = s.history.CanRedo()
	out.DraftEmpty = st.Draft.IsEmpty()
	out.SceneLabels = make([]int, 0)
	for _, id := range st.Scene.Labels() {
		out.SceneLabels = append(out.SceneLabels, int(id))
	}
	return out
}
