package annotation

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

// LayerID keys a layer in the State arena. NoLayer marks a box without one.
type LayerID uint32

const NoLayer LayerID = 0

var (
	// ErrBoxNotFound is returned when a box id is not in the list.
	ErrBoxNotFound = errors.New("bounding box not found")

	// ErrEmptyLayer is returned when a layer to promote or re-derive has no
	// labeled pixels.
	ErrEmptyLayer = errors.New("layer has no labeled pixels")
)

// State is the complete editable annotation of one image.
//
// Scene is the flattened mask. Draft collects strokes painted while no
// layered box is selected. Every stroke lands in Scene and in exactly one of
// Draft or the selected box's layer.
type State struct {
	Scene  *mask.Mask
	Draft  *mask.Mask
	Boxes  []BoundingBox
	Layers map[LayerID]*mask.Mask

	nextLayer LayerID
}

// NewState creates an empty state for an image of the given size.
func NewState(width, height int) *State {
	return &State{
		Scene:     mask.New(width, height),
		Draft:     mask.New(width, height),
		Layers:    make(map[LayerID]*mask.Mask),
		nextLayer: 1,
	}
}

// Width returns the image width.
func (s *State) Width() int { return s.Scene.Width() }

// Height returns the image height.
func (s *State) Height() int { return s.Scene.Height() }

// Clone returns a deep copy.
func (s *State) Clone() *State {
	snap := s.Snapshot()
	return &State{
		Scene:     s.Scene.Clone(),
		Draft:     s.Draft.Clone(),
		Boxes:     snap.Boxes,
		Layers:    snap.Layers,
		nextLayer: s.nextLayer,
	}
}

// Snapshot is a deep copy of the box list and the layer arena.
type Snapshot struct {
	Boxes  []BoundingBox
	Layers map[LayerID]*mask.Mask
}

// Snapshot captures the boxes and layers.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Boxes:  append([]BoundingBox(nil), s.Boxes...),
		Layers: cloneLayers(s.Layers),
	}
}

// Restore replaces the boxes and layers with copies of snap.
func (s *State) Restore(snap Snapshot) {
	s.Boxes = append([]BoundingBox(nil), snap.Boxes...)
	s.Layers = cloneLayers(snap.Layers)
	for id := range s.Layers {
		if id >= s.nextLayer {
			s.nextLayer = id + 1
		}
	}
}

func cloneLayers(layers map[LayerID]*mask.Mask) map[LayerID]*mask.Mask {
	out := make(map[LayerID]*mask.Mask, len(layers))
	for id, m := range layers {
		out[id] = m.Clone()
	}
	return out
}

// FindBox returns the index of the box with the given id, or -1.
func (s *State) FindBox(id string) int {
	for i := range s.Boxes {
		if s.Boxes[i].ID == id {
			return i
		}
	}
	return -1
}

// SelectedBox returns the index of the first selected box, or -1.
func (s *State) SelectedBox() int {
	for i := range s.Boxes {
		if s.Boxes[i].Selected {
			return i
		}
	}
	return -1
}

// ClearSelection unselects every box.
func (s *State) ClearSelection() {
	for i := range s.Boxes {
		s.Boxes[i].Unselect()
	}
}

// InsertBox inserts b at index, clamped to the list bounds.
func (s *State) InsertBox(index int, b BoundingBox) {
	if index < 0 {
		index = 0
	}
	if index > len(s.Boxes) {
		index = len(s.Boxes)
	}
	s.Boxes = append(s.Boxes, BoundingBox{})
	copy(s.Boxes[index+1:], s.Boxes[index:])
	s.Boxes[index] = b
}

// RemoveBox removes the box with the given id and returns it with the index
// it occupied.
func (s *State) RemoveBox(id string) (BoundingBox, int, error) {
	i := s.FindBox(id)
	if i < 0 {
		return BoundingBox{}, -1, fmt.Errorf("remove %s: %w", id, ErrBoxNotFound)
	}
	box := s.Boxes[i]
	s.Boxes = append(s.Boxes[:i], s.Boxes[i+1:]...)
	return box, i, nil
}

// AddLayer stores m under a fresh id.
func (s *State) AddLayer(m *mask.Mask) LayerID {
	if s.Layers == nil {
		s.Layers = make(map[LayerID]*mask.Mask)
	}
	if s.nextLayer == NoLayer {
		s.nextLayer = 1
	}
	id := s.nextLayer
	s.nextLayer++
	s.Layers[id] = m
	return id
}

// PutLayer stores m under an existing id.
func (s *State) PutLayer(id LayerID, m *mask.Mask) {
	if s.Layers == nil {
		s.Layers = make(map[LayerID]*mask.Mask)
	}
	s.Layers[id] = m
	if id >= s.nextLayer {
		s.nextLayer = id + 1
	}
}

// RemoveLayer deletes a layer and returns it, or nil if absent.
func (s *State) RemoveLayer(id LayerID) *mask.Mask {
	m := s.Layers[id]
	delete(s.Layers, id)
	return m
}

// Target returns the mask strokes are written to besides Scene: the layer of
// the selected box when it has one, the draft otherwise.
func (s *State) Target() (*mask.Mask, LayerID) {
	if i := s.SelectedBox(); i >= 0 {
		if id := s.Boxes[i].Layer; id != NoLayer {
			if m, ok := s.Layers[id]; ok {
				return m, id
			}
		}
	}
	return s.Draft, NoLayer
}

// TargetFor resolves a target by layer id. NoLayer resolves to the draft.
func (s *State) TargetFor(id LayerID) (*mask.Mask, bool) {
	if id == NoLayer {
		return s.Draft, true
	}
	m, ok := s.Layers[id]
	return m, ok
}

// LabelAt returns the scene label id at p.
func (s *State) LabelAt(p image.Point) uint8 {
	return s.Scene.At(p.X, p.Y)
}

// RebuildScene recomposes Scene from the layers in box order, then the
// draft. Earlier layers win where layers overlap.
func (s *State) RebuildScene() error {
	s.Scene.Clear()
	for _, box := range s.Boxes {
		if box.Layer == NoLayer {
			continue
		}
		layer, ok := s.Layers[box.Layer]
		if !ok {
			continue
		}
		if err := s.Scene.Collapse(layer); err != nil {
			return fmt.Errorf("collapse layer %d: %w", box.Layer, err)
		}
	}
	if err := s.Scene.Collapse(s.Draft); err != nil {
		return fmt.Errorf("collapse draft: %w", err)
	}
	return nil
}

// SmartMask renders every layer in its box's instance color on black.
// Earlier boxes win where layers overlap.
func (s *State) SmartMask() *image.RGBA {
	img := image.NewRGBA(s.Scene.Bounds())
	w := s.Width()
	taken := make([]bool, w*s.Height())
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	for _, box := range s.Boxes {
		layer, ok := s.Layers[box.Layer]
		if box.Layer == NoLayer || !ok {
			continue
		}
		c := box.MaskColor
		for y := 0; y < layer.Height(); y++ {
			for x := 0; x < layer.Width(); x++ {
				i := y*w + x
				if taken[i] || layer.At(x, y) == mask.Background {
					continue
				}
				taken[i] = true
				o := img.PixOffset(x, y)
				img.Pix[o] = c.R
				img.Pix[o+1] = c.G
				img.Pix[o+2] = c.B
			}
		}
	}
	return img
}

// InstanceIndex is the smart-mask instance index of a layer.
func InstanceIndex(id LayerID) int {
	return int(id) - 1
}

// PromoteDraft turns the draft into a new layer with a derived box appended
// to the list. When a layered box is selected, that box is re-derived from
// its layer instead and the draft is left alone.
func (s *State) PromoteDraft(pal *mask.Palette, ids IDGenerator) (BoundingBox, error) {
	if i := s.SelectedBox(); i >= 0 && s.Boxes[i].Layer != NoLayer {
		old := s.Boxes[i]
		layer, ok := s.Layers[old.Layer]
		if !ok {
			return BoundingBox{}, fmt.Errorf("layer %d: %w", old.Layer, ErrBoxNotFound)
		}
		box, err := layerBox(old.Layer, layer, pal, fixedID(old.ID))
		if err != nil {
			return BoundingBox{}, err
		}
		box.Selected = old.Selected
		box.SelectedCorner = old.SelectedCorner
		s.Boxes[i] = box
		return box, nil
	}

	if s.Draft.IsEmpty() {
		return BoundingBox{}, ErrEmptyLayer
	}
	id := s.AddLayer(s.Draft)
	box, err := layerBox(id, s.Draft, pal, ids)
	if err != nil {
		s.RemoveLayer(id)
		return BoundingBox{}, err
	}
	s.Draft = mask.New(s.Width(), s.Height())
	s.Boxes = append(s.Boxes, box)
	return box, nil
}

// Regenerate re-derives every layered box from its layer, keeping ids and
// order, and rebuilds the scene. Boxes whose layer is gone or empty are
// dropped together with the layer.
func (s *State) Regenerate(pal *mask.Palette) error {
	kept := s.Boxes[:0]
	for _, old := range s.Boxes {
		if old.Layer == NoLayer {
			kept = append(kept, old)
			continue
		}
		layer, ok := s.Layers[old.Layer]
		if !ok {
			logging.L().Warn("dropping box without layer",
				zap.String("box", old.ID), zap.Uint32("layer", uint32(old.Layer)))
			continue
		}
		box, err := layerBox(old.Layer, layer, pal, fixedID(old.ID))
		if errors.Is(err, ErrEmptyLayer) {
			logging.L().Info("dropping empty layer",
				zap.String("box", old.ID), zap.Uint32("layer", uint32(old.Layer)))
			s.RemoveLayer(old.Layer)
			continue
		}
		if err != nil {
			return err
		}
		box.Selected = old.Selected
		box.SelectedCorner = old.SelectedCorner
		kept = append(kept, box)
	}
	s.Boxes = kept
	return s.RebuildScene()
}

// layerBox derives the box of one layer. The class is the layer's dominant
// label and the mask color its instance color.
func layerBox(id LayerID, layer *mask.Mask, pal *mask.Palette, ids IDGenerator) (BoundingBox, error) {
	class := layer.DominantLabel()
	if class == mask.Background {
		return BoundingBox{}, ErrEmptyLayer
	}
	c := mask.SmartInstanceColor(class, InstanceIndex(id))
	box, err := DeriveBoundingBox(layer.RenderSolid(c), c, labelName(pal, class), ids)
	if err != nil {
		return BoundingBox{}, fmt.Errorf("derive layer %d: %w", id, err)
	}
	box.Class = class
	box.Layer = id
	return box, nil
}

func labelName(pal *mask.Palette, class uint8) string {
	if pal != nil {
		if l, ok := pal.Label(class); ok && l.Name != "" {
			return l.Name
		}
	}
	return strconv.Itoa(int(class))
}

// fixedID reissues one id, used when re-deriving an existing box.
type fixedID string

func (f fixedID) Next() string { return string(f) }
