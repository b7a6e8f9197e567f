package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Background is the label id of unlabeled pixels.
const Background uint8 = 0

// ErrSizeMismatch is returned when two masks of different dimensions are
// combined.
var ErrSizeMismatch = errors.New("mask size mismatch")

// Mask is a raster of label ids.
type Mask struct {
	width  int
	height int
	ids    []uint8
}

// New creates a background-filled mask of the given size.
func New(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		width:  width,
		height: height,
		ids:    make([]uint8, width*height),
	}
}

// FromIdentity decodes an identity image. The red channel carries the id;
// the green and blue channels are expected to repeat it.
func FromIdentity(img image.Image) *Mask {
	bounds := img.Bounds()
	m := New(bounds.Dx(), bounds.Dy())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			r, _, _, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			m.ids[y*m.width+x] = uint8(r >> 8)
		}
	}
	return m
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Bounds returns the mask extent as an image.Rectangle anchored at (0,0).
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

func (m *Mask) inside(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// At returns the label id at (x, y), or Background outside the mask.
func (m *Mask) At(x, y int) uint8 {
	if !m.inside(x, y) {
		return Background
	}
	return m.ids[y*m.width+x]
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{width: m.width, height: m.height, ids: make([]uint8, len(m.ids))}
	copy(c.ids, m.ids)
	return c
}

// Equal reports whether both masks have the same size and ids.
func (m *Mask) Equal(o *Mask) bool {
	if o == nil || m.width != o.width || m.height != o.height {
		return false
	}
	for i := range m.ids {
		if m.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

// IsEmpty reports whether every pixel is background.
func (m *Mask) IsEmpty() bool {
	for _, id := range m.ids {
		if id != Background {
			return false
		}
	}
	return true
}

// Clear resets every pixel to background.
func (m *Mask) Clear() {
	for i := range m.ids {
		m.ids[i] = Background
	}
}

// Labels returns the distinct non-background ids in ascending order.
func (m *Mask) Labels() []uint8 {
	var seen [256]bool
	for _, id := range m.ids {
		seen[id] = true
	}
	labels := make([]uint8, 0)
	for id := 1; id < 256; id++ {
		if seen[id] {
			labels = append(labels, uint8(id))
		}
	}
	return labels
}

// DominantLabel returns the most frequent non-background id, the lowest id
// winning ties. It returns Background for an empty mask.
func (m *Mask) DominantLabel() uint8 {
	var counts [256]int
	for _, id := range m.ids {
		counts[id]++
	}
	best := Background
	for id := 1; id < 256; id++ {
		if counts[id] > counts[best] || (best == Background && counts[id] > 0) {
			best = uint8(id)
		}
	}
	return best
}

// PaintPixel writes id at (x, y).
func (m *Mask) PaintPixel(x, y int, id uint8) {
	if !m.inside(x, y) {
		return
	}
	m.ids[y*m.width+x] = id
}

// PaintCircle writes id into a filled disc of diameter penSize centered on
// (x, y). A pen size of 1 or less paints the single pixel.
func (m *Mask) PaintCircle(x, y, penSize int, id uint8) {
	if penSize <= 1 {
		m.PaintPixel(x, y, id)
		return
	}

	r := penSize / 2
	r2 := penSize * penSize / 4
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r2 {
				m.PaintPixel(x+dx, y+dy, id)
			}
		}
	}
}

// FloodFill relabels the 4-connected region of pixels sharing the seed's id
// with zero tolerance. It returns the number of pixels changed.
func (m *Mask) FloodFill(x, y int, id uint8) int {
	if !m.inside(x, y) || m.At(x, y) == id {
		return 0
	}
	seed := m.At(x, y)

	changed := 0
	stack := []image.Point{{X: x, Y: y}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		row := p.Y * m.width
		if m.ids[row+p.X] != seed {
			continue
		}
		left, right := p.X, p.X
		for left > 0 && m.ids[row+left-1] == seed {
			left--
		}
		for right < m.width-1 && m.ids[row+right+1] == seed {
			right++
		}
		for i := left; i <= right; i++ {
			m.ids[row+i] = id
		}
		changed += right - left + 1

		for _, ny := range [2]int{p.Y - 1, p.Y + 1} {
			if ny < 0 || ny >= m.height {
				continue
			}
			nrow := ny * m.width
			inRun := false
			for i := left; i <= right; i++ {
				match := m.ids[nrow+i] == seed
				if match && !inRun {
					stack = append(stack, image.Point{X: i, Y: ny})
				}
				inRun = match
			}
		}
	}
	return changed
}

// ExchangeLabel relabels the labeled region under (x, y). Background seeds
// are left alone so a stray click cannot flood the unlabeled area.
func (m *Mask) ExchangeLabel(x, y int, id uint8) int {
	if m.At(x, y) == Background {
		return 0
	}
	return m.FloodFill(x, y, id)
}

// Stamp writes id into m at every pixel where before and after differ. It
// mirrors a scene edit into a layer.
func (m *Mask) Stamp(before, after *Mask, id uint8) error {
	if before.width != m.width || before.height != m.height ||
		after.width != m.width || after.height != m.height {
		return fmt.Errorf("stamp onto %dx%d: %w", m.width, m.height, ErrSizeMismatch)
	}
	for i := range m.ids {
		if before.ids[i] != after.ids[i] {
			m.ids[i] = id
		}
	}
	return nil
}

// Collapse composites overlay beneath m: every background pixel of m takes
// the overlay's id, labeled pixels of m are never touched.
func (m *Mask) Collapse(overlay *Mask) error {
	if overlay.width != m.width || overlay.height != m.height {
		return fmt.Errorf("collapse %dx%d onto %dx%d: %w",
			overlay.width, overlay.height, m.width, m.height, ErrSizeMismatch)
	}
	for i, id := range m.ids {
		if id == Background {
			m.ids[i] = overlay.ids[i]
		}
	}
	return nil
}

// IdentityImage encodes the mask as (id, id, id) opaque pixels.
func (m *Mask) IdentityImage() *image.RGBA {
	img := image.NewRGBA(m.Bounds())
	for i, id := range m.ids {
		o := i * 4
		img.Pix[o] = id
		img.Pix[o+1] = id
		img.Pix[o+2] = id
		img.Pix[o+3] = 0xff
	}
	return img
}

// Render produces the color view of the mask through p.
func (m *Mask) Render(p *Palette) *image.RGBA {
	img := image.NewRGBA(m.Bounds())
	var lut [256]color.RGBA
	for id := 0; id < 256; id++ {
		lut[id] = p.Color(uint8(id))
	}
	for i, id := range m.ids {
		c := lut[id]
		o := i * 4
		img.Pix[o] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = 0xff
	}
	return img
}

// RenderSolid paints every labeled pixel with c and every background pixel
// black. It is used to draw one instance layer in its instance color.
func (m *Mask) RenderSolid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(m.Bounds())
	for i, id := range m.ids {
		o := i * 4
		if id != Background {
			img.Pix[o] = c.R
			img.Pix[o+1] = c.G
			img.Pix[o+2] = c.B
		}
		img.Pix[o+3] = 0xff
	}
	return img
}
