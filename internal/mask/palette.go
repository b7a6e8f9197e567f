package mask

import (
	"fmt"
	"image/color"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Label is one palette entry: a semantic class id, its name and its display
// color.
type Label struct {
	ID    uint8      `json:"id"`
	Name  string     `json:"name"`
	Color color.RGBA `json:"-"`
}

// Hex returns the label color as "#rrggbb".
func (l Label) Hex() string {
	c, _ := colorful.MakeColor(l.Color)
	return c.Hex()
}

var (
	backgroundColor = color.RGBA{A: 0xff}
	unknownColor    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Palette maps label ids to labels. Id 0 always renders black; ids without
// an entry render white so unlabeled classes stand out.
type Palette struct {
	labels map[uint8]Label
}

// NewPalette builds a palette from explicit labels. An entry with id 0 is
// ignored.
func NewPalette(labels ...Label) *Palette {
	p := &Palette{labels: make(map[uint8]Label, len(labels))}
	for _, l := range labels {
		if l.ID == Background {
			continue
		}
		if l.Color.A == 0 {
			l.Color.A = 0xff
		}
		p.labels[l.ID] = l
	}
	return p
}

// DefaultPalette assigns ids 1..n to names and spreads their colors over
// 300 degrees of the HSV wheel at full saturation and value.
func DefaultPalette(names []string) *Palette {
	colors := WheelColors(len(names))
	labels := make([]Label, 0, len(names))
	for i, name := range names {
		if i >= 255 {
			break
		}
		labels = append(labels, Label{ID: uint8(i + 1), Name: name, Color: colors[i]})
	}
	return NewPalette(labels...)
}

// WheelColors returns n evenly spaced hues starting at red.
func WheelColors(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	step := 300.0 / float64(n)
	colors := make([]color.RGBA, n)
	for i := range colors {
		r, g, b := colorful.Hsv(step*float64(i), 1, 1).RGB255()
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return colors
}

// ParseColor decodes a "#rrggbb" string.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Color returns the display color for id.
func (p *Palette) Color(id uint8) color.RGBA {
	if id == Background {
		return backgroundColor
	}
	if l, ok := p.labels[id]; ok {
		return l.Color
	}
	return unknownColor
}

// Label returns the entry for id.
func (p *Palette) Label(id uint8) (Label, bool) {
	l, ok := p.labels[id]
	return l, ok
}

// Lookup finds a label by name.
func (p *Palette) Lookup(name string) (Label, bool) {
	for _, l := range p.labels {
		if l.Name == name {
			return l, true
		}
	}
	return Label{}, false
}

// Labels returns all entries ordered by id.
func (p *Palette) Labels() []Label {
	labels := make([]Label, 0, len(p.labels))
	for _, l := range p.labels {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].ID < labels[j].ID })
	return labels
}
