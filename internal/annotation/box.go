package annotation

import (
	"image"
	"image/color"
	"math"
)

// Default interaction thresholds.
const (
	DefaultHitRadius  = 15.0
	DefaultMinBoxSize = 5
)

// Corner identifies one of the four rectangle corners.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
	NoCorner
)

var cornerNames = [...]string{"top-left", "top-right", "bottom-left", "bottom-right", "none"}

func (c Corner) String() string {
	if c < TopLeft || c > NoCorner {
		return "unknown"
	}
	return cornerNames[c]
}

// BoundingBox is an axis-aligned rectangle with inclusive pixel coordinates.
type BoundingBox struct {
	ID    string      `json:"id"`
	Label string      `json:"label"`
	Class uint8       `json:"class"`
	Min   image.Point `json:"min"`
	Max   image.Point `json:"max"`

	// MaskColor identifies the box's instance in the smart mask. It is only
	// meaningful when Layer is set.
	MaskColor color.RGBA `json:"-"`
	Layer     LayerID    `json:"layer,omitempty"`

	Selected       bool   `json:"selected"`
	SelectedCorner Corner `json:"-"`
}

// NewBoundingBox builds a box spanning a and b in any order and assigns it a
// fresh id.
func NewBoundingBox(a, b image.Point, label string, ids IDGenerator) BoundingBox {
	box := BoundingBox{
		ID:             ids.Next(),
		Label:          label,
		Min:            a,
		Max:            b,
		SelectedCorner: NoCorner,
	}
	box.normalize()
	return box
}

// Width returns Max.X - Min.X.
func (b BoundingBox) Width() int { return b.Max.X - b.Min.X }

// Height returns Max.Y - Min.Y.
func (b BoundingBox) Height() int { return b.Max.Y - b.Min.Y }

// Rect returns the pixels covered by the box as a half-open rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Min.X, b.Min.Y, b.Max.X+1, b.Max.Y+1)
}

// SameGeometry reports whether both boxes cover the same rectangle.
func (b BoundingBox) SameGeometry(o BoundingBox) bool {
	return b.Min == o.Min && b.Max == o.Max
}

// ContainsPoint reports whether p lies inside the box, edges included.
func (b BoundingBox) ContainsPoint(p image.Point) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X && b.Min.Y <= p.Y && p.Y <= b.Max.Y
}

// CornerPoint returns the coordinates of corner c.
func (b BoundingBox) CornerPoint(c Corner) image.Point {
	switch c {
	case TopLeft:
		return b.Min
	case TopRight:
		return image.Pt(b.Max.X, b.Min.Y)
	case BottomLeft:
		return image.Pt(b.Min.X, b.Max.Y)
	case BottomRight:
		return b.Max
	}
	return image.Point{}
}

// CornerHitTest returns the first corner, in TopLeft, TopRight, BottomLeft,
// BottomRight order, whose Euclidean distance to p is within radius.
func (b BoundingBox) CornerHitTest(p image.Point, radius float64) Corner {
	for c := TopLeft; c < NoCorner; c++ {
		q := b.CornerPoint(c)
		if math.Hypot(float64(p.X-q.X), float64(p.Y-q.Y)) <= radius {
			return c
		}
	}
	return NoCorner
}

// Move translates the box.
func (b *BoundingBox) Move(dx, dy int) {
	b.Min.X += dx
	b.Min.Y += dy
	b.Max.X += dx
	b.Max.Y += dy
}

// Resize moves the selected corner by (dx, dy). It does nothing when no
// corner is selected.
func (b *BoundingBox) Resize(dx, dy int) {
	switch b.SelectedCorner {
	case TopLeft:
		b.Min.X += dx
		b.Min.Y += dy
	case TopRight:
		b.Max.X += dx
		b.Min.Y += dy
	case BottomLeft:
		b.Min.X += dx
		b.Max.Y += dy
	case BottomRight:
		b.Max.X += dx
		b.Max.Y += dy
	default:
		return
	}
	b.normalize()
}

// normalize restores min/max form, flipping the selected corner across any
// axis whose coordinates were swapped.
func (b *BoundingBox) normalize() {
	if b.Min.X > b.Max.X {
		b.Min.X, b.Max.X = b.Max.X, b.Min.X
		b.SelectedCorner = b.SelectedCorner.flipX()
	}
	if b.Min.Y > b.Max.Y {
		b.Min.Y, b.Max.Y = b.Max.Y, b.Min.Y
		b.SelectedCorner = b.SelectedCorner.flipY()
	}
}

func (c Corner) flipX() Corner {
	switch c {
	case TopLeft:
		return TopRight
	case TopRight:
		return TopLeft
	case BottomLeft:
		return BottomRight
	case BottomRight:
		return BottomLeft
	}
	return c
}

func (c Corner) flipY() Corner {
	switch c {
	case TopLeft:
		return BottomLeft
	case BottomLeft:
		return TopLeft
	case TopRight:
		return BottomRight
	case BottomRight:
		return TopRight
	}
	return c
}

// Select marks the box as selected.
func (b *BoundingBox) Select() {
	b.Selected = true
}

// Unselect clears the selection and the grabbed corner.
func (b *BoundingBox) Unselect() {
	b.Selected = false
	b.SelectedCorner = NoCorner
}

// Record is the persisted form of a box.
type Record struct {
	Label     string
	Min       image.Point
	Max       image.Point
	MaskColor color.RGBA
	// Layered reports whether MaskColor is set.
	Layered bool
}

// Record returns the persisted form of b.
func (b BoundingBox) Record() Record {
	return Record{
		Label:     b.Label,
		Min:       b.Min,
		Max:       b.Max,
		MaskColor: b.MaskColor,
		Layered:   b.Layer != NoLayer,
	}
}

// FromRecord rebuilds an unselected box from its persisted form.
func FromRecord(r Record, ids IDGenerator) BoundingBox {
	box := NewBoundingBox(r.Min, r.Max, r.Label, ids)
	if r.Layered {
		box.MaskColor = r.MaskColor
	}
	return box
}
