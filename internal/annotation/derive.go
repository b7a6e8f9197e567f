package annotation

import (
	"errors"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
)

// ErrColorNotFound is returned by DeriveBoundingBox when no pixel of the
// raster has the target color.
var ErrColorNotFound = errors.New("target color not found in raster")

// DeriveBoundingBox returns the tightest box enclosing every pixel of img
// whose color equals target. Four independent scans move the top, bottom,
// left and right edges inward until they meet a matching row or column.
//
// The returned box carries target as its MaskColor and a fresh id from ids.
// If the color is absent the error is ErrColorNotFound.
func DeriveBoundingBox(img image.Image, target color.Color, label string, ids IDGenerator) (BoundingBox, error) {
	rgba := clone.AsShallowRGBA(img)
	want := color.RGBAModel.Convert(target).(color.RGBA)
	bounds := rgba.Bounds()

	match := func(x, y int) bool {
		o := rgba.PixOffset(x, y)
		p := rgba.Pix[o : o+4 : o+4]
		return p[0] == want.R && p[1] == want.G && p[2] == want.B && p[3] == want.A
	}
	rowHas := func(y int) bool {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if match(x, y) {
				return true
			}
		}
		return false
	}
	colHas := func(x int) bool {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			if match(x, y) {
				return true
			}
		}
		return false
	}

	minY := bounds.Min.Y
	for minY < bounds.Max.Y && !rowHas(minY) {
		minY++
	}
	if minY == bounds.Max.Y {
		return BoundingBox{}, ErrColorNotFound
	}

	maxY := bounds.Max.Y - 1
	for !rowHas(maxY) {
		maxY--
	}

	minX := bounds.Min.X
	for !colHas(minX) {
		minX++
	}

	maxX := bounds.Max.X - 1
	for !colHas(maxX) {
		maxX--
	}

	box := NewBoundingBox(image.Pt(minX, minY), image.Pt(maxX, maxY), label, ids)
	box.MaskColor = want
	return box, nil
}
