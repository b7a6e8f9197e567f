// Package preview renders an annotation over its source image for display.
//
// The scene mask is drawn through the label palette at a chosen opacity,
// boxes are outlined in their label color, and the result may be cropped to
// a region and scaled before being returned as a base64 PNG.
package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

// DefaultAlpha is the mask opacity used when Options.Alpha is zero.
const DefaultAlpha = 0.5

// Result contains the encoded preview.
type Result struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Options controls Render.
type Options struct {
	// Alpha is the mask opacity in (0,1]. Negative hides the mask.
	Alpha float64
	// Outline draws box borders.
	Outline bool
	// Region crops the output. The zero rectangle keeps the whole image.
	Region image.Rectangle
	// Scale resizes the output. Zero or one keeps the size.
	Scale float64
}

// Render composes the scene over src.
func Render(src image.Image, scene *mask.Mask, boxes []annotation.BoundingBox, pal *mask.Palette, opts Options) (*Result, error) {
	b := src.Bounds()
	if b.Dx() != scene.Width() || b.Dy() != scene.Height() {
		return nil, fmt.Errorf("image %dx%d does not match mask %dx%d: %w",
			b.Dx(), b.Dy(), scene.Width(), scene.Height(), mask.ErrSizeMismatch)
	}

	out := imaging.Clone(src)
	alpha := opts.Alpha
	if alpha == 0 {
		alpha = DefaultAlpha
	}
	if alpha > 0 {
		out = imaging.Overlay(out, Layer(scene, pal), image.Pt(0, 0), min(alpha, 1))
	}
	if opts.Outline {
		for _, box := range boxes {
			Outline(out, box, outlineColor(box, pal))
		}
	}

	if opts.Region.Empty() {
		return Encode(out, opts.Scale)
	}
	return Crop(out, opts.Region, opts.Scale)
}

// Layer renders the labeled pixels of m through pal on a transparent
// background.
func Layer(m *mask.Mask, pal *mask.Palette) *image.NRGBA {
	img := image.NewNRGBA(m.Bounds())
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			id := m.At(x, y)
			if id == mask.Background {
				continue
			}
			c := pal.Color(id)
			img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return img
}

// Outline draws the border pixels of box onto img.
func Outline(img *image.NRGBA, box annotation.BoundingBox, c color.Color) {
	r := box.Rect().Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// outlineColor is the label color of box, or its hue opposite when the box
// is selected.
func outlineColor(box annotation.BoundingBox, pal *mask.Palette) color.RGBA {
	c := pal.Color(box.Class)
	if box.Class == mask.Background {
		if l, ok := pal.Lookup(box.Label); ok {
			c = l.Color
		}
	}
	if !box.Selected {
		return c
	}
	h, s, v := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hsv()
	if s == 0 {
		s, v = 1, 1
	}
	hue := h + 180
	if hue >= 360 {
		hue -= 360
	}
	r, g, b := colorful.Hsv(hue, s, v).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Crop extracts rect from img, clamped to the image, and encodes it.
func Crop(img image.Image, rect image.Rectangle, scale float64) (*Result, error) {
	bounds := img.Bounds()
	r := rect.Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", rect, bounds)
	}
	return Encode(imaging.Crop(img, r), scale)
}

// Encode scales img and returns it as a base64 PNG.
func Encode(img image.Image, scale float64) (*Result, error) {
	out := img
	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(img.Bounds().Dx()) * scale)
		newHeight := int(float64(img.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		out = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &Result{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
