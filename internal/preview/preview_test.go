package preview

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

var testPalette = mask.NewPalette(mask.Label{ID: 1, Name: "cat", Color: color.RGBA{R: 255, A: 255}})

func whiteImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img
}

func decode(t *testing.T, res *Result) image.Image {
	t.Helper()
	if res.MimeType != "image/png" {
		t.Errorf("MimeType = %s, want image/png", res.MimeType)
	}
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	return img
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}

func rgb(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestRender_Overlay(t *testing.T) {
	scene := mask.New(10, 10)
	scene.PaintPixel(2, 2, 1)

	res, err := Render(whiteImage(10, 10), scene, nil, testPalette, Options{Alpha: 0.5})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img := decode(t, res)
	if res.Width != 10 || res.Height != 10 {
		t.Errorf("size = %dx%d, want 10x10", res.Width, res.Height)
	}

	r, g, b := rgb(img.At(2, 2))
	if r != 255 || !near(g, 128) || !near(b, 128) {
		t.Errorf("labeled pixel = (%d,%d,%d), want about (255,128,128)", r, g, b)
	}
	r, g, b = rgb(img.At(5, 5))
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("background pixel = (%d,%d,%d), want white", r, g, b)
	}
}

func TestRender_HiddenMask(t *testing.T) {
	scene := mask.New(4, 4)
	scene.PaintPixel(1, 1, 1)

	res, err := Render(whiteImage(4, 4), scene, nil, testPalette, Options{Alpha: -1})
	if err != nil {
		t.Fatal(err)
	}
	if r, g, b := rgb(decode(t, res).At(1, 1)); r != 255 || g != 255 || b != 255 {
		t.Errorf("pixel = (%d,%d,%d), want untouched white", r, g, b)
	}
}

func TestRender_Outline(t *testing.T) {
	ids := &annotation.Counter{}
	box := annotation.NewBoundingBox(image.Pt(2, 2), image.Pt(6, 6), "cat", ids)
	box.Class = 1

	res, err := Render(whiteImage(10, 10), mask.New(10, 10), []annotation.BoundingBox{box}, testPalette, Options{Outline: true})
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, res)

	tests := []struct {
		name string
		p    image.Point
		red  bool
	}{
		{"top-left corner", image.Pt(2, 2), true},
		{"bottom-right corner", image.Pt(6, 6), true},
		{"top edge", image.Pt(4, 2), true},
		{"interior", image.Pt(4, 4), false},
		{"outside", image.Pt(8, 8), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := rgb(img.At(tt.p.X, tt.p.Y))
			isRed := r == 255 && g == 0 && b == 0
			if isRed != tt.red {
				t.Errorf("pixel %v = (%d,%d,%d), outlined = %v, want %v", tt.p, r, g, b, isRed, tt.red)
			}
		})
	}
}

func TestOutlineColor_Selected(t *testing.T) {
	box := annotation.BoundingBox{Label: "cat", Class: 1}
	if c := outlineColor(box, testPalette); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("unselected color = %v, want red", c)
	}
	box.Selected = true
	if c := outlineColor(box, testPalette); c != (color.RGBA{G: 255, B: 255, A: 255}) {
		t.Errorf("selected color = %v, want cyan", c)
	}

	box = annotation.BoundingBox{Label: "cat"}
	if c := outlineColor(box, testPalette); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("color by label name = %v, want red", c)
	}
}

func TestRender_RegionAndScale(t *testing.T) {
	tests := []struct {
		name          string
		region        image.Rectangle
		scale         float64
		wantW, wantH  int
		wantErr       bool
	}{
		{"whole image", image.Rectangle{}, 1, 40, 30, false},
		{"crop", image.Rect(5, 5, 25, 15), 1, 20, 10, false},
		{"crop scaled up", image.Rect(5, 5, 25, 15), 2, 40, 20, false},
		{"crop clamped", image.Rect(30, 20, 60, 60), 1, 10, 10, false},
		{"scale down whole", image.Rectangle{}, 0.5, 20, 15, false},
		{"outside", image.Rect(100, 100, 120, 120), 1, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Render(whiteImage(40, 30), mask.New(40, 30), nil, testPalette, Options{Region: tt.region, Scale: tt.scale})
			if tt.wantErr {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if res.Width != tt.wantW || res.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", res.Width, res.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestRender_SizeMismatch(t *testing.T) {
	_, err := Render(whiteImage(10, 10), mask.New(5, 5), nil, testPalette, Options{})
	if !errors.Is(err, mask.ErrSizeMismatch) {
		t.Errorf("Render() error = %v, want ErrSizeMismatch", err)
	}
}

func TestLayer_TransparentBackground(t *testing.T) {
	m := mask.New(3, 1)
	m.PaintPixel(1, 0, 1)
	img := Layer(m, testPalette)

	if a := img.NRGBAAt(0, 0).A; a != 0 {
		t.Errorf("background alpha = %d, want 0", a)
	}
	if c := img.NRGBAAt(1, 0); c != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("labeled pixel = %v, want opaque red", c)
	}
}
