package mask

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

// fillRect paints id over the inclusive rectangle (x1,y1)-(x2,y2).
func fillRect(m *Mask, x1, y1, x2, y2 int, id uint8) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			m.PaintPixel(x, y, id)
		}
	}
}

func countID(m *Mask, id uint8) int {
	n := 0
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			if m.At(x, y) == id {
				n++
			}
		}
	}
	return n
}

func TestNew(t *testing.T) {
	m := New(20, 10)
	if m.Width() != 20 || m.Height() != 10 {
		t.Fatalf("size: got %dx%d, want 20x10", m.Width(), m.Height())
	}
	if !m.IsEmpty() {
		t.Error("new mask should be empty")
	}
	if m.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Errorf("Bounds: got %v", m.Bounds())
	}
}

func TestPaintPixel_OutOfBounds(t *testing.T) {
	m := New(5, 5)
	m.PaintPixel(-1, 0, 3)
	m.PaintPixel(5, 0, 3)
	m.PaintPixel(0, 5, 3)
	if !m.IsEmpty() {
		t.Error("out-of-bounds writes should be ignored")
	}
	if m.At(-3, 2) != Background {
		t.Error("out-of-bounds read should return background")
	}
}

func TestPaintCircle(t *testing.T) {
	tests := []struct {
		name    string
		penSize int
		want    int
	}{
		{"single pixel", 1, 1},
		{"zero pen", 0, 1},
		{"diameter 3", 3, 9},
		{"diameter 5", 5, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(20, 20)
			m.PaintCircle(10, 10, tt.penSize, 4)
			if got := countID(m, 4); got != tt.want {
				t.Errorf("painted %d pixels, want %d", got, tt.want)
			}
			if m.At(10, 10) != 4 {
				t.Error("center pixel not painted")
			}
		})
	}
}

func TestPaintCircle_ClipsAtEdge(t *testing.T) {
	m := New(10, 10)
	m.PaintCircle(0, 0, 5, 2)
	if m.At(0, 0) != 2 || m.At(2, 0) != 2 || m.At(0, 2) != 2 {
		t.Error("visible quarter of the disc should be painted")
	}
	if got := countID(m, 2); got != 8 {
		t.Errorf("painted %d pixels, want 8", got)
	}
}

func TestFloodFill_Background(t *testing.T) {
	m := New(30, 30)
	fillRect(m, 10, 10, 19, 19, 5)

	changed := m.FloodFill(0, 0, 7)

	if changed != 900-100 {
		t.Errorf("changed %d pixels, want 800", changed)
	}
	if countID(m, 5) != 100 {
		t.Error("existing label must not be overwritten")
	}
	if countID(m, Background) != 0 {
		t.Error("background region should be fully filled")
	}
}

func TestFloodFill_StopsAtBoundary(t *testing.T) {
	m := New(30, 10)
	// Vertical wall splits the mask into two background regions.
	fillRect(m, 15, 0, 15, 9, 1)

	m.FloodFill(2, 2, 3)

	if m.At(14, 5) != 3 {
		t.Error("left region should be filled")
	}
	if m.At(16, 5) != Background {
		t.Error("right region must stay background")
	}
	if countID(m, 3) != 150 {
		t.Errorf("filled %d pixels, want 150", countID(m, 3))
	}
}

func TestFloodFill_ThinWallFromRight(t *testing.T) {
	m := New(12, 6)
	fillRect(m, 5, 0, 5, 5, 2)

	changed := m.FloodFill(8, 2, 1)

	if changed != 36 {
		t.Errorf("changed %d pixels, want 36", changed)
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 5; x++ {
			if m.At(x, y) != Background {
				t.Fatalf("fill crossed the wall at (%d,%d)", x, y)
			}
		}
	}
	if countID(m, 2) != 6 {
		t.Error("wall must be untouched")
	}
}

func TestFloodFill_DiagonalWall(t *testing.T) {
	m := New(8, 8)
	// A one-pixel diagonal separates the upper right from the lower left
	// under 4-connectivity.
	for i := 0; i < 8; i++ {
		m.PaintPixel(i, i, 2)
	}

	changed := m.FloodFill(7, 0, 1)

	if changed != 28 {
		t.Errorf("changed %d pixels, want 28", changed)
	}
	tests := []struct {
		x, y int
		want uint8
	}{
		{7, 0, 1},
		{1, 0, 1},
		{7, 6, 1},
		{0, 7, Background},
		{0, 1, Background},
		{6, 7, Background},
		{3, 3, 2},
	}
	for _, tt := range tests {
		if got := m.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestExchangeLabel_StaysInsideRegion(t *testing.T) {
	m := New(10, 10)
	fillRect(m, 0, 0, 9, 9, 3)
	fillRect(m, 4, 0, 4, 9, 5)

	if got := m.ExchangeLabel(8, 8, 7); got != 50 {
		t.Errorf("changed %d pixels, want 50", got)
	}
	if m.At(0, 0) != 3 {
		t.Error("same label beyond the wall must be untouched")
	}
}

func TestFloodFill_NoOps(t *testing.T) {
	m := New(10, 10)
	fillRect(m, 0, 0, 4, 4, 2)

	if got := m.FloodFill(1, 1, 2); got != 0 {
		t.Errorf("same-label fill changed %d pixels", got)
	}
	if got := m.FloodFill(50, 50, 3); got != 0 {
		t.Errorf("out-of-bounds fill changed %d pixels", got)
	}
}

func TestExchangeLabel(t *testing.T) {
	m := New(20, 20)
	fillRect(m, 2, 2, 6, 6, 1)
	fillRect(m, 10, 10, 14, 14, 1)

	if got := m.ExchangeLabel(0, 0, 9); got != 0 {
		t.Errorf("background seed should be ignored, changed %d", got)
	}
	if countID(m, 9) != 0 {
		t.Error("background must not be relabeled")
	}

	if got := m.ExchangeLabel(3, 3, 9); got != 25 {
		t.Errorf("changed %d pixels, want 25", got)
	}
	if m.At(12, 12) != 1 {
		t.Error("disconnected region with the same label must be untouched")
	}
}

func TestCollapse(t *testing.T) {
	base := New(10, 10)
	fillRect(base, 0, 0, 4, 9, 1)
	before := base.Clone()

	overlay := New(10, 10)
	fillRect(overlay, 3, 0, 7, 9, 2)

	if err := base.Collapse(overlay); err != nil {
		t.Fatalf("Collapse failed: %v", err)
	}

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if before.At(x, y) != Background && base.At(x, y) != before.At(x, y) {
				t.Fatalf("labeled pixel (%d,%d) changed", x, y)
			}
		}
	}
	if base.At(5, 5) != 2 {
		t.Error("background pixel should take overlay id")
	}
	if base.At(9, 9) != Background {
		t.Error("pixel empty in both should stay background")
	}
}

func TestCollapse_SizeMismatch(t *testing.T) {
	err := New(4, 4).Collapse(New(5, 4))
	if !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("got %v, want ErrSizeMismatch", err)
	}
}

func TestIdentityRoundTrip(t *testing.T) {
	m := New(8, 6)
	fillRect(m, 1, 1, 3, 3, 7)
	m.PaintPixel(7, 5, 255)

	img := m.IdentityImage()
	r, g, b, a := img.At(2, 2).RGBA()
	if r>>8 != 7 || g>>8 != 7 || b>>8 != 7 || a>>8 != 255 {
		t.Errorf("identity pixel: got (%d,%d,%d,%d)", r>>8, g>>8, b>>8, a>>8)
	}

	back := FromIdentity(img)
	if !back.Equal(m) {
		t.Error("FromIdentity(IdentityImage()) should reproduce the mask")
	}
}

func TestRender_ColorFollowsIdentity(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	p := NewPalette(Label{ID: 1, Name: "cat", Color: red})

	m := New(4, 1)
	m.PaintPixel(1, 0, 1)
	m.PaintPixel(2, 0, 42)

	img := m.Render(p)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{A: 255}) {
		t.Errorf("background: got %v, want black", got)
	}
	if got := img.RGBAAt(1, 0); got != red {
		t.Errorf("label 1: got %v, want %v", got, red)
	}
	if got := img.RGBAAt(2, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("unknown label: got %v, want white", got)
	}

	// Relabeling the identity is enough to change the color view.
	m.PaintPixel(2, 0, 1)
	if got := m.Render(p).RGBAAt(2, 0); got != red {
		t.Errorf("after relabel: got %v, want %v", got, red)
	}
}

func TestLabels(t *testing.T) {
	m := New(5, 5)
	m.PaintPixel(0, 0, 9)
	m.PaintPixel(1, 0, 3)
	m.PaintPixel(2, 0, 9)

	got := m.Labels()
	if len(got) != 2 || got[0] != 3 || got[1] != 9 {
		t.Errorf("Labels: got %v, want [3 9]", got)
	}
}

func TestCloneIndependent(t *testing.T) {
	m := New(3, 3)
	c := m.Clone()
	c.PaintPixel(1, 1, 5)
	if m.At(1, 1) != Background {
		t.Error("clone must not share storage")
	}
	if m.Equal(c) {
		t.Error("masks should differ after painting the clone")
	}
}

func TestDominantLabel(t *testing.T) {
	m := New(10, 10)
	if got := m.DominantLabel(); got != Background {
		t.Errorf("empty mask: got %d, want background", got)
	}

	fillRect(m, 0, 0, 1, 1, 8)
	fillRect(m, 5, 5, 7, 7, 3)
	if got := m.DominantLabel(); got != 3 {
		t.Errorf("got %d, want 3", got)
	}

	fillRect(m, 0, 0, 2, 2, 8)
	if got := m.DominantLabel(); got != 3 {
		t.Errorf("tie should prefer the lower id, got %d", got)
	}
}

func TestStamp(t *testing.T) {
	before := New(10, 10)
	fillRect(before, 0, 0, 4, 4, 2)
	after := before.Clone()
	after.FloodFill(8, 8, 6)

	layer := New(10, 10)
	if err := layer.Stamp(before, after, 6); err != nil {
		t.Fatal(err)
	}
	if countID(layer, 6) != 75 {
		t.Errorf("stamped %d pixels, want 75", countID(layer, 6))
	}
	if layer.At(2, 2) != Background {
		t.Error("unchanged pixels must not be stamped")
	}

	if err := layer.Stamp(New(3, 3), after, 1); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("got %v, want ErrSizeMismatch", err)
	}
}
