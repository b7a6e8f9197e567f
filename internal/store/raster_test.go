package store

import (
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

func TestMaskRoundTrip(t *testing.T) {
	m := mask.New(30, 20)
	m.PaintCircle(10, 10, 7, 3)
	m.PaintPixel(0, 0, 255)
	m.PaintPixel(29, 19, 1)

	path := filepath.Join(t.TempDir(), "nested", "m.png")
	if err := SaveMask(m, path); err != nil {
		t.Fatalf("SaveMask() error = %v", err)
	}
	got, err := LoadMask(path)
	if err != nil {
		t.Fatalf("LoadMask() error = %v", err)
	}
	if !got.Equal(m) {
		t.Error("mask changed across save and load")
	}
}

func TestLoadMask_Missing(t *testing.T) {
	if _, err := LoadMask(filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Error("LoadMask() should fail for a missing file")
	}
}

func TestImageCache(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	img.Set(3, 4, color.RGBA{R: 200, A: 255})
	path := filepath.Join(t.TempDir(), "src.png")
	if err := SaveImage(img, path); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}

	cache := NewImageCache()
	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b := first.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Errorf("bounds = %v, want 12x8", b)
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second Load() should return the cached image")
	}

	cache.Clear()
	third, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Error("Load() after Clear() should decode the file again")
	}
}

func TestImageCache_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src.png")
	if err := SaveImage(image.NewRGBA(image.Rect(0, 0, 4, 4)), path); err != nil {
		t.Fatal(err)
	}

	cache := NewImageCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	a, _ := cache.Load(path)
	b, _ := cache.Load(path)
	if a == nil || a != b {
		t.Error("cache should hold one image for the path after concurrent loads")
	}
}

func TestImageCache_LoadMissing(t *testing.T) {
	if _, err := NewImageCache().Load(filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}
