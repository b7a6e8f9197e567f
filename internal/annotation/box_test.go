package annotation

import (
	"image"
	"testing"
)

func TestNewBoundingBox_Normalizes(t *testing.T) {
	points := []image.Point{
		{0, 0}, {10, 5}, {-4, 7}, {3, -9}, {10, 10}, {-1, -1},
	}
	ids := &Counter{}

	for _, a := range points {
		for _, b := range points {
			box := NewBoundingBox(a, b, "x", ids)
			if box.Min.X > box.Max.X || box.Min.Y > box.Max.Y {
				t.Errorf("NewBoundingBox(%v, %v): min %v > max %v", a, b, box.Min, box.Max)
			}
			if box.Selected {
				t.Errorf("NewBoundingBox(%v, %v) should not be selected", a, b)
			}
		}
	}
}

func TestNewBoundingBox_WidthHeightAndRecord(t *testing.T) {
	box := NewBoundingBox(image.Pt(10, 10), image.Pt(50, 60), "cat", &Counter{})

	if box.Width() != 40 {
		t.Errorf("Width: got %d, want 40", box.Width())
	}
	if box.Height() != 50 {
		t.Errorf("Height: got %d, want 50", box.Height())
	}
	if box.Label != "cat" {
		t.Errorf("Label: got %q", box.Label)
	}
	if box.ID == "" {
		t.Error("box should receive an id")
	}
}

func TestContainsPoint(t *testing.T) {
	box := NewBoundingBox(image.Pt(10, 10), image.Pt(20, 30), "", &Counter{})

	tests := []struct {
		p    image.Point
		want bool
	}{
		{image.Pt(10, 10), true},
		{image.Pt(20, 30), true},
		{image.Pt(15, 20), true},
		{image.Pt(9, 20), false},
		{image.Pt(21, 20), false},
		{image.Pt(15, 31), false},
	}

	for _, tt := range tests {
		if got := box.ContainsPoint(tt.p); got != tt.want {
			t.Errorf("ContainsPoint(%v): got %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestCornerHitTest(t *testing.T) {
	box := NewBoundingBox(image.Pt(100, 100), image.Pt(200, 300), "", &Counter{})

	tests := []struct {
		name string
		p    image.Point
		want Corner
	}{
		{"top-left exact", image.Pt(100, 100), TopLeft},
		{"top-right inside radius", image.Pt(209, 112), TopRight},
		{"bottom-left on radius", image.Pt(85, 300), BottomLeft},
		{"bottom-right", image.Pt(195, 295), BottomRight},
		{"just outside radius", image.Pt(100, 116), NoCorner},
		{"center", image.Pt(150, 200), NoCorner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.CornerHitTest(tt.p, DefaultHitRadius); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCornerHitTest_TieBreak(t *testing.T) {
	// A 4x4 box puts every corner within the radius of its center.
	box := NewBoundingBox(image.Pt(0, 0), image.Pt(4, 4), "", &Counter{})
	if got := box.CornerHitTest(image.Pt(2, 2), DefaultHitRadius); got != TopLeft {
		t.Errorf("got %v, want top-left", got)
	}
	if got := box.CornerHitTest(image.Pt(4, 2), DefaultHitRadius); got != TopLeft {
		t.Errorf("scan order should prefer top-left, got %v", got)
	}
	if got := box.CornerHitTest(image.Pt(4, 2), 2); got != TopRight {
		t.Errorf("small radius: got %v, want top-right", got)
	}
}

func TestMove_RoundTrip(t *testing.T) {
	deltas := []image.Point{{0, 0}, {5, -3}, {-100, 40}, {7, 7}}
	for _, d := range deltas {
		box := NewBoundingBox(image.Pt(3, 4), image.Pt(30, 40), "", &Counter{})
		orig := box
		box.Move(d.X, d.Y)
		if d != (image.Point{}) && box.SameGeometry(orig) {
			t.Errorf("Move(%v) did not move the box", d)
		}
		box.Move(-d.X, -d.Y)
		if !box.SameGeometry(orig) {
			t.Errorf("Move(%v) then back: got %v-%v, want %v-%v", d, box.Min, box.Max, orig.Min, orig.Max)
		}
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		corner  Corner
		dx, dy  int
		wantMin image.Point
		wantMax image.Point
	}{
		{TopLeft, -2, -3, image.Pt(8, 7), image.Pt(50, 60)},
		{TopRight, 4, 1, image.Pt(10, 11), image.Pt(54, 60)},
		{BottomLeft, 1, 6, image.Pt(11, 10), image.Pt(50, 66)},
		{BottomRight, 5, 5, image.Pt(10, 10), image.Pt(55, 65)},
		{NoCorner, 5, 5, image.Pt(10, 10), image.Pt(50, 60)},
	}

	for _, tt := range tests {
		t.Run(tt.corner.String(), func(t *testing.T) {
			box := NewBoundingBox(image.Pt(10, 10), image.Pt(50, 60), "", &Counter{})
			box.SelectedCorner = tt.corner
			box.Resize(tt.dx, tt.dy)
			if box.Min != tt.wantMin || box.Max != tt.wantMax {
				t.Errorf("got %v-%v, want %v-%v", box.Min, box.Max, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestResize_CrossingAnchorFlipsCorner(t *testing.T) {
	box := NewBoundingBox(image.Pt(10, 10), image.Pt(20, 20), "", &Counter{})
	box.SelectedCorner = BottomRight

	box.Resize(-15, 0)

	if box.Min != image.Pt(5, 10) || box.Max != image.Pt(10, 20) {
		t.Fatalf("got %v-%v, want (5,10)-(10,20)", box.Min, box.Max)
	}
	if box.SelectedCorner != BottomLeft {
		t.Errorf("corner: got %v, want bottom-left", box.SelectedCorner)
	}

	box.Resize(0, -20)
	if box.Min != image.Pt(5, 0) || box.Max != image.Pt(10, 10) {
		t.Fatalf("got %v-%v, want (5,0)-(10,10)", box.Min, box.Max)
	}
	if box.SelectedCorner != TopLeft {
		t.Errorf("corner: got %v, want top-left", box.SelectedCorner)
	}
}

func TestSelectUnselect(t *testing.T) {
	box := NewBoundingBox(image.Pt(0, 0), image.Pt(9, 9), "", &Counter{})
	box.Select()
	box.SelectedCorner = TopRight
	if !box.Selected {
		t.Fatal("Select should set Selected")
	}
	box.Unselect()
	if box.Selected || box.SelectedCorner != NoCorner {
		t.Errorf("Unselect: selected=%v corner=%v", box.Selected, box.SelectedCorner)
	}
}

func TestRecord(t *testing.T) {
	box := NewBoundingBox(image.Pt(50, 60), image.Pt(10, 10), "cat", &Counter{})
	rec := box.Record()
	if rec.Min != image.Pt(10, 10) || rec.Max != image.Pt(50, 60) || rec.Label != "cat" {
		t.Errorf("Record: got %+v", rec)
	}
	if rec.Layered {
		t.Error("plain box should not be layered")
	}

	back := FromRecord(rec, &Counter{})
	if !back.SameGeometry(box) || back.Label != "cat" {
		t.Errorf("FromRecord: got %+v", back)
	}
}

func TestCorner_String(t *testing.T) {
	if TopLeft.String() != "top-left" || NoCorner.String() != "none" {
		t.Error("unexpected corner names")
	}
	if Corner(42).String() != "unknown" {
		t.Error("out-of-range corner should be unknown")
	}
}
