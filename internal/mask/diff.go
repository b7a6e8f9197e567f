package mask

import "fmt"

// Diff is the sparse signed change dst - src between two masks of equal
// size. The zero Diff changes nothing.
type Diff struct {
	width  int
	height int
	index  []int32
	delta  []int16
}

// NewDiff records dst - src.
func NewDiff(src, dst *Mask) (Diff, error) {
	if src.width != dst.width || src.height != dst.height {
		return Diff{}, fmt.Errorf("diff %dx%d against %dx%d: %w",
			src.width, src.height, dst.width, dst.height, ErrSizeMismatch)
	}
	d := Diff{width: src.width, height: src.height}
	for i := range src.ids {
		if src.ids[i] != dst.ids[i] {
			d.index = append(d.index, int32(i))
			d.delta = append(d.delta, int16(dst.ids[i])-int16(src.ids[i]))
		}
	}
	return d, nil
}

// IsZero reports whether the diff changes no pixel.
func (d Diff) IsZero() bool { return len(d.index) == 0 }

// Len returns the number of changed pixels.
func (d Diff) Len() int { return len(d.index) }

// Apply adds the diff to m, turning src into dst.
func (d Diff) Apply(m *Mask) error {
	return d.add(m, 1)
}

// Remove subtracts the diff from m, turning dst back into src.
func (d Diff) Remove(m *Mask) error {
	return d.add(m, -1)
}

func (d Diff) add(m *Mask, sign int16) error {
	if d.IsZero() {
		return nil
	}
	if m.width != d.width || m.height != d.height {
		return fmt.Errorf("apply %dx%d diff to %dx%d mask: %w",
			d.width, d.height, m.width, m.height, ErrSizeMismatch)
	}
	for k, i := range d.index {
		// uint8 conversion wraps modulo 256, so diffs stay additive.
		m.ids[i] = uint8(int16(m.ids[i]) + sign*d.delta[k])
	}
	return nil
}
