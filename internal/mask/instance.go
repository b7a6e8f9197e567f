package mask

import (
	"image"
	"image/color"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
)

// MaxInstances is the number of distinct instance indices an instance color
// can carry before it wraps.
const MaxInstances = 1 << 16

// SmartInstanceColor encodes a semantic label and an instance index in one
// color. Red carries the label; green and blue carry the index in base 256
// (green = index/256, blue = index%256).
//
// Indices outside [0, MaxInstances) wrap modulo MaxInstances. The wrap is
// logged because it aliases distinct instances, but it is not an error.
func SmartInstanceColor(label uint8, instance int) color.RGBA {
	if instance < 0 || instance >= MaxInstances {
		wrapped := ((instance % MaxInstances) + MaxInstances) % MaxInstances
		logging.L().Warn("instance index out of range, wrapping",
			zap.Uint8("label", label),
			zap.Int("instance", instance),
			zap.Int("wrapped", wrapped))
		instance = wrapped
	}
	return color.RGBA{
		R: label,
		G: uint8(instance / 256),
		B: uint8(instance % 256),
		A: 0xff,
	}
}

// InstanceOf decodes a color produced by SmartInstanceColor.
func InstanceOf(c color.RGBA) (label uint8, instance int) {
	return c.R, int(c.G)*256 + int(c.B)
}

// CountInstances returns the number of distinct non-black colors in img.
func CountInstances(img image.Image) int {
	bounds := img.Bounds()
	seen := make(map[uint32]struct{})
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			key := (r>>8)<<16 | (g>>8)<<8 | b>>8
			if key == 0 {
				continue
			}
			seen[key] = struct{}{}
		}
	}
	return len(seen)
}
