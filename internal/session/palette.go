package session

import (
	"fmt"

	"github.com/ironsheep/mask-annotator-mcp/internal/config"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

// DefaultLabelCount is the size of the generated palette used when no labels
// are configured.
const DefaultLabelCount = 8

// BuildPalette turns configured labels into a palette. Labels without a
// color take theirs from the color wheel; an empty list yields
// DefaultLabelCount generated labels named label_1, label_2, ...
func BuildPalette(labels []config.LabelConfig) (*mask.Palette, error) {
	if len(labels) == 0 {
		names := make([]string, DefaultLabelCount)
		for i := range names {
			names[i] = fmt.Sprintf("label_%d", i+1)
		}
		return mask.DefaultPalette(names), nil
	}

	wheel := mask.WheelColors(len(labels))
	entries := make([]mask.Label, 0, len(labels))
	for i, l := range labels {
		entry := mask.Label{ID: uint8(l.ID), Name: l.Name, Color: wheel[i]}
		if l.Color != "" {
			c, err := mask.ParseColor(l.Color)
			if err != nil {
				return nil, fmt.Errorf("label %q: %w", l.Name, err)
			}
			entry.Color = c
		}
		entries = append(entries, entry)
	}
	return mask.NewPalette(entries...), nil
}
