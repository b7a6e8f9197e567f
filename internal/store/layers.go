package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
	"github.com/ironsheep/mask-annotator-mcp/internal/mask"
)

// MaxLayers bounds layer discovery.
const MaxLayers = 10000

// Layout resolves every file that belongs to one source image.
type Layout struct {
	ImagePath string
	Base      string
	MaskDir   string
	XMLDir    string
}

// NewLayout builds the layout for imagePath. Relative maskDir and xmlDir are
// resolved against the image's directory.
func NewLayout(imagePath, maskDir, xmlDir string) Layout {
	dir := filepath.Dir(imagePath)
	name := filepath.Base(imagePath)
	return Layout{
		ImagePath: imagePath,
		Base:      strings.TrimSuffix(name, filepath.Ext(name)),
		MaskDir:   resolve(dir, maskDir),
		XMLDir:    resolve(dir, xmlDir),
	}
}

func resolve(dir, p string) string {
	if p == "" {
		return dir
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// LayerMask is the identity mask file of layer i.
func (l Layout) LayerMask(i int) string {
	return filepath.Join(l.MaskDir, fmt.Sprintf("%s_%04d.png", l.Base, i))
}

// LayerXML is the record file of layer i.
func (l Layout) LayerXML(i int) string {
	return filepath.Join(l.XMLDir, fmt.Sprintf("%s_%04d.xml", l.Base, i))
}

// SceneXML is the record file listing every box.
func (l Layout) SceneXML() string {
	return filepath.Join(l.XMLDir, l.Base+"_bbox.xml")
}

// SceneMask is the identity mask of the flattened scene.
func (l Layout) SceneMask() string {
	return filepath.Join(l.MaskDir, l.Base+"_mask.png")
}

// ColorMask is the palette rendering of the scene.
func (l Layout) ColorMask() string {
	return filepath.Join(l.MaskDir, l.Base+"_color_mask.png")
}

// SmartMask is the instance-color rendering of the layers.
func (l Layout) SmartMask() string {
	return filepath.Join(l.MaskDir, l.Base+"_smart_mask.png")
}

// Document returns an empty document describing the source image.
func (l Layout) Document(width, height int) Document {
	return Document{
		Folder:   filepath.Base(filepath.Dir(l.ImagePath)),
		Filename: filepath.Base(l.ImagePath),
		Path:     l.ImagePath,
		Width:    width,
		Height:   height,
	}
}

// Layer is one persisted layer: its mask and the record of its box.
type Layer struct {
	Mask   *mask.Mask
	Record annotation.Record
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadLayers reads layers 0, 1, ... until the mask or the record of an index
// is missing.
func LoadLayers(l Layout) ([]Layer, error) {
	var layers []Layer
	for i := 0; i < MaxLayers; i++ {
		maskPath, xmlPath := l.LayerMask(i), l.LayerXML(i)
		if !exists(maskPath) || !exists(xmlPath) {
			if i > 0 || exists(maskPath) || exists(xmlPath) {
				logging.L().Info("layer discovery stopped",
					zap.Int("index", i),
					zap.Bool("mask", exists(maskPath)),
					zap.Bool("xml", exists(xmlPath)))
			}
			break
		}

		m, err := LoadMask(maskPath)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		doc, err := ReadAnnotation(xmlPath)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if len(doc.Records) == 0 {
			return nil, fmt.Errorf("layer %d: record has no object", i)
		}
		layers = append(layers, Layer{Mask: m, Record: doc.Records[0]})
	}
	return layers, nil
}

// SaveLayers writes layers as indices 0..len-1 and removes files left over
// from a previous save with more layers.
func SaveLayers(l Layout, layers []Layer) error {
	for i, layer := range layers {
		if err := SaveMask(layer.Mask, l.LayerMask(i)); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		doc := l.Document(layer.Mask.Width(), layer.Mask.Height())
		doc.Records = []annotation.Record{layer.Record}
		if err := WriteAnnotation(l.LayerXML(i), doc); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return pruneLayers(l, len(layers))
}

func pruneLayers(l Layout, from int) error {
	for i := from; i < MaxLayers; i++ {
		maskPath, xmlPath := l.LayerMask(i), l.LayerXML(i)
		if !exists(maskPath) && !exists(xmlPath) {
			return nil
		}
		for _, p := range []string{maskPath, xmlPath} {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("remove stale layer %d: %w", i, err)
			}
		}
		logging.L().Debug("removed stale layer", zap.Int("index", i))
	}
	return nil
}
