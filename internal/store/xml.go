package store

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ironsheep/mask-annotator-mcp/internal/annotation"
	"github.com/ironsheep/mask-annotator-mcp/internal/logging"
)

// ImageDepth is the channel count written to <size><depth>.
const ImageDepth = 3

// Document is the content of one annotation XML file.
type Document struct {
	Folder   string
	Filename string
	Path     string
	Width    int
	Height   int
	Records  []annotation.Record
}

type annotationXML struct {
	XMLName   xml.Name    `xml:"annotation"`
	Folder    string      `xml:"folder"`
	Filename  string      `xml:"filename"`
	Path      string      `xml:"path"`
	Source    sourceXML   `xml:"source"`
	Size      sizeXML     `xml:"size"`
	Segmented int         `xml:"segmented"`
	Objects   []objectXML `xml:"object"`
}

type sourceXML struct {
	Database string `xml:"database"`
}

type sizeXML struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

type objectXML struct {
	Name      string    `xml:"name"`
	Pose      string    `xml:"pose"`
	Truncated int       `xml:"truncated"`
	Difficult int       `xml:"difficult"`
	BndBox    bndBoxXML `xml:"bndbox"`

	// Older files put the instance color next to <bndbox>.
	MaskR *int `xml:"mask_r,omitempty"`
	MaskG *int `xml:"mask_g,omitempty"`
	MaskB *int `xml:"mask_b,omitempty"`
}

type bndBoxXML struct {
	XMin  int  `xml:"xmin"`
	YMin  int  `xml:"ymin"`
	XMax  int  `xml:"xmax"`
	YMax  int  `xml:"ymax"`
	MaskR *int `xml:"mask_r,omitempty"`
	MaskG *int `xml:"mask_g,omitempty"`
	MaskB *int `xml:"mask_b,omitempty"`
}

func toObject(r annotation.Record) objectXML {
	obj := objectXML{
		Name: r.Label,
		Pose: "Unspecified",
		BndBox: bndBoxXML{
			XMin: r.Min.X,
			YMin: r.Min.Y,
			XMax: r.Max.X,
			YMax: r.Max.Y,
		},
	}
	if r.Layered {
		red, green, blue := int(r.MaskColor.R), int(r.MaskColor.G), int(r.MaskColor.B)
		obj.BndBox.MaskR = &red
		obj.BndBox.MaskG = &green
		obj.BndBox.MaskB = &blue
	}
	return obj
}

func (o objectXML) record() annotation.Record {
	r := annotation.Record{
		Label: o.Name,
		Min:   image.Pt(o.BndBox.XMin, o.BndBox.YMin),
		Max:   image.Pt(o.BndBox.XMax, o.BndBox.YMax),
	}
	red, green, blue := o.BndBox.MaskR, o.BndBox.MaskG, o.BndBox.MaskB
	if red == nil && green == nil && blue == nil {
		red, green, blue = o.MaskR, o.MaskG, o.MaskB
	}
	if red != nil || green != nil || blue != nil {
		r.Layered = true
		r.MaskColor = color.RGBA{R: channel(red), G: channel(green), B: channel(blue), A: 0xff}
	}
	return r
}

func channel(v *int) uint8 {
	if v == nil {
		return 0
	}
	return uint8(*v)
}

// EncodeAnnotation writes doc as indented XML.
func EncodeAnnotation(w io.Writer, doc Document) error {
	a := annotationXML{
		Folder:   doc.Folder,
		Filename: doc.Filename,
		Path:     doc.Path,
		Source:   sourceXML{Database: "Unknown"},
		Size:     sizeXML{Width: doc.Width, Height: doc.Height, Depth: ImageDepth},
	}
	for _, r := range doc.Records {
		a.Objects = append(a.Objects, toObject(r))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode annotation: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// DecodeAnnotation parses an annotation XML document.
func DecodeAnnotation(r io.Reader) (Document, error) {
	var a annotationXML
	if err := xml.NewDecoder(r).Decode(&a); err != nil {
		return Document{}, fmt.Errorf("decode annotation: %w", err)
	}
	doc := Document{
		Folder:   a.Folder,
		Filename: a.Filename,
		Path:     a.Path,
		Width:    a.Size.Width,
		Height:   a.Size.Height,
	}
	for _, obj := range a.Objects {
		doc.Records = append(doc.Records, obj.record())
	}
	return doc, nil
}

// WriteAnnotation writes doc to path, creating parent directories.
func WriteAnnotation(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create annotation directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create annotation file: %w", err)
	}
	if err := EncodeAnnotation(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadAnnotation reads the document at path. A missing file returns an
// error wrapping fs.ErrNotExist.
func ReadAnnotation(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open annotation: %w", err)
	}
	defer f.Close()
	return DecodeAnnotation(f)
}

// LoadAnnotation is ReadAnnotation with a missing file read as an empty
// document.
func LoadAnnotation(path string) (Document, error) {
	doc, err := ReadAnnotation(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.L().Info("annotation file not found", zap.String("path", path))
		return Document{}, nil
	}
	return doc, err
}
