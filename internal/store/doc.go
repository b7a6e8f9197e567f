// Package store persists annotation state on disk.
//
// Three kinds of files are involved, all resolved through a Layout built from
// the source image path:
//
//   - Annotation records: Pascal VOC style XML with one <object> per box.
//     Layered boxes carry their instance color as <mask_r>, <mask_g> and
//     <mask_b> inside <bndbox>.
//   - Layer files: <base>_%04d.png holds one layer as an identity mask and
//     <base>_%04d.xml holds its single record. Layers are discovered by
//     probing indices from 0 until either file is missing.
//   - Scene rasters: <base>_mask.png (identity), <base>_color_mask.png
//     (palette colors) and <base>_smart_mask.png (instance colors).
//
// Identity masks store the label id in all three color channels so they can
// be read back losslessly with mask.FromIdentity.
//
// A missing annotation or layer file is not an error: it is logged and read
// as "no boxes" or "no more layers".
package store
