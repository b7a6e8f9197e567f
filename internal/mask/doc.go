// Package mask implements the per-pixel label raster used for annotation.
//
// A Mask stores one label id (0-255) per pixel. Id 0 is background. The
// display color of a pixel is never stored: it is computed on demand from the
// id through a Palette, so the identity and color views of a mask cannot
// drift apart.
//
// # Coordinate System
//
// Coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. Writes outside the raster are ignored;
// reads outside the raster return background.
//
// # Encodings
//
// Two image encodings are used when a mask leaves memory:
//   - Identity image: each pixel is (id, id, id), the on-disk mask format.
//   - Color image: each pixel is the palette color of its id.
//
// A third encoding, the instance color, packs a semantic label and an
// instance index into one RGB triplet (see SmartInstanceColor) so that
// same-class instances can be separated downstream.
//
// # Undo Support
//
// Diff records the signed per-pixel change between two masks of equal size.
// Applying and removing a Diff is plain integer arithmetic with no clipping,
// so diffs of disjoint edits compose and replay exactly.
package mask
