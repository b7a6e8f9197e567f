// Package annotation holds the in-memory annotation state of one image: the
// flattened scene mask, the draft layer being painted, the ordered list of
// bounding boxes and the per-instance layer masks they are paired with.
//
// # Bounding Boxes
//
// A BoundingBox stores inclusive pixel coordinates in min/max form. Every
// constructor and mutator keeps Min <= Max componentwise. Corners are named
// in screen orientation (Y grows downward):
//
//	TopLeft (Min.X,Min.Y) ------- TopRight (Max.X,Min.Y)
//	     |                               |
//	BottomLeft (Min.X,Max.Y) ---- BottomRight (Max.X,Max.Y)
//
// CornerHitTest reports the corner under the pointer and Resize moves that
// same corner, leaving the diagonally opposite corner fixed. A resize that
// drags a corner across its anchor renormalises the box and flips
// SelectedCorner so the pointer keeps holding the corner it is on.
//
// # Layers
//
// Layers live in an arena keyed by LayerID. A box owns at most one layer
// through its Layer field; pairing is by key, never by position, so boxes
// may be inserted or removed anywhere in the list.
//
// # Derivation
//
// DeriveBoundingBox computes the tightest box around every pixel of a target
// color with four boundary scans. A raster without the color yields
// ErrColorNotFound rather than a box covering the whole raster.
package annotation
