// Package history implements linear undo/redo over annotation edits.
//
// Operations are plain values. Apply replays an operation against an
// annotation.State and Invert reverts it; neither holds a reference to the
// state between calls. Boxes are addressed by id, so operations stay valid
// when unrelated boxes are inserted or removed around them.
//
// Manager keeps the operation list, a cursor and a baseline copy of the
// state taken after every commit, undo and redo. Raster edits are stored as
// mask.Diff values computed against that baseline.
package history
