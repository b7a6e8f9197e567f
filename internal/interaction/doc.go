// Package interaction turns pointer and key events into edits of an
// annotation.State.
//
// Machine is a finite state machine. Handle takes the state and one event,
// mutates the state in place and returns the operations completed by that
// event, ready to be committed to a history.Manager. It never touches the
// history itself.
//
// # Modes
//
//	Idle           painting, filling, selecting or starting a new box
//	BoxSelected    one box is selected and can be grabbed
//	BoxMoving      the selected box follows the pointer
//	BoxResizing    the grabbed corner follows the pointer
//	BoxCreating    a new box is being dragged out from the anchor
//	BoxUnselecting the box was released; waiting for pointer-up
//
// Painting, filling and box gestures require a current label. Without one,
// those events are no-ops.
//
// Callers that change the state outside Handle, such as an undo, call Settle
// first. It rolls back a half-painted stroke and reports the Change of a box
// that was moved but not yet released.
package interaction
