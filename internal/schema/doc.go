// Package schema validates course documents before they enter the
// normalized store or the local backend.
//
// A course document is the wire shape of a full course: course fields
// with modules, lessons and resources nested in authored order. The
// structural constraints (required fields, enumerated lesson types and
// access levels, non-negative prices) live in an embedded CUE schema;
// checks CUE cannot express cleanly, such as identifier uniqueness
// across the whole tree and parent reference agreement, run in Go on
// top of it.
//
// Validation never fails fast. Every violation found is returned so a
// caller can report them all at once.
package schema
