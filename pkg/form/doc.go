// Package form holds the state model for fields and groups of fields.
//
// A FieldState tracks one input: the view value the user edits, the model
// value that last passed validation, and the interaction flags (dirty,
// touched, validating). Validation runs every registered validator
// concurrently against the parsed view value, joins the results and only then
// commits the verdict, the per-rule error map and, when every rule passed,
// the new model value.
//
// A Group composes fields and nested groups through the FormObject interface.
// Its valid/dirty/touched/validating flags and its value map are recomputed
// from the current children on every read, so attaching or removing a child
// takes effect immediately.
//
// Render layers find their enclosing group through the context: WithGroup
// stores it, Mount attaches a field to it and returns the matching Unmount.
// State changes are published to Subscribe listeners; groups re-emit the
// events of their children.
package form
