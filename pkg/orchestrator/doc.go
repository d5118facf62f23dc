// Package orchestrator wires the definition → transformer → builder →
// catalog pipeline, so callers get a live form group ready for a binding from
// a single Load call.
package orchestrator
