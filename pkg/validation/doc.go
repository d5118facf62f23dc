// Package validation provides the validator primitives consumed by form
// fields. A Validator pairs a rule key with a predicate; fields run every
// registered validator against the parsed candidate value and record the
// outcome per key, so render layers can surface one message per failed rule.
//
// Validators built with New short-circuit on empty input (nil, nil pointers
// and zero-length strings, slices, maps). Required is the only built-in that
// inspects empty values, which keeps presence checks in one rule while the
// length, pattern and numeric rules stay silent on blank fields.
package validation
