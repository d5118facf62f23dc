package terminal

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("terminal: aborted")
	// ErrTooManyAttempts is returned when a field stays invalid after the
	// configured number of prompts.
	ErrTooManyAttempts = errors.New("terminal: too many invalid attempts")
	// ErrUnpromptable is returned when the form is invalid because of fields
	// the session has no prompt for, such as fields without a text view.
	ErrUnpromptable = errors.New("terminal: invalid fields cannot be prompted")
)
