package transform

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formstate/pkg/form"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

func sanitizer() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// Sanitize strips every HTML element from raw and returns plain text.
func Sanitize(raw string) string {
	cleaned := sanitizer().Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// Sanitized is a string transform whose parser drops markup, so validators
// and the model only ever see plain text.
func Sanitized() *form.Transform[string, string] {
	return Compose(Sanitize, Identity[string]())
}
