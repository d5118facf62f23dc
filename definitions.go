package formstate

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-formstate/pkg/config"
)

//go:embed examples/definitions/*.yaml
var embeddedDefinitions embed.FS

// DefinitionsFS exposes the bundled example definitions (committed under
// examples/definitions) so binaries and tests can load them without touching
// the working directory.
//
// Typical use:
//
//	store, err := config.LoadFS(formstate.DefinitionsFS())
func DefinitionsFS() fs.FS {
	sub, err := fs.Sub(embeddedDefinitions, "examples/definitions")
	if err != nil {
		return embeddedDefinitions
	}
	return sub
}

// Examples indexes the bundled definitions by form name.
func Examples() (*config.Store, error) {
	return config.LoadFS(DefinitionsFS())
}
