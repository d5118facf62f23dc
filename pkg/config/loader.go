// Package config loads form definitions from YAML (or JSON) files.
//
// A definition file holds one form and optional message templates:
//
//	form:
//	  name: signup
//	  fields:
//	    - name: email
//	      required: true
//	      tags: [email]
//	messages:
//	  required: "{{ label }} cannot be blank"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/schema"
)

// Definition is a parsed definition file.
type Definition struct {
	Form     schema.Form       `yaml:"form"`
	Messages map[string]string `yaml:"messages,omitempty"`
	// Source is the location the definition was read from.
	Source string `yaml:"-"`
}

// Parse decodes a definition held in memory.
func Parse(data []byte) (Definition, error) {
	doc, err := schema.NewDocument(schema.Inline(""), data)
	if err != nil {
		return Definition{}, fmt.Errorf("config: %w", err)
	}
	return ParseDocument(doc)
}

// ParseDocument decodes doc and checks the form it defines. Unknown keys are
// rejected so typos surface early.
func ParseDocument(doc schema.Document) (Definition, error) {
	source := doc.Location()
	raw := doc.Raw()
	if len(bytes.TrimSpace(raw)) == 0 {
		return Definition{}, fmt.Errorf("config: file %s is empty", source)
	}

	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, fmt.Errorf("config: file %s is empty", source)
		}
		return Definition{}, fmt.Errorf("config: parse %s: %w", source, err)
	}
	def.Source = source
	if err := Check(def.Form); err != nil {
		return Definition{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return def, nil
}

// Load reads and parses path from fsys.
func Load(fsys fs.FS, path string) (Definition, error) {
	doc, err := schema.ReadFS(fsys, path)
	if err != nil {
		return Definition{}, fmt.Errorf("config: %w", err)
	}
	return ParseDocument(doc)
}

// LoadFile reads and parses a definition from disk.
func LoadFile(path string) (Definition, error) {
	doc, err := schema.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("config: %w", err)
	}
	return ParseDocument(doc)
}

// Check reports the first structural problem in def: an empty name or an
// unsupported field type.
func Check(def schema.Form) error {
	return check(def, "")
}

func check(def schema.Form, path string) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		if path == "" {
			return fmt.Errorf("%w: form", schema.ErrEmptyName)
		}
		return fmt.Errorf("%w: group in %s", schema.ErrEmptyName, path)
	}
	if path != "" {
		name = path + "." + name
	}
	for i, field := range def.Fields {
		if strings.TrimSpace(field.Name) == "" {
			return fmt.Errorf("%w: field #%d in %s", schema.ErrEmptyName, i+1, name)
		}
		if !schema.KnownType(field.Type) {
			return fmt.Errorf("%w %q for %s.%s", schema.ErrUnknownType, field.Type, name, field.Name)
		}
	}
	for _, group := range def.Groups {
		if err := check(group, name); err != nil {
			return err
		}
	}
	return nil
}

// Store indexes definitions by form name.
type Store struct {
	definitions map[string]Definition
}

// LoadFS walks fsys and parses every .yaml, .yml and .json file. Two files
// defining the same form name are an error.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{definitions: make(map[string]Definition)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		def, err := Load(fsys, path)
		if err != nil {
			return err
		}
		name := def.Form.Name
		if prev, exists := store.definitions[name]; exists {
			return fmt.Errorf("config: duplicate form %q (files %s and %s)", name, prev.Source, path)
		}
		store.definitions[name] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Definition returns the definition of the form called name.
func (s *Store) Definition(name string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	def, ok := s.definitions[name]
	return def, ok
}

// Names lists the known form names in sorted order.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.definitions))
	for name := range s.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
