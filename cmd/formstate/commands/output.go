package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const secretMask = "********"

type outputFormat string

const (
	outputYAML outputFormat = "yaml"
	outputJSON outputFormat = "json"
)

func parseOutput(raw string) (outputFormat, error) {
	switch outputFormat(raw) {
	case "", outputYAML:
		return outputYAML, nil
	case outputJSON:
		return outputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want yaml or json)", raw)
	}
}

func encode(out io.Writer, format outputFormat, v any) error {
	if format == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// maskValues replaces the value of every non-empty secret field, at any
// depth, with secretMask.
func maskValues(values map[string]any, secrets map[string]bool) map[string]any {
	return formstate.MaskSecrets(values, secrets, secretMask)
}

// maskNode masks secret fields of a Describe tree rooted at the loaded group.
// Paths are relative to the root, so the root's own name is not part of them.
func maskNode(node schema.Node, secrets map[string]bool) schema.Node {
	for i, child := range node.Children {
		node.Children[i] = maskNodeAt(child, secrets, child.Name)
	}
	return node
}

func maskNodeAt(node schema.Node, secrets map[string]bool, path string) schema.Node {
	if node.Kind == schema.KindField && secrets[path] {
		if node.View != nil && *node.View != "" {
			masked := secretMask
			node.View = &masked
		}
		if node.Value != nil && node.Value != "" {
			node.Value = secretMask
		}
	}
	for i, child := range node.Children {
		node.Children[i] = maskNodeAt(child, secrets, path+"."+child.Name)
	}
	return node
}
