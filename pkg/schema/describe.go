package schema

import (
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Node is a read-only snapshot of a form object, suitable for YAML or JSON
// output.
type Node struct {
	Name     string          `yaml:"name" json:"name"`
	Kind     string          `yaml:"kind" json:"kind"`
	Valid    bool            `yaml:"valid" json:"valid"`
	Dirty    bool            `yaml:"dirty" json:"dirty"`
	Touched  bool            `yaml:"touched" json:"touched"`
	View     *string         `yaml:"view,omitempty" json:"view,omitempty"`
	Value    any             `yaml:"value,omitempty" json:"value,omitempty"`
	Rules    []RuleNode      `yaml:"rules,omitempty" json:"rules,omitempty"`
	Errors   map[string]bool `yaml:"errors,omitempty" json:"errors,omitempty"`
	Children []Node          `yaml:"children,omitempty" json:"children,omitempty"`
}

type RuleNode struct {
	Key    string         `yaml:"key" json:"key"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

const (
	KindGroup = "group"
	KindField = "field"
)

// Describe snapshots obj and, for groups, every attached descendant.
func Describe(obj form.FormObject) Node {
	node := Node{
		Name:    obj.Name(),
		Valid:   obj.Valid(),
		Dirty:   obj.Dirty(),
		Touched: obj.Touched(),
	}
	if g, ok := obj.(*form.Group); ok {
		node.Kind = KindGroup
		for _, child := range g.Fields() {
			node.Children = append(node.Children, Describe(child))
		}
		return node
	}

	node.Kind = KindField
	node.Value = obj.Value()
	if ctl, ok := obj.(form.Control[string]); ok {
		view := ctl.ViewValue()
		node.View = &view
		node.Errors = ctl.Error()
	}
	if rs, ok := obj.(form.RuleSet); ok {
		node.Rules = ruleNodes(rs.Rules())
	}
	return node
}

func ruleNodes(rules []validation.Rule) []RuleNode {
	out := make([]RuleNode, 0, len(rules))
	for _, r := range rules {
		out = append(out, RuleNode{Key: r.Key, Params: r.Params})
	}
	return out
}
