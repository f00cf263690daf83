package conditions

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadTree decodes a YAML condition tree and builds it with r
func LoadTree(b []byte, r *LeafRegistry) (Condition, error) {
	var n Node
	if err := yaml.Unmarshal(b, &n); err != nil {
		return nil, err
	}
	return BuildNode(&n, r)
}

// BuildNode builds a condition from its declarative form
func BuildNode(n *Node, r *LeafRegistry) (Condition, error) {
	if n == nil {
		return nil, errInvalidNode
	}
	var set int
	if len(n.And) > 0 {
		set++
	}
	if len(n.Or) > 0 {
		set++
	}
	if n.Not != nil {
		set++
	}
	if n.Leaf != "" {
		set++
	}
	if set != 1 {
		if set == 0 && (n.And != nil || n.Or != nil) {
			return nil, errEmptyCombinator
		}
		return nil, errInvalidNode
	}
	switch {
	case n.Leaf != "":
		return r.New(n.Leaf, n.Params)
	case n.Not != nil:
		child, err := BuildNode(n.Not, r)
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return Not(child), nil
	case len(n.And) > 0:
		children, err := buildChildren(n.And, r)
		if err != nil {
			return nil, fmt.Errorf("and: %w", err)
		}
		return And(children...), nil
	default:
		children, err := buildChildren(n.Or, r)
		if err != nil {
			return nil, fmt.Errorf("or: %w", err)
		}
		return Or(children...), nil
	}
}

func buildChildren(nodes []*Node, r *LeafRegistry) ([]Condition, error) {
	resp := make([]Condition, len(nodes))
	for i := range nodes {
		c, err := BuildNode(nodes[i], r)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		resp[i] = c
	}
	return resp, nil
}
