package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeKind discriminates the two node variants of the decision tree.
type NodeKind string

const (
	// NodeKindDecision is a question: it carries options and no ingredients.
	NodeKindDecision NodeKind = "decision"
	// NodeKindTerminal is a recommendation: it carries ingredients and no options.
	NodeKindTerminal NodeKind = "terminal"
)

// Option summarizes a child of a decision node.
type Option struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// TreeNode is one step of the guided interview.
// The variant is always given by Kind, never inferred from which fields are set.
type TreeNode struct {
	ID          string   `json:"id"`
	Kind        NodeKind `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`

	// Terminal only.
	Ingredients []string `json:"ingredients,omitempty"`
	// Decision only.
	Options []Option `json:"options,omitempty"`
}

// NewDecisionNode builds a question node.
func NewDecisionNode(id, title, description, icon string, options ...Option) TreeNode {
	return TreeNode{ID: id, Kind: NodeKindDecision, Title: title, Description: description, Icon: icon, Options: options}
}

// NewTerminalNode builds a recommendation node.
func NewTerminalNode(id, title, description, icon string, ingredients ...string) TreeNode {
	return TreeNode{ID: id, Kind: NodeKindTerminal, Title: title, Description: description, Icon: icon, Ingredients: ingredients}
}

// Terminal reports whether the node is a recommendation.
func (n TreeNode) Terminal() bool {
	return n.Kind == NodeKindTerminal
}

// Summary returns the option summary other nodes use to point at n.
func (n TreeNode) Summary() Option {
	return Option{ID: n.ID, Title: n.Title, Icon: n.Icon, Description: n.Description}
}

// HasOption reports whether id is among the node's current children.
func (n TreeNode) HasOption(id string) bool {
	for _, o := range n.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Validate enforces the variant rules.
func (n TreeNode) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return fmt.Errorf("node %q: missing id", n.Title)
	}
	switch n.Kind {
	case NodeKindDecision:
		if len(n.Ingredients) > 0 {
			return fmt.Errorf("node %s: decision node cannot carry ingredients", n.ID)
		}
		if len(n.Options) == 0 {
			return fmt.Errorf("node %s: decision node has no options", n.ID)
		}
	case NodeKindTerminal:
		if len(n.Options) > 0 {
			return fmt.Errorf("node %s: terminal node cannot have options", n.ID)
		}
		if len(n.Ingredients) == 0 {
			return fmt.Errorf("node %s: terminal node has no ingredients", n.ID)
		}
	default:
		return fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
	}
	return nil
}

// UnmarshalJSON rejects nodes without an explicit, known kind.
func (n *TreeNode) UnmarshalJSON(data []byte) error {
	type plain TreeNode
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Kind != NodeKindDecision && p.Kind != NodeKindTerminal {
		return fmt.Errorf("node %s: missing or unknown kind %q", p.ID, p.Kind)
	}
	*n = TreeNode(p)
	return nil
}

// TreeView is what the Tree Provider returns for start and navigate.
type TreeView struct {
	Node TreeNode `json:"node"`
	// Path holds the titles from the root to Node, as reported by the provider.
	Path []string `json:"path"`
}

// HealthStatus is the result of a liveness probe.
type HealthStatus string

const (
	HealthOK    HealthStatus = "OK"
	HealthWarn  HealthStatus = "WARN"
	HealthError HealthStatus = "ERROR"
)

// Valid reports whether s is a known status.
func (s HealthStatus) Valid() bool {
	return s == HealthOK || s == HealthWarn || s == HealthError
}
