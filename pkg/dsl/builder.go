package dsl

import (
	"fmt"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/tree"
)

// Builder manages the tree construction.
type Builder struct {
	root  string
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a builder whose tree starts at root.
func New(root string) *Builder {
	return &Builder{
		root:  root,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Decision adds a decision node, or returns the existing builder for id.
func (b *Builder) Decision(id, title string) *NodeBuilder {
	return b.add(id, title, domain.NodeKindDecision)
}

// Terminal adds a terminal node, or returns the existing builder for id.
func (b *Builder) Terminal(id, title string) *NodeBuilder {
	return b.add(id, title, domain.NodeKindTerminal)
}

func (b *Builder) add(id, title string, kind domain.NodeKind) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		nb.def.Title, nb.def.Kind = title, kind
		return nb
	}
	nb := &NodeBuilder{
		def:     tree.NodeDefinition{ID: id, Title: title, Kind: kind},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Definition returns the tree definition in insertion order.
func (b *Builder) Definition() tree.Definition {
	def := tree.Definition{Root: b.root, Nodes: make([]tree.NodeDefinition, 0, len(b.order))}
	for _, id := range b.order {
		def.Nodes = append(def.Nodes, b.nodes[id].def)
	}
	return def
}

// Build validates the definition and compiles it into a Tree.
func (b *Builder) Build() (*tree.Tree, error) {
	t, err := tree.New(b.Definition())
	if err != nil {
		return nil, fmt.Errorf("failed to build tree: %w", err)
	}
	return t, nil
}

// MustBuild is like Build but panics on an invalid tree.
func (b *Builder) MustBuild() *tree.Tree {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
