package dsl

import "github.com/aretw0/smartmeal/pkg/tree"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	def     tree.NodeDefinition
	builder *Builder
}

// Description sets the subtitle shown with the node and its option.
func (n *NodeBuilder) Description(text string) *NodeBuilder {
	n.def.Description = text
	return n
}

// Icon sets the decorative icon.
func (n *NodeBuilder) Icon(icon string) *NodeBuilder {
	n.def.Icon = icon
	return n
}

// Children appends options to a decision node, in presentation order.
func (n *NodeBuilder) Children(ids ...string) *NodeBuilder {
	n.def.Children = append(n.def.Children, ids...)
	return n
}

// Ingredients sets the recipe of a terminal node.
func (n *NodeBuilder) Ingredients(ids ...string) *NodeBuilder {
	n.def.Ingredients = append(n.def.Ingredients, ids...)
	return n
}

// End returns to the parent builder to chain further nodes.
func (n *NodeBuilder) End() *Builder {
	return n.builder
}
