package tree

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// Tree is an immutable, validated decision tree held in memory.
// It implements ports.TreeProvider and is safe for concurrent use.
type Tree struct {
	root   string
	nodes  map[string]domain.TreeNode
	parent map[string]string
	order  []string
}

// New validates a definition and builds the tree.
//
// Every node except the root must have exactly one parent, every node must be
// reachable from the root, decision nodes need children and terminal nodes need
// ingredients.
func New(def Definition) (*Tree, error) {
	t := &Tree{
		root:   def.Root,
		nodes:  make(map[string]domain.TreeNode, len(def.Nodes)),
		parent: make(map[string]string, len(def.Nodes)),
	}
	byID := make(map[string]NodeDefinition, len(def.Nodes))
	for _, n := range def.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node %q: missing id", n.Title)
		}
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("node %s: duplicate id", n.ID)
		}
		if n.Kind != domain.NodeKindDecision && n.Kind != domain.NodeKindTerminal {
			return nil, fmt.Errorf("node %s: missing or unknown kind %q", n.ID, n.Kind)
		}
		byID[n.ID] = n
		t.order = append(t.order, n.ID)
	}
	if _, ok := byID[def.Root]; !ok {
		return nil, fmt.Errorf("root %q not defined", def.Root)
	}

	var errs []error
	for _, id := range t.order {
		n := byID[id]
		node := domain.TreeNode{
			ID:          n.ID,
			Kind:        n.Kind,
			Title:       n.Title,
			Description: n.Description,
			Icon:        n.Icon,
			Ingredients: n.Ingredients,
		}
		for _, childID := range n.Children {
			child, ok := byID[childID]
			if !ok {
				errs = append(errs, fmt.Errorf("node %s: unknown child %s", id, childID))
				continue
			}
			if childID == def.Root {
				errs = append(errs, fmt.Errorf("node %s: root cannot be a child", id))
				continue
			}
			if p, taken := t.parent[childID]; taken {
				errs = append(errs, fmt.Errorf("node %s: already a child of %s", childID, p))
				continue
			}
			t.parent[childID] = id
			node.Options = append(node.Options, domain.Option{
				ID:          child.ID,
				Title:       child.Title,
				Icon:        child.Icon,
				Description: child.Description,
			})
		}
		if err := node.Validate(); err != nil {
			errs = append(errs, err)
		}
		t.nodes[id] = node
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Single parents and a parentless root leave only detached cycles to reject.
	for _, id := range t.order {
		if _, err := t.pathTo(id); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tree) pathTo(id string) ([]string, error) {
	path := []string{t.nodes[id].Title}
	seen := map[string]bool{id: true}
	for cur := id; cur != t.root; {
		p, ok := t.parent[cur]
		if !ok || seen[p] {
			return nil, fmt.Errorf("node %s: not reachable from root %s", id, t.root)
		}
		seen[p] = true
		path = append(path, t.nodes[p].Title)
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Root returns the root ID.
func (t *Tree) Root() string {
	return t.root
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns a node by ID.
func (t *Tree) Node(id string) (domain.TreeNode, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Start returns the root view.
func (t *Tree) Start(ctx context.Context) (domain.TreeView, error) {
	return t.Navigate(ctx, t.root)
}

// Navigate returns any node by ID with its path from the root.
func (t *Tree) Navigate(ctx context.Context, nodeID string) (domain.TreeView, error) {
	if err := ctx.Err(); err != nil {
		return domain.TreeView{}, domain.Classify("navigate", err)
	}
	node, ok := t.nodes[nodeID]
	if !ok {
		return domain.TreeView{}, domain.Errorf(domain.KindNotFound, "navigate", "node %s", nodeID)
	}
	path, err := t.pathTo(nodeID)
	if err != nil {
		return domain.TreeView{}, domain.NewError(domain.KindServerError, "navigate", err)
	}
	return domain.TreeView{Node: cloneNode(node), Path: path}, nil
}

// Health always reports OK for an in-memory tree.
func (t *Tree) Health(ctx context.Context) (domain.HealthStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.HealthError, err
	}
	return domain.HealthOK, nil
}

// Options returns the child summaries of a node. Terminal nodes have none.
func (t *Tree) Options(nodeID string) ([]domain.Option, error) {
	node, ok := t.nodes[nodeID]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "options", "node %s", nodeID)
	}
	return append([]domain.Option{}, node.Options...), nil
}

// Structure is the full nested shape of the tree, for debugging and introspection.
type Structure struct {
	Root       StructureNode `json:"root"`
	TotalNodes int           `json:"total_nodes"`
	Terminals  int           `json:"terminals"`
	Depth      int           `json:"depth"`
}

// StructureNode is a node in Structure.
type StructureNode struct {
	ID          string          `json:"id"`
	Kind        domain.NodeKind `json:"kind"`
	Title       string          `json:"title"`
	Ingredients []string        `json:"ingredients,omitempty"`
	Children    []StructureNode `json:"children,omitempty"`
}

// Structure walks the whole tree from the root.
func (t *Tree) Structure() Structure {
	s := Structure{TotalNodes: len(t.nodes)}
	var walk func(id string, depth int) StructureNode
	walk = func(id string, depth int) StructureNode {
		n := t.nodes[id]
		if depth > s.Depth {
			s.Depth = depth
		}
		out := StructureNode{ID: n.ID, Kind: n.Kind, Title: n.Title, Ingredients: n.Ingredients}
		if n.Terminal() {
			s.Terminals++
		}
		for _, o := range n.Options {
			out.Children = append(out.Children, walk(o.ID, depth+1))
		}
		return out
	}
	s.Root = walk(t.root, 1)
	return s
}

// Terminals lists every terminal node ID in ascending order.
func (t *Tree) Terminals() []string {
	var ids []string
	for id, n := range t.nodes {
		if n.Terminal() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func cloneNode(n domain.TreeNode) domain.TreeNode {
	n.Options = append([]domain.Option(nil), n.Options...)
	n.Ingredients = append([]string(nil), n.Ingredients...)
	return n
}
