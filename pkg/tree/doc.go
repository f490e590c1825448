// Package tree implements an in-process decision tree that serves as a Tree Provider.
//
// Trees are declared in YAML or JSON with an explicit kind per node and are fully
// validated at load time, so navigation never meets a malformed node.
package tree
