package ports

import (
	"context"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// TreeProvider exposes a decision tree, usually remote.
type TreeProvider interface {
	// Start returns the root node with a path of length one.
	Start(ctx context.Context) (domain.TreeView, error)

	// Navigate returns the node identified by nodeID and the path from the root to it.
	// Returns an error matching domain.ErrNotFound for unknown nodes.
	Navigate(ctx context.Context, nodeID string) (domain.TreeView, error)

	// Health probes the provider without changing any state.
	Health(ctx context.Context) (domain.HealthStatus, error)
}
