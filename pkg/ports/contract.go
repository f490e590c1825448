package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSnapshot := func(id string) *domain.SessionSnapshot {
		node := domain.NewTerminalNode("salad", "Salad", "Fresh", "🥗", "lettuce", "tomato")
		pantry := domain.NewPantry()
		_ = pantry.Select("tomato")
		_ = pantry.Rate("tomato", 8)
		return &domain.SessionSnapshot{
			SessionID: id,
			State:     domain.StateTerminal,
			Node:      &node,
			Path:      []string{"Start", "Vegetarian", "Salad"},
			Terminal:  true,
			Pantry:    pantry,
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnapshot(sessionID)

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.State, loaded.State)
		assert.Equal(t, snap.Path, loaded.Path)
		assert.True(t, loaded.Terminal)
		require.NotNil(t, loaded.Node)
		assert.Equal(t, domain.NodeKindTerminal, loaded.Node.Kind)
		assert.Equal(t, []string{"lettuce", "tomato"}, loaded.Node.Ingredients)
		require.NotNil(t, loaded.Pantry)
		assert.Equal(t, []string{"tomato"}, loaded.Pantry.SelectedIDs())
		assert.Equal(t, 8, loaded.Pantry.Ratings["tomato"])
		assert.True(t, snap.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, newSnapshot(id1)))
		require.NoError(t, store.Save(ctx, id2, newSnapshot(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunTreeProviderContract verifies that a TreeProvider serves a well-formed tree.
// The provider must expose a decision root.
func RunTreeProviderContract(t *testing.T, provider TreeProvider) {
	t.Helper()
	ctx := context.Background()

	t.Run("Start", func(t *testing.T) {
		view, err := provider.Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.NodeKindDecision, view.Node.Kind)
		assert.NotEmpty(t, view.Node.Options)
		assert.Equal(t, []string{view.Node.Title}, view.Path)
	})

	t.Run("Navigate extends path by one", func(t *testing.T) {
		root, err := provider.Start(ctx)
		require.NoError(t, err)
		opt := root.Node.Options[0]

		view, err := provider.Navigate(ctx, opt.ID)
		require.NoError(t, err)
		assert.Equal(t, opt.ID, view.Node.ID)
		assert.Equal(t, opt.Title, view.Node.Title)
		assert.Equal(t, append(root.Path, view.Node.Title), view.Path)
		assert.NoError(t, view.Node.Validate())
	})

	t.Run("Navigate unknown node", func(t *testing.T) {
		_, err := provider.Navigate(ctx, "no-such-node-"+time.Now().Format("150405"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Health", func(t *testing.T) {
		status, err := provider.Health(ctx)
		require.NoError(t, err)
		assert.True(t, status.Valid())
	})
}
