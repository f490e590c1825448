package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/smartmeal/pkg/adapters/memory"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/navigator"
	"github.com/aretw0/smartmeal/pkg/session"
	"github.com/aretw0/smartmeal/pkg/tree"
)

func newController(t *testing.T) *session.Controller {
	t.Helper()
	tr, err := tree.New(tree.Definition{
		Root: "start",
		Nodes: []tree.NodeDefinition{
			{ID: "start", Kind: domain.NodeKindDecision, Title: "Which meal?", Icon: "🍽️", Children: []string{"breakfast", "dinner"}},
			{ID: "breakfast", Kind: domain.NodeKindDecision, Title: "Breakfast", Children: []string{"pancakes"}},
			{ID: "pancakes", Kind: domain.NodeKindTerminal, Title: "Pancakes", Ingredients: []string{"flour", "egg", "milk"}},
			{ID: "dinner", Kind: domain.NodeKindTerminal, Title: "Soup", Ingredients: []string{"carrot"}},
		},
	})
	require.NoError(t, err)
	catalog := memory.NewCatalog(
		[]domain.Ingredient{{ID: "flour", Name: "Flour"}, {ID: "egg", Name: "Egg"}, {ID: "milk", Name: "Milk"}},
		[]domain.Recipe{{ID: "1", Name: "Crepes", Ingredients: []string{"flour", "egg", "milk", "butter"}, Price: 4.5, Rating: 8}},
	)
	nav := navigator.New(tr, navigator.WithRecoveryDelay(time.Hour))
	c := session.NewController("cli", nav, match.NewSearcher(catalog))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestInterview_ReachesRecommendation(t *testing.T) {
	c := newController(t)
	var out bytes.Buffer

	err := NewInterview(strings.NewReader("1\n1\nq\n"), &out, Plain).Run(context.Background(), c)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "# 🍽️ Which meal?")
	assert.Contains(t, text, "1. Breakfast")
	assert.Contains(t, text, "_Which meal? › Breakfast › Pancakes_")
	assert.Contains(t, text, "- flour")
	assert.Contains(t, text, "| Crepes | 75% | 4.50 | 8 |")
	assert.Contains(t, text, "Enjoy your meal!")
	assert.Equal(t, domain.StateTerminal, c.Snapshot().State)
}

func TestInterview_InvalidChoiceKeepsPosition(t *testing.T) {
	c := newController(t)
	var out bytes.Buffer

	err := NewInterview(strings.NewReader("9\nlunch\n"), &out, Plain).Run(context.Background(), c)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `"9" is not one of the options`)
	assert.Contains(t, out.String(), `"lunch" is not one of the options`)
	snap := c.Snapshot()
	assert.Equal(t, domain.StateReady, snap.State)
	assert.Equal(t, "start", snap.Node.ID)
}

func TestInterview_ResetAndChooseByID(t *testing.T) {
	c := newController(t)
	var out bytes.Buffer

	err := NewInterview(strings.NewReader("dinner\nr\nbreakfast"), &out, Plain).Run(context.Background(), c)
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, "breakfast", snap.Node.ID)
	assert.Equal(t, []string{"Which meal?", "Breakfast"}, snap.Path)
}

func TestChoose(t *testing.T) {
	node := domain.NewDecisionNode("start", "Which?", "", "", domain.Option{ID: "a"}, domain.Option{ID: "b"})

	id, ok := choose(&node, "2")
	assert.True(t, ok)
	assert.Equal(t, "b", id)

	id, ok = choose(&node, "a")
	assert.True(t, ok)
	assert.Equal(t, "a", id)

	_, ok = choose(&node, "0")
	assert.False(t, ok)
	_, ok = choose(nil, "1")
	assert.False(t, ok)

	leaf := domain.NewTerminalNode("leaf", "Leaf", "", "", "rice")
	_, ok = choose(&leaf, "1")
	assert.False(t, ok)
}

func TestMatchMarkdown(t *testing.T) {
	md := MatchMarkdown(domain.MatchSet{
		Complete:     []domain.MatchResult{{Recipe: domain.Recipe{Name: "Toast"}, Score: 100, Available: 2, Total: 2}},
		NearComplete: []domain.MatchResult{{Recipe: domain.Recipe{Name: "Omelette"}, Score: 75, Available: 3, Total: 4, Missing: []string{"cheese"}}},
	})
	assert.Contains(t, md, "## Ready to cook")
	assert.Contains(t, md, "- **Toast** 100% (2/2)")
	assert.Contains(t, md, "- **Omelette** 75% (3/4), missing: cheese")
	assert.NotContains(t, md, "Needs shopping")

	assert.Contains(t, MatchMarkdown(domain.MatchSet{}), "No recipes found")
}

func TestErrorMarkdown(t *testing.T) {
	md := ErrorMarkdown(domain.SessionSnapshot{State: domain.StateError, LastError: domain.KindTimeout, LastErrorText: "slow", RecoveryPending: true})
	assert.Contains(t, md, "(timeout): slow")
	assert.Contains(t, md, "Returning to the first question")
}
