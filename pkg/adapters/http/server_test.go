package http

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/smartmeal/pkg/adapters/memory"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/navigator"
	"github.com/aretw0/smartmeal/pkg/session"
	"github.com/aretw0/smartmeal/pkg/tree"
)

func fixtureTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr, err := tree.New(tree.Definition{
		Root: "root",
		Nodes: []tree.NodeDefinition{
			{ID: "root", Kind: domain.NodeKindDecision, Title: "Root", Children: []string{"veg", "meat"}},
			{ID: "veg", Kind: domain.NodeKindDecision, Title: "Vegetarian", Children: []string{"salad"}},
			{ID: "meat", Kind: domain.NodeKindTerminal, Title: "Steak", Ingredients: []string{"beef", "salt"}},
			{ID: "salad", Kind: domain.NodeKindTerminal, Title: "Salad", Ingredients: []string{"lettuce", "tomato"}},
		},
	})
	require.NoError(t, err)
	return tr
}

func fixtureCatalog() *memory.Catalog {
	return memory.NewCatalog(
		[]domain.Ingredient{
			{ID: "tomato", Name: "Tomato"}, {ID: "mozzarella", Name: "Mozzarella"}, {ID: "basil", Name: "Basil"},
			{ID: "onion", Name: "Onion"}, {ID: "beef", Name: "Beef"}, {ID: "salt", Name: "Salt"},
		},
		[]domain.Recipe{
			{ID: "1", Name: "Caprese", Ingredients: []string{"tomato", "mozzarella", "basil"}, Price: 12, Rating: 8},
			{ID: "2", Name: "Tomato soup", Ingredients: []string{"tomato", "onion"}, Price: 9, Rating: 7},
			{ID: "3", Name: "Steak", Ingredients: []string{"beef", "salt"}, Price: 21, Rating: 9},
		},
	)
}

func newTestHandler(t *testing.T, mutate ...func(*Config)) http.Handler {
	t.Helper()
	tr := fixtureTree(t)
	catalog := fixtureCatalog()
	searcher := match.NewSearcher(catalog)
	factory := func(id string, opts ...navigator.Option) *navigator.Navigator {
		return navigator.New(tr, append([]navigator.Option{navigator.WithRecoveryDelay(time.Hour)}, opts...)...)
	}
	mgr := session.NewManager(memory.NewStore(), searcher, factory)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	cfg := Config{Searcher: searcher, Catalog: catalog, Tree: tr, Sessions: mgr, Version: "test"}
	for _, fn := range mutate {
		fn(&cfg)
	}
	h, err := NewHandler(cfg)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeAs[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSpecIsValid(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "SmartMeal API", doc.Info.Title)
}

func TestStatusMapping(t *testing.T) {
	kinds := []domain.ErrorKind{
		domain.KindInvalidInput, domain.KindNotFound, domain.KindInvalidState,
		domain.KindTimeout, domain.KindServerError,
	}
	for _, k := range kinds {
		assert.Equal(t, k, KindForStatus(StatusFor(k)), k)
	}
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(domain.KindCatalogUnavailable))
	assert.Equal(t, domain.KindConnectFailed, KindForStatus(StatusFor(domain.KindConnectFailed)))
}

func TestHealthAndSpec(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HealthResponse{Status: "ok", Version: "test"}, decodeAs[HealthResponse](t, w))

	w = do(t, h, "GET", "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestSearch(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/search", map[string]any{"ingredients": []string{"Tomato", "mozzarella", "basil"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	set := decodeAs[domain.MatchSet](t, w)
	require.Len(t, set.Complete, 1)
	assert.Equal(t, "1", set.Complete[0].Recipe.ID)
	assert.Equal(t, 100, set.Complete[0].Score)
	assert.Equal(t, 3, set.Len())
}

func TestSearch_InvalidInput(t *testing.T) {
	h := newTestHandler(t)

	cases := map[string]any{
		"empty selection":   map[string]any{"ingredients": []string{}},
		"missing field":     map[string]any{},
		"threshold too big": map[string]any{"ingredients": []string{"tomato"}, "threshold": 1.5},
		"threshold zero":    map[string]any{"ingredients": []string{"tomato"}, "threshold": 0},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, "POST", "/search", body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, domain.KindInvalidInput, decodeAs[ErrorResponse](t, w).Error.Kind)
		})
	}
}

func TestTreeEndpoints(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/tree/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeAs[domain.TreeView](t, w)
	assert.Equal(t, "root", view.Node.ID)
	assert.Equal(t, []string{"Root"}, view.Path)

	w = do(t, h, "GET", "/tree/navigate/salad", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeAs[domain.TreeView](t, w)
	assert.True(t, view.Node.Terminal())
	assert.Equal(t, []string{"Root", "Vegetarian", "Salad"}, view.Path)

	w = do(t, h, "GET", "/tree/navigate/ghost", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.KindNotFound, decodeAs[ErrorResponse](t, w).Error.Kind)

	w = do(t, h, "GET", "/tree/options/root", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeAs[[]domain.Option](t, w), 2)

	w = do(t, h, "GET", "/tree/health", nil)
	assert.Equal(t, TreeHealthResponse{Status: domain.HealthOK}, decodeAs[TreeHealthResponse](t, w))

	w = do(t, h, "GET", "/tree/structure", nil)
	st := decodeAs[tree.Structure](t, w)
	assert.Equal(t, 4, st.TotalNodes)
	assert.Equal(t, 2, st.Terminals)

	w = do(t, h, "POST", "/tree/dishes", map[string]any{"ingredients": []string{"Beef", "salt"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dishes := decodeAs[[]domain.DishMatch](t, w)
	require.Len(t, dishes, 1)
	assert.Equal(t, "3", dishes[0].DishID)
	assert.Equal(t, 100, dishes[0].MatchPercent)
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/ingredients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeAs[[]domain.Ingredient](t, w), 6)

	w = do(t, h, "GET", "/catalog/stats?top=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeAs[match.Stats](t, w)
	assert.Equal(t, 3, stats.Recipes)
	require.Len(t, stats.MostUsed, 1)
	assert.Equal(t, "tomato", stats.MostUsed[0].ID)
}

func TestSessionInterview(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/sessions", map[string]any{"session_id": "s1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, domain.StateIdle, decodeAs[domain.SessionSnapshot](t, w).State)

	// Navigate before start is rejected without side effects.
	w = do(t, h, "POST", "/sessions/s1/navigate", map[string]any{"node_id": "meat"})
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeAs[ErrorResponse](t, w)
	assert.Equal(t, domain.KindInvalidState, resp.Error.Kind)
	require.NotNil(t, resp.Session)
	assert.Equal(t, domain.StateIdle, resp.Session.State)

	w = do(t, h, "POST", "/sessions/s1/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decodeAs[domain.SessionSnapshot](t, w)
	assert.Equal(t, domain.StateReady, snap.State)
	assert.Equal(t, []string{"Root"}, snap.Path)

	// Dishes are only available at a recommendation.
	w = do(t, h, "POST", "/sessions/s1/dishes", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "POST", "/sessions/s1/navigate", map[string]any{"node_id": "meat"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap = decodeAs[domain.SessionSnapshot](t, w)
	assert.Equal(t, domain.StateTerminal, snap.State)
	assert.Equal(t, []string{"Root", "Steak"}, snap.Path)

	w = do(t, h, "POST", "/sessions/s1/dishes", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dishes := decodeAs[[]domain.DishMatch](t, w)
	require.NotEmpty(t, dishes)
	assert.Equal(t, "Steak", dishes[0].Name)

	w = do(t, h, "POST", "/sessions/s1/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Root"}, decodeAs[domain.SessionSnapshot](t, w).Path)

	w = do(t, h, "GET", "/sessions", nil)
	assert.Equal(t, SessionList{Sessions: []string{"s1"}}, decodeAs[SessionList](t, w))

	w = do(t, h, "DELETE", "/sessions/s1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/sessions/s1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionNavigate_UnknownChild(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/sessions", map[string]any{"session_id": "s2"}).Code)
	require.Equal(t, http.StatusOK, do(t, h, "POST", "/sessions/s2/start", nil).Code)

	w := do(t, h, "POST", "/sessions/s2/navigate", map[string]any{"node_id": "salad"})
	require.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeAs[ErrorResponse](t, w)
	require.NotNil(t, resp.Session)
	assert.Equal(t, domain.StateError, resp.Session.State)
	assert.Equal(t, domain.KindNotFound, resp.Session.LastError)
	assert.True(t, resp.Session.RecoveryPending)
}

func TestSessionPantryAndSearch(t *testing.T) {
	h := newTestHandler(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/sessions", map[string]any{"session_id": "p"}).Code)

	w := do(t, h, "POST", "/sessions/p/pantry", map[string]any{
		"select":  []string{"beef", "salt"},
		"ratings": map[string]int{"beef": 9},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	pantry := decodeAs[domain.Pantry](t, w)
	assert.Equal(t, []string{"beef", "salt"}, pantry.SelectedIDs())

	// An invalid rating rolls back the whole update.
	w = do(t, h, "POST", "/sessions/p/pantry", map[string]any{
		"select":  []string{"tomato"},
		"ratings": map[string]int{"tomato": 11},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "POST", "/sessions/p/search", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	set := decodeAs[domain.MatchSet](t, w)
	require.Len(t, set.Complete, 1)
	assert.Equal(t, "Steak", set.Complete[0].Recipe.Name)

	w = do(t, h, "GET", "/dishes/ranked?session_id=p", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ranked := decodeAs[[]match.RankedDish](t, w)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Steak", ranked[0].Recipe.Name)
	assert.Equal(t, 9, ranked[0].Preference)

	w = do(t, h, "GET", "/sessions/p", nil)
	snap := decodeAs[domain.SessionSnapshot](t, w)
	require.NotNil(t, snap.LastMatch)
	assert.Len(t, snap.LastMatch.Complete, 1)
}

func TestSessionEvents(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(`{"session_id":"live"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/live/events?watch=state", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	lines := bufio.NewScanner(stream.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, "data: ") {
				return strings.TrimPrefix(line, "data: ")
			}
		}
		return ""
	}

	initial := next()
	assert.Contains(t, initial, `"state":"idle"`)

	resp, err = http.Post(srv.URL+"/sessions/live/start", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var diff domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(next()), &diff))
	require.NotNil(t, diff.State)
	assert.Equal(t, domain.StateReady, *diff.State)
	require.NotNil(t, diff.Path)
	assert.Equal(t, []string{"Root"}, diff.Path.Reset)
}

func TestWatchFilter(t *testing.T) {
	f := parseWatch("path, error")
	assert.True(t, f.keep(`{"session_id":"s","path":{"appended":["x"]}}`))
	assert.False(t, f.keep(`{"session_id":"s","state":"ready"}`))
	assert.True(t, parseWatch("").keep(`{"session_id":"s"}`))
}

func TestCORSAndRateLimit(t *testing.T) {
	h := newTestHandler(t, func(c *Config) {
		c.CORSOrigins = []string{"https://app.example"}
		c.RateLimit = 2
	})

	req := httptest.NewRequest("OPTIONS", "/search", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, h, "GET", "/health", nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, codes[len(codes)-1])
}

func TestNewHandler_RequiresDependencies(t *testing.T) {
	_, err := NewHandler(Config{})
	assert.Error(t, err)
}
