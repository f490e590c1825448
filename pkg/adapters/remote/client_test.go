package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/smartmeal/internal/seed"
	httpadapter "github.com/aretw0/smartmeal/pkg/adapters/http"
	"github.com/aretw0/smartmeal/pkg/adapters/memory"
	"github.com/aretw0/smartmeal/pkg/adapters/remote"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/navigator"
	"github.com/aretw0/smartmeal/pkg/ports"
	"github.com/aretw0/smartmeal/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treeServer(t *testing.T) *httptest.Server {
	t.Helper()
	def, err := tree.Parse(seed.TreeYAML, "yaml")
	require.NoError(t, err)
	tr, err := tree.New(def)
	require.NoError(t, err)

	catalog := memory.NewCatalog(nil, nil)
	h, err := httpadapter.NewHandler(httpadapter.Config{
		Searcher: match.NewSearcher(catalog),
		Catalog:  catalog,
		Tree:     tr,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Contract(t *testing.T) {
	srv := treeServer(t)
	c, err := remote.New(srv.URL)
	require.NoError(t, err)
	ports.RunTreeProviderContract(t, c)
}

func TestClient_DrivesNavigator(t *testing.T) {
	srv := treeServer(t)
	c, err := remote.New(srv.URL + "/")
	require.NoError(t, err)

	nav := navigator.New(c)
	defer nav.Close()
	ctx := context.Background()

	root, err := nav.Start(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, root.Node.Options)

	_, err = nav.Navigate(ctx, root.Node.Options[0].ID)
	require.NoError(t, err)
	assert.Len(t, nav.Snapshot().Path, 2)
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusInternalServerError, domain.ErrServerError},
		{http.StatusServiceUnavailable, domain.ErrConnectFailed},
		{http.StatusGatewayTimeout, domain.ErrTimeout},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c, err := remote.New(srv.URL)
		require.NoError(t, err)

		_, err = c.Navigate(context.Background(), "x")
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
		srv.Close()
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := remote.New(url)
	require.NoError(t, err)
	_, err = c.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrConnectFailed)

	status, err := c.Health(context.Background())
	assert.Error(t, err)
	assert.Equal(t, domain.HealthError, status)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := remote.New(srv.URL, remote.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	require.NoError(t, err)
	_, err = c.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := remote.New("ftp://tree")
	assert.Error(t, err)
}
