// Package remote implements ports.TreeProvider against a SmartMeal tree service
// reachable over HTTP.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/aretw0/smartmeal/internal/logging"
	httpadapter "github.com/aretw0/smartmeal/pkg/adapters/http"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/ports"
)

// Client is an HTTP tree provider.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

var _ ports.TreeProvider = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 10s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a client for the service rooted at baseURL, e.g. "http://tree:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid tree url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid tree url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Start(ctx context.Context) (domain.TreeView, error) {
	var view domain.TreeView
	err := c.get(ctx, "start", "/tree/start", &view)
	return view, err
}

func (c *Client) Navigate(ctx context.Context, nodeID string) (domain.TreeView, error) {
	var view domain.TreeView
	err := c.get(ctx, "navigate", "/tree/navigate/"+url.PathEscape(nodeID), &view)
	return view, err
}

// Health never fails on a reachable service: a probe error is reported as ERROR alongside it.
func (c *Client) Health(ctx context.Context) (domain.HealthStatus, error) {
	var resp httpadapter.TreeHealthResponse
	if err := c.get(ctx, "health", "/tree/health", &resp); err != nil {
		return domain.HealthError, err
	}
	return resp.Status, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+path, nil)
	if err != nil {
		return domain.NewError(domain.KindServerError, op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return transportError(ctx, op, err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := httpadapter.KindForStatus(resp.StatusCode)
		msg := http.StatusText(resp.StatusCode)
		var er httpadapter.ErrorResponse
		if json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
			msg = er.Error.Message
		}
		c.logger.Debug("tree service error", "op", op, "status", resp.StatusCode, "kind", kind)
		return domain.Errorf(kind, op, "tree service: %s", msg)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.Errorf(domain.KindServerError, op, "malformed response: %v", err)
	}
	return nil
}

// transportError classifies failures below HTTP: deadlines become Timeout,
// anything else means the service could not be reached.
func transportError(ctx context.Context, op string, err error) error {
	var uerr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &uerr) && uerr.Timeout()) {
		return domain.NewError(domain.KindTimeout, op, err)
	}
	if ctx.Err() != nil {
		return domain.NewError(domain.KindConnectFailed, op, ctx.Err())
	}
	return domain.NewError(domain.KindConnectFailed, op, err)
}
