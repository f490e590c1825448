// Package http exposes SmartMeal over a chi router: the tree provider endpoints,
// recipe search, the dish cross-check and per-user interview sessions.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/aretw0/smartmeal/internal/logging"
	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
	"github.com/aretw0/smartmeal/pkg/ports"
	"github.com/aretw0/smartmeal/pkg/session"
	"github.com/aretw0/smartmeal/pkg/tree"
)

// TreeService is the server side of a tree provider. *tree.Tree implements it.
type TreeService interface {
	ports.TreeProvider
	Options(nodeID string) ([]domain.Option, error)
	Structure() tree.Structure
}

// Config wires the handler. Searcher and Catalog are required; Tree and Sessions
// mount their routes only when set.
type Config struct {
	Searcher *match.Searcher
	Catalog  ports.CatalogProvider
	Tree     TreeService
	Sessions *session.Manager

	Logger  *slog.Logger
	Version string

	// Metrics is served at /metrics when set.
	Metrics http.Handler
	// Middleware runs after the built-in stack, e.g. request instrumentation.
	Middleware []func(http.Handler) http.Handler

	CORSOrigins []string
	// RateLimit is the number of requests per minute per client IP. Zero disables it.
	RateLimit int
}

// Server holds the handler dependencies.
type Server struct {
	searcher *match.Searcher
	catalog  ports.CatalogProvider
	tree     TreeService
	sessions *session.Manager
	streams  *StreamManager
	logger   *slog.Logger
	version  string
	validate *validator.Validate
}

// NewHandler builds the HTTP handler.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Searcher == nil || cfg.Catalog == nil {
		return nil, fmt.Errorf("http: searcher and catalog are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validateRequest, err := requestValidator(doc)
	if err != nil {
		return nil, err
	}

	s := &Server{
		searcher: cfg.Searcher,
		catalog:  cfg.Catalog,
		tree:     cfg.Tree,
		sessions: cfg.Sessions,
		streams:  NewStreamManager(logger),
		logger:   logger,
		version:  cfg.Version,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}
	for _, mw := range cfg.Middleware {
		r.Use(mw)
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(validateRequest)

		r.Get("/health", s.GetHealth)
		r.Get("/ingredients", s.ListIngredients)
		r.Get("/catalog/stats", s.CatalogStats)
		r.Post("/search", s.Search)
		r.Get("/dishes/ranked", s.RankedDishes)

		if s.tree == nil {
			r.Post("/tree/dishes", s.TreeDishes)
		} else {
			r.Route("/tree", func(r chi.Router) {
				r.Post("/dishes", s.TreeDishes)
				r.Get("/start", s.TreeStart)
				r.Get("/navigate/{id}", s.TreeNavigate)
				r.Get("/options/{id}", s.TreeOptions)
				r.Get("/health", s.TreeHealth)
				r.Get("/structure", s.TreeStructure)
			})
		}

		if s.sessions != nil {
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.ListSessions)
				r.Post("/", s.OpenSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.GetSession)
					r.Delete("/", s.CloseSession)
					r.Post("/start", s.SessionStart)
					r.Post("/navigate", s.SessionNavigate)
					r.Post("/reset", s.SessionReset)
					r.Post("/pantry", s.SessionPantry)
					r.Post("/search", s.SessionSearch)
					r.Post("/dishes", s.SessionDishes)
					r.Get("/events", s.SessionEvents)
				})
			})
		}
	})

	return r, nil
}

// requestLogger logs one line per request at debug level, warn for server errors.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// NewServer wraps the handler in an *http.Server with conservative timeouts.
// WriteTimeout stays zero so SSE streams are not cut.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
