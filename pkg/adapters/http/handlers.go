package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/match"
)

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// ListIngredients handles GET /ingredients.
func (s *Server) ListIngredients(w http.ResponseWriter, r *http.Request) {
	ings, err := s.catalog.GetIngredients(r.Context())
	if err != nil {
		s.logger.Error("ingredients: catalog failed", "err", err)
		writeError(w, domain.NewError(domain.KindCatalogUnavailable, "ingredients", err), nil)
		return
	}
	writeJSON(w, http.StatusOK, ings)
}

// CatalogStats handles GET /catalog/stats.
func (s *Server) CatalogStats(w http.ResponseWriter, r *http.Request) {
	top := 5
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, domain.Errorf(domain.KindInvalidInput, "stats", "invalid top %q", raw), nil)
			return
		}
		top = n
	}
	idx, err := s.searcher.Index(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, idx.Stats(top))
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := s.decode(r, &req, false); err != nil {
		writeError(w, err, nil)
		return
	}
	set, err := s.searcher.Search(r.Context(), req.Ingredients, threshold(req.Threshold))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// RankedDishes handles GET /dishes/ranked. With session_id the session's ratings are used.
func (s *Server) RankedDishes(w http.ResponseWriter, r *http.Request) {
	var pantry *domain.Pantry
	if id := r.URL.Query().Get("session_id"); id != "" {
		if s.sessions == nil {
			writeError(w, domain.Errorf(domain.KindInvalidInput, "ranked", "sessions are disabled"), nil)
			return
		}
		ctrl, err := s.sessions.Get(r.Context(), id)
		if err != nil {
			writeError(w, err, nil)
			return
		}
		pantry = ctrl.Pantry()
	}
	idx, err := s.searcher.Index(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, match.RankByPreference(idx.Recipes(), pantry))
}

// TreeDishes handles POST /tree/dishes, the cross-check of a recommendation's
// ingredients against the catalog.
func (s *Server) TreeDishes(w http.ResponseWriter, r *http.Request) {
	var req DishesRequest
	if err := s.decode(r, &req, false); err != nil {
		writeError(w, err, nil)
		return
	}
	dishes, err := s.searcher.MatchDishes(r.Context(), req.Ingredients)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

// TreeStart handles GET /tree/start.
func (s *Server) TreeStart(w http.ResponseWriter, r *http.Request) {
	view, err := s.tree.Start(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// TreeNavigate handles GET /tree/navigate/{id}.
func (s *Server) TreeNavigate(w http.ResponseWriter, r *http.Request) {
	view, err := s.tree.Navigate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// TreeOptions handles GET /tree/options/{id}.
func (s *Server) TreeOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.tree.Options(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// TreeHealth handles GET /tree/health. Probe failures are reported as ERROR, not as HTTP errors.
func (s *Server) TreeHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.tree.Health(r.Context())
	if err != nil {
		s.logger.Warn("tree health probe failed", "err", err)
		status = domain.HealthError
	}
	writeJSON(w, http.StatusOK, TreeHealthResponse{Status: status})
}

// TreeStructure handles GET /tree/structure.
func (s *Server) TreeStructure(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tree.Structure())
}
