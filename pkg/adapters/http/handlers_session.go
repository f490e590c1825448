package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/smartmeal/pkg/domain"
	"github.com/aretw0/smartmeal/pkg/session"
)

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, SessionList{Sessions: ids})
}

// OpenSession handles POST /sessions.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := s.decode(r, &req, true); err != nil {
		writeError(w, err, nil)
		return
	}
	ctrl, err := s.sessions.Open(r.Context(), req.SessionID)
	if err != nil {
		s.logger.Error("open session failed", "err", err)
		writeError(w, err, nil)
		return
	}
	snap := ctrl.Snapshot()
	writeJSON(w, http.StatusCreated, snap)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

// CloseSession handles DELETE /sessions/{id}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SessionStart handles POST /sessions/{id}/start.
func (s *Server) SessionStart(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, func(ctx context.Context, c *session.Controller) error {
		_, err := c.Start(ctx)
		return err
	})
}

// SessionNavigate handles POST /sessions/{id}/navigate.
func (s *Server) SessionNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := s.decode(r, &req, false); err != nil {
		writeError(w, err, nil)
		return
	}
	s.navigate(w, r, func(ctx context.Context, c *session.Controller) error {
		_, err := c.Navigate(ctx, req.NodeID)
		return err
	})
}

// SessionReset handles POST /sessions/{id}/reset.
func (s *Server) SessionReset(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, func(ctx context.Context, c *session.Controller) error {
		_, err := c.Reset(ctx)
		return err
	})
}

// navigate runs a navigator operation, publishes the resulting diff and replies
// with the session snapshot. Failures carry the snapshot too.
func (s *Server) navigate(w http.ResponseWriter, r *http.Request, fn func(context.Context, *session.Controller) error) {
	ctrl, err := s.mutate(r, fn)
	if ctrl == nil {
		writeError(w, err, nil)
		return
	}
	snap := ctrl.Snapshot()
	if err != nil {
		writeError(w, err, &snap)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// mutate runs fn through the session manager and broadcasts the snapshot diff.
// The returned controller is nil when the session could not be loaded.
func (s *Server) mutate(r *http.Request, fn func(context.Context, *session.Controller) error) (*session.Controller, error) {
	id := chi.URLParam(r, "id")
	var (
		ctrl   *session.Controller
		before domain.SessionSnapshot
	)
	err := s.sessions.Do(r.Context(), id, func(ctx context.Context, c *session.Controller) error {
		ctrl = c
		before = c.Snapshot()
		return fn(ctx, c)
	})
	if ctrl != nil {
		after := ctrl.Snapshot()
		s.streams.Publish(&before, &after)
	}
	return ctrl, err
}

// SessionPantry handles POST /sessions/{id}/pantry. The update is all-or-nothing.
func (s *Server) SessionPantry(w http.ResponseWriter, r *http.Request) {
	var req PantryRequest
	if err := s.decode(r, &req, false); err != nil {
		writeError(w, err, nil)
		return
	}
	ctrl, err := s.mutate(r, func(ctx context.Context, c *session.Controller) error {
		return c.UpdatePantry(func(p *domain.Pantry) error {
			for _, id := range req.Select {
				if err := p.Select(id); err != nil {
					return err
				}
			}
			for _, id := range req.Deselect {
				p.Deselect(id)
			}
			for id, rating := range req.Ratings {
				if err := p.Rate(id, rating); err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Pantry())
}

// SessionSearch handles POST /sessions/{id}/search.
func (s *Server) SessionSearch(w http.ResponseWriter, r *http.Request) {
	var req SessionSearchRequest
	if err := s.decode(r, &req, true); err != nil {
		writeError(w, err, nil)
		return
	}
	var set domain.MatchSet
	_, err := s.mutate(r, func(ctx context.Context, c *session.Controller) error {
		var err error
		if req.Ingredients != nil {
			set, err = c.SearchIngredients(ctx, req.Ingredients, threshold(req.Threshold))
		} else {
			set, err = c.Search(ctx, threshold(req.Threshold))
		}
		return err
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// SessionDishes handles POST /sessions/{id}/dishes.
func (s *Server) SessionDishes(w http.ResponseWriter, r *http.Request) {
	var dishes []domain.DishMatch
	_, err := s.mutate(r, func(ctx context.Context, c *session.Controller) error {
		var err error
		dishes, err = c.MatchTerminal(ctx)
		return err
	})
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

// SessionEvents handles GET /sessions/{id}/events, streaming snapshot diffs as SSE.
func (s *Server) SessionEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, domain.Errorf(domain.KindServerError, "events", "streaming not supported"), nil)
		return
	}
	sessionID := chi.URLParam(r, "id")
	ctrl, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	filter := parseWatch(r.URL.Query().Get("watch"))

	ch, cancel := s.streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// The first frame is the full state so late subscribers can render immediately.
	snap := ctrl.Snapshot()
	s.logger.Debug("SSE: subscribed", "session_id", sessionID)
	if initial := domain.Diff(nil, &snap); initial != nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", mustJSON(initial))
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !filter.keep(msg) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
