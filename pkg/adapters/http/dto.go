package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/aretw0/smartmeal/pkg/domain"
)

const maxBodyBytes = 1 << 20

// SearchRequest is the body of POST /search. A missing threshold uses the configured default.
type SearchRequest struct {
	Ingredients []string `json:"ingredients" validate:"required,max=500,dive,max=100"`
	Threshold   *float64 `json:"threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// SessionSearchRequest is the body of POST /sessions/{id}/search.
type SessionSearchRequest struct {
	// Ingredients overrides the pantry selection when set.
	Ingredients []string `json:"ingredients,omitempty" validate:"omitempty,max=500,dive,max=100"`
	Threshold   *float64 `json:"threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// DishesRequest is the body of POST /tree/dishes.
type DishesRequest struct {
	Ingredients []string `json:"ingredients" validate:"required,max=500,dive,max=100"`
}

// OpenSessionRequest is the body of POST /sessions. An empty id gets a generated one.
type OpenSessionRequest struct {
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128,excludesall=/\\"`
}

// NavigateRequest is the body of POST /sessions/{id}/navigate.
type NavigateRequest struct {
	NodeID string `json:"node_id" validate:"required"`
}

// PantryRequest updates a session pantry; ratings must be within 1..10.
type PantryRequest struct {
	Select   []string       `json:"select,omitempty" validate:"omitempty,dive,required"`
	Deselect []string       `json:"deselect,omitempty"`
	Ratings  map[string]int `json:"ratings,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// TreeHealthResponse is returned by GET /tree/health.
type TreeHealthResponse struct {
	Status domain.HealthStatus `json:"status"`
}

// SessionList is returned by GET /sessions.
type SessionList struct {
	Sessions []string `json:"sessions"`
}

// decode reads a JSON body into dst and validates it. An empty body is accepted
// when optional is set.
func (s *Server) decode(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) && optional {
		err = nil
	}
	if err != nil {
		return domain.Errorf(domain.KindInvalidInput, "decode", "invalid request body: %v", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return domain.NewError(domain.KindInvalidInput, "decode", err)
	}
	return nil
}

func threshold(t *float64) float64 {
	if t == nil {
		return 0
	}
	return *t
}
