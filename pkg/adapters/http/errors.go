package http

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// ErrorBody is the wire shape of a classified failure.
type ErrorBody struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// ErrorResponse wraps ErrorBody. Session endpoints attach the session snapshot
// so clients can render the Error state without a second request.
type ErrorResponse struct {
	Error   ErrorBody               `json:"error"`
	Session *domain.SessionSnapshot `json:"session,omitempty"`
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState:
		return http.StatusConflict
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindCatalogUnavailable, domain.KindConnectFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// KindForStatus is the inverse of StatusFor, used by HTTP clients.
func KindForStatus(status int) domain.ErrorKind {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.KindInvalidInput
	case http.StatusNotFound:
		return domain.KindNotFound
	case http.StatusConflict:
		return domain.KindInvalidState
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return domain.KindTimeout
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return domain.KindConnectFailed
	default:
		return domain.KindServerError
	}
}

func kindOf(err error) domain.ErrorKind {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.KindNotFound
	}
	return domain.KindOf(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error, snap *domain.SessionSnapshot) {
	kind := kindOf(err)
	writeJSON(w, StatusFor(kind), ErrorResponse{
		Error:   ErrorBody{Kind: kind, Message: err.Error()},
		Session: snap,
	})
}
