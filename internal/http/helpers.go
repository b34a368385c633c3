package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"cashflow/internal/auth"
	"cashflow/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// identify resolves the bearer token to a verified identity.
func (s *Server) identify(r *http.Request) (auth.Identity, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return auth.Identity{}, core.ErrNotAuthenticated
	}
	return s.provider.VerifyToken(r.Context(), strings.TrimSpace(token))
}

// respondError maps the domain error taxonomy onto HTTP statuses.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotAuthenticated), errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "not authenticated", Code: "not_authenticated"})
	case errors.Is(err, core.ErrAccountNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "account not found", Code: "account_not_found"})
	case errors.Is(err, core.ErrInsufficientFunds):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "insufficient funds", Code: "insufficient_funds"})
	case errors.Is(err, core.ErrInvalidAmount):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid amount", Code: "invalid_amount"})
	case errors.Is(err, core.ErrSameAccount):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "same_account"})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
