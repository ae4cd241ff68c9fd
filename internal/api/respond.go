package api

import (
	"encoding/json"
	"net/http"
)

// Error categories of the API. Every error body is {"error": category,
// "message": detail}.
const (
	errBadRequest = "bad request"
	errForbidden  = "forbidden"
	errNotFound   = "not found"
)

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, code int, kind, message string) {
	respondJSON(w, code, map[string]string{"error": kind, "message": message})
}

func (s *APIServer) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", "error", err)
	respondError(w, http.StatusInternalServerError, "internal server error", "unexpected failure")
}
