// Package handler provides HTTP handlers for the proxy API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"stripemeta-proxy/internal/auth"
	"stripemeta-proxy/internal/catalog"
	"stripemeta-proxy/internal/model"
	"stripemeta-proxy/internal/settings"
	"stripemeta-proxy/internal/stripegw"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	settings settings.Store
	catalog  *catalog.Catalog
	gateway  *stripegw.Gateway
	verifier *auth.Verifier
	logger   *slog.Logger
}

// New creates a Handler. The verifier may be nil to disable admin
// authentication (for tests).
func New(store settings.Store, cat *catalog.Catalog, gateway *stripegw.Gateway, verifier *auth.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		settings: store,
		catalog:  cat,
		gateway:  gateway,
		verifier: verifier,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Field catalog for the settings UI
	mux.HandleFunc("GET /fields", h.requireToken(h.handleListFields))

	// Settings
	mux.HandleFunc("GET /settings", h.requireToken(h.handleGetSettings))
	mux.HandleFunc("PUT /settings", h.requireNonce(h.handleUpdateSettings))
	mux.HandleFunc("DELETE /settings", h.requireNonce(h.handleDeleteSettings))

	// Metadata operations
	mux.HandleFunc("POST /orders/{id}/intent-metadata", h.requireToken(h.handlePreviewMetadata))
	mux.HandleFunc("POST /payment-intents/{id}/sync", h.requireNonce(h.handleSyncIntent))

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Auth wrappers ===

// requireToken gates a handler on the admin bearer token.
func (h *Handler) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.verifier != nil {
			if err := h.verifier.CheckToken(r.Header.Get("Authorization")); err != nil {
				h.writeError(w, model.NewUnauthorizedError(err.Error()))
				return
			}
		}
		next(w, r)
	}
}

// requireNonce additionally demands a fresh signed nonce on mutations.
func (h *Handler) requireNonce(next http.HandlerFunc) http.HandlerFunc {
	return h.requireToken(func(w http.ResponseWriter, r *http.Request) {
		if h.verifier != nil {
			nonce := r.Header.Get(auth.NonceHeader)
			if err := h.verifier.CheckNonce(nonce, r.Method, r.URL.Path); err != nil {
				h.writeError(w, model.NewForbiddenError(err.Error()))
				return
			}
		}
		next(w, r)
	})
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		// Wrap unexpected errors
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// handleHealth reports liveness.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
