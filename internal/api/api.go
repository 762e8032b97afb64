// Package api serves the whiteboard document over a small JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/jaakkos/whiteboard/internal/app"
	"github.com/jaakkos/whiteboard/internal/domain"
)

// DefaultMaxBodyBytes matches the usual JSON body limit of web frameworks (100kb).
const DefaultMaxBodyBytes = 100 << 10

// ReplaceResponse is the JSON response from POST /api/whiteboard.
type ReplaceResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is the JSON response from /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Elements int    `json:"elements"`
}

// ErrorResponse is the JSON body of every 4xx/5xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler holds dependencies for the whiteboard HTTP handlers.
type Handler struct {
	store        *app.DocumentStore
	logger       *log.Logger
	validate     bool
	maxBodyBytes int64
}

// HandlerOption configures optional behavior of the handler.
type HandlerOption func(*Handler)

// WithPayloadValidation rejects replace-state payloads that break the element contract.
func WithPayloadValidation(enabled bool) HandlerOption {
	return func(h *Handler) { h.validate = enabled }
}

// WithMaxBodyBytes limits the replace-state request body.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger for request failures.
func WithLogger(l *log.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a whiteboard handler over store.
func NewHandler(store *app.DocumentStore, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:        store,
		logger:       log.New(io.Discard, "", 0),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes adds the whiteboard routes to the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/whiteboard", h.handleGetState)
	mux.HandleFunc("POST /api/whiteboard", h.handleReplaceState)
	mux.HandleFunc("GET /health", h.handleHealth)
}

// corsAllowedHeaders covers what browser clients of the API and of /mcp send.
var corsAllowedHeaders = []string{
	"Content-Type",
	"Accept",
	"Authorization",
	"X-Requested-With",
	"Mcp-Session-Id",
	"Mcp-Protocol-Version",
	"Last-Event-ID",
}

// Wrap applies the cross-cutting middleware: combined access log, panic
// recovery, and a CORS policy that admits every origin.
func Wrap(next http.Handler, logger *log.Logger) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders(corsAllowedHeaders),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger),
		handlers.PrintRecoveryStack(true),
	)
	return handlers.CombinedLoggingHandler(logger.Writer(), recovery(cors(next)))
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.store.Get().Bytes())
}

func (h *Handler) handleReplaceState(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	doc, err := domain.ParseDocument(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if h.validate {
		if err := doc.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.store.Replace(doc); err != nil {
		h.logger.Printf("Replace whiteboard failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ReplaceResponse{Success: true})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Elements: h.store.ElementCount()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
