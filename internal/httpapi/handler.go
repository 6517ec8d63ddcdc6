// Package httpapi exposes a guest service over HTTP with JSON bodies.
//
// Routes:
//
//	GET    /api/guests       list guests (query parameters, see types.ParseQueryRequest)
//	POST   /api/guests       create a guest
//	DELETE /api/guests       bulk delete {ids}
//	PATCH  /api/guests       bulk tag edit {guestIds, tagsToAdd, tagsToRemove}
//	GET    /api/tags         list catalog tags
//	POST   /api/tags         create a catalog tag, or return the existing one
//	DELETE /api/tags/{id}    remove a catalog tag
//	GET    /healthz          liveness
//	GET    /metrics          Prometheus exposition, when a gatherer is set
//
// Every non-2xx response has the body {"error": "<message>"}.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// Service is the guest service the handler serves.
type Service interface {
	QueryGuests(ctx context.Context, req types.QueryRequest) (types.QueryResult, error)
	CreateGuest(ctx context.Context, in types.GuestInput) (types.Guest, error)
	DeleteGuests(ctx context.Context, ids []string) (int, error)
	UpdateGuestTags(ctx context.Context, req types.TagUpdateRequest) ([]types.Guest, error)
	ListTags(ctx context.Context) ([]types.Tag, error)
	CreateTag(ctx context.Context, req types.TagCreateRequest) (types.Tag, bool, error)
	RemoveTag(ctx context.Context, id string) error
}

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Fixed messages for server-side failures.
const (
	msgQueryFailed  = "Failed to fetch guests"
	msgCreateFailed = "Failed to create guest"
	msgDeleteFailed = "Failed to delete guests"
	msgUpdateFailed = "Failed to update guest tags"
	msgTagsFailed   = "Failed to load tags"
	msgTagFailed    = "Failed to save tag"
)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger. The default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// WithGatherer serves g at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// Handler routes HTTP requests to a Service.
type Handler struct {
	svc      Service
	log      zerolog.Logger
	gatherer prometheus.Gatherer
	mux      *http.ServeMux
}

// NewHandler builds the HTTP handler for svc.
func NewHandler(svc Service, opts ...Option) *Handler {
	h := &Handler{svc: svc, log: zerolog.Nop(), mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("GET /api/guests", h.listGuests)
	h.mux.HandleFunc("POST /api/guests", h.createGuest)
	h.mux.HandleFunc("DELETE /api/guests", h.deleteGuests)
	h.mux.HandleFunc("PATCH /api/guests", h.updateGuestTags)
	h.mux.HandleFunc("GET /api/tags", h.listTags)
	h.mux.HandleFunc("POST /api/tags", h.createTag)
	h.mux.HandleFunc("DELETE /api/tags/{id}", h.removeTag)
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.gatherer != nil {
		h.mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logRequests(h.log, h.mux).ServeHTTP(w, r)
}

func (h *Handler) listGuests(w http.ResponseWriter, r *http.Request) {
	req, err := types.ParseQueryRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, invalid(err))
		return
	}
	res, err := h.svc.QueryGuests(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, msgQueryFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) createGuest(w http.ResponseWriter, r *http.Request) {
	var in types.GuestInput
	if err := decode(w, r, &in); err != nil {
		h.log.Warn().Err(err).Msg("undecodable guest body")
		writeError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}
	g, err := h.svc.CreateGuest(r.Context(), in)
	if err != nil {
		h.fail(w, r, err, msgCreateFailed)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) deleteGuests(w http.ResponseWriter, r *http.Request) {
	var req types.DeleteRequest
	if err := decode(w, r, &req); err != nil {
		req.IDs = nil
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, invalid(err))
		return
	}
	n, err := h.svc.DeleteGuests(r.Context(), req.IDs)
	if err != nil {
		h.fail(w, r, err, msgDeleteFailed)
		return
	}
	writeJSON(w, http.StatusOK, types.DeleteResponse{
		Message:      fmt.Sprintf("Successfully deleted %d guests", n),
		DeletedCount: n,
	})
}

func (h *Handler) updateGuestTags(w http.ResponseWriter, r *http.Request) {
	var req types.TagUpdateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: malformed request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, invalid(err))
		return
	}
	updated, err := h.svc.UpdateGuestTags(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, msgUpdateFailed)
		return
	}
	writeJSON(w, http.StatusOK, types.TagUpdateResponse{
		Message:       fmt.Sprintf("Successfully updated tags for %d guests", len(req.GuestIDs)),
		UpdatedGuests: updated,
	})
}

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.ListTags(r.Context())
	if err != nil {
		h.fail(w, r, err, msgTagsFailed)
		return
	}
	writeJSON(w, http.StatusOK, types.TagListResponse{Tags: tags})
}

func (h *Handler) createTag(w http.ResponseWriter, r *http.Request) {
	var req types.TagCreateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: malformed request body")
		return
	}
	tag, created, err := h.svc.CreateTag(r.Context(), req)
	if err != nil {
		h.fail(w, r, err, msgTagFailed)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, tag)
}

func (h *Handler) removeTag(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveTag(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err, msgTagFailed)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps a service error to a response: validation errors are 400 with
// their description, missing entities 404, and anything else 500 with the
// fixed message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, types.ErrValidation):
		writeError(w, http.StatusBadRequest, invalid(err))
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, types.Describe(err))
	default:
		h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func invalid(err error) string {
	return "Invalid request: " + types.Describe(err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
