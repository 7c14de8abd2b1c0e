package cards

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"card-orchestrator/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

// Handler exposes session and navigation HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	catalog *Catalog
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Catalog, Logger,
// and optional Metrics. Metrics may be nil to disable metric recording
// (e.g. in tests).
func NewHandler(svc *Service, catalog *Catalog, log *slog.Logger, m *metrics.Metrics) *Handler {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Handler{svc: svc, catalog: catalog, log: log, metrics: m}
}

type createSessionRequest struct {
	// Either a catalog sequence name or an inline card list.
	Sequence    string `json:"sequence,omitempty"`
	Cards       []Card `json:"cards,omitempty"`
	PreferVideo bool   `json:"prefer_video,omitempty"`
	StartIndex  int    `json:"start_index,omitempty"`
}

type navigateRequest struct {
	Target int `json:"target"`
}

type replaceSequenceRequest struct {
	Cards       []Card `json:"cards"`
	PreferVideo bool   `json:"prefer_video,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateSession handles POST /sessions.
// Body: {"sequence": "name"} or
// {"cards": [...], "prefer_video": true, "start_index": 0}.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create session body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	seq := Sequence{Cards: req.Cards, PreferVideo: req.PreferVideo}
	if req.Sequence != "" {
		var ok bool
		seq, ok = h.catalog.Get(req.Sequence)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown sequence: " + req.Sequence})
			return
		}
	}

	sess, err := h.svc.CreateSession(seq, req.StartIndex)
	if err != nil {
		if errors.Is(err, ErrEmptySequence) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		h.log.Error("create session failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.log.Info("session created",
		slog.String("session_id", string(sess.ID)),
		slog.Int("cards", seq.Len()),
		slog.Bool("prefer_video", seq.PreferVideo))
	if h.metrics != nil {
		h.metrics.IncSessionsCreated()
	}
	writeJSON(w, http.StatusCreated, sess.State())
}

// GetState handles GET /sessions/{session_id}/state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	state, err := h.svc.State(id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Navigate handles POST /sessions/{session_id}/navigate.
// Body: {"target": 2}. Responds 202 when the transition started, 409 when
// the request was rejected as a no-op.
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid navigate body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	h.respondNavigation(w, r, func(id SessionID) (SessionState, bool, error) {
		return h.svc.Navigate(id, req.Target)
	})
}

// Next handles POST /sessions/{session_id}/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.respondNavigation(w, r, h.svc.Next)
}

// Previous handles POST /sessions/{session_id}/previous.
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	h.respondNavigation(w, r, h.svc.Previous)
}

// MarkMounted handles POST /sessions/{session_id}/mounted: the rendering
// surface signalling that the pending card's surface has attached.
func (h *Handler) MarkMounted(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	state, err := h.svc.MarkMounted(id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ReplaceSequence handles PUT /sessions/{session_id}/sequence. Any in-flight
// transition is abandoned.
func (h *Handler) ReplaceSequence(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	var req replaceSequenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid replace sequence body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	state, err := h.svc.ReplaceSequence(id, Sequence{Cards: req.Cards, PreferVideo: req.PreferVideo})
	switch {
	case errors.Is(err, ErrEmptySequence):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, ErrSessionNotFound):
		w.WriteHeader(http.StatusNotFound)
		return
	case err != nil:
		h.log.Error("replace sequence failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.log.Info("sequence replaced", slog.String("session_id", string(id)), slog.Int("cards", state.CardCount))
	writeJSON(w, http.StatusOK, state)
}

// EndSession handles DELETE /sessions/{session_id}. Idempotent.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := SessionID(chi.URLParam(r, "session_id"))

	if err := h.svc.EndSession(id); err != nil {
		h.log.Error("end session failed", slog.String("session_id", string(id)), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.log.Info("session ended", slog.String("session_id", string(id)))
	if h.metrics != nil {
		h.metrics.IncSessionsEnded()
	}
	w.WriteHeader(http.StatusOK)
}

// respondNavigation maps a navigation outcome onto the HTTP contract:
// 202 started, 409 rejected no-op, 404 unknown session. The state body is
// included either way so callers can see why a request was rejected.
func (h *Handler) respondNavigation(w http.ResponseWriter, r *http.Request, op func(SessionID) (SessionState, bool, error)) {
	id := SessionID(chi.URLParam(r, "session_id"))

	state, started, err := op(id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if !started {
		if h.metrics != nil {
			h.metrics.IncTransitionsRejected()
		}
		writeJSON(w, http.StatusConflict, state)
		return
	}

	pending := -1
	if state.PendingIndex != nil {
		pending = *state.PendingIndex
	}
	h.log.Debug("navigation accepted",
		slog.String("session_id", string(id)),
		slog.Int("pending", pending))
	if h.metrics != nil {
		h.metrics.IncTransitionsStarted()
	}
	writeJSON(w, http.StatusAccepted, state)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
