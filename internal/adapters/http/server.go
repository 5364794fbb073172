// Package http is the transport collaborator: it parses requests, invokes
// the core operations with typed arguments, and renders results and domain
// errors back as JSON responses. No invariants live here.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/setledger/internal/metrics"
	"github.com/aretw0/setledger/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Ledger defines the interface for the setledger core consumed by this
// transport layer.
type Ledger interface {
	CreateSession(ctx context.Context, ownerID, note string) (domain.Session, error)
	ListSessions(ctx context.Context, ownerID string, limit int) ([]domain.Session, error)
	DeleteSession(ctx context.Context, ownerID, sessionID string) (domain.DeleteSessionResult, error)
	AppendSet(ctx context.Context, ownerID, sessionID string, weight float64, reps int64, note string) (domain.AppendReceipt, error)
	ListSets(ctx context.Context, ownerID, sessionID string, limit int) ([]domain.Set, error)
	DeleteSet(ctx context.Context, ownerID, sessionID string, seq int64) error
}

// ownerHeader carries the caller identity. It is an opaque string; there is
// no authentication layer in front of it.
const ownerHeader = "x-user-id"

// Server wires the core operations into a chi router.
type Server struct {
	ledger Ledger
	logger *slog.Logger
	stage  string
}

// NewHandler creates the HTTP handler for the service. m may be nil to
// disable instrumentation.
func NewHandler(ledger Ledger, logger *slog.Logger, stage string, m *metrics.Metrics) http.Handler {
	s := &Server{
		ledger: ledger,
		logger: logger,
		stage:  stage,
	}

	r := chi.NewRouter()
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/healthz", s.health)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.deleteSession)
			r.Post("/sets", s.appendSet)
			r.Get("/sets", s.listSets)
			r.Delete("/sets/{seq}", s.deleteSet)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"stage": s.stage,
	})
}

type createSessionRequest struct {
	Note string `json:"note"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	CreatedAt int64  `json:"createdAt"`
	Note      string `json:"note"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	var body createSessionRequest
	if !s.decode(w, r, &body) {
		return
	}

	sess, err := s.ledger.CreateSession(r.Context(), ownerID, body.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.SessionID,
		CreatedAt: sess.CreatedAt,
		Note:      sess.Note,
	})
}

type sessionItem struct {
	SessionID     string `json:"sessionId"`
	CreatedAt     int64  `json:"createdAt"`
	LastUpdatedAt int64  `json:"lastUpdatedAt"`
	SetCount      int64  `json:"setCount"`
	Note          string `json:"note"`
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}

	sessions, err := s.ledger.ListSessions(r.Context(), ownerID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]sessionItem, len(sessions))
	for i, sess := range sessions {
		items[i] = sessionItem{
			SessionID:     sess.SessionID,
			CreatedAt:     sess.CreatedAt,
			LastUpdatedAt: sess.LastUpdatedAt,
			SetCount:      sess.SetCount,
			Note:          sess.Note,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	res, err := s.ledger.DeleteSession(r.Context(), ownerID, chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionDeleted": res.SessionDeleted,
		"setsDeleted":    res.SetsDeleted,
	})
}

type appendSetRequest struct {
	Weight float64 `json:"weight"`
	Reps   int64   `json:"reps"`
	Note   string  `json:"note"`
}

type appendSetResponse struct {
	SessionID string `json:"sessionId"`
	Seq       int64  `json:"seq"`
	CreatedAt int64  `json:"createdAt"`
}

func (s *Server) appendSet(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	var body appendSetRequest
	if !s.decode(w, r, &body) {
		return
	}

	receipt, err := s.ledger.AppendSet(r.Context(), ownerID, chi.URLParam(r, "sessionID"), body.Weight, body.Reps, body.Note)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appendSetResponse{
		SessionID: receipt.SessionID,
		Seq:       receipt.Seq,
		CreatedAt: receipt.CreatedAt,
	})
}

type setItem struct {
	Seq       int64   `json:"seq"`
	Weight    float64 `json:"weight"`
	Reps      int64   `json:"reps"`
	Note      string  `json:"note"`
	CreatedAt int64   `json:"createdAt"`
}

func (s *Server) listSets(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}

	sets, err := s.ledger.ListSets(r.Context(), ownerID, chi.URLParam(r, "sessionID"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items := make([]setItem, len(sets))
	for i, set := range sets {
		items[i] = setItem{
			Seq:       set.Seq,
			Weight:    set.Weight,
			Reps:      set.Reps,
			Note:      set.Note,
			CreatedAt: set.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) deleteSet(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := s.owner(w, r)
	if !ok {
		return
	}

	seq, err := strconv.ParseInt(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("sequence number must be an integer"))
		return
	}

	if err := s.ledger.DeleteSet(r.Context(), ownerID, chi.URLParam(r, "sessionID"), seq); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// owner extracts the caller identity header, rejecting requests without it.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := r.Header.Get(ownerHeader)
	if ownerID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing "+ownerHeader+" header"))
		return "", false
	}
	return ownerID, true
}

// limit parses the optional ?limit= query. Zero means "use the operation's
// default"; the core clamps the upper bound.
func (s *Server) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be an integer"))
		return 0, false
	}
	return limit, true
}

// decode parses a JSON request body. An empty body is allowed and leaves
// the target zeroed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	err := json.NewDecoder(r.Body).Decode(out)
	if err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return false
	}
	return true
}

// writeError maps domain error kinds onto transport statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSetNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, domain.ErrStoreUnavailable):
		s.logger.Error("store unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody("store unavailable"))
	default:
		s.logger.Error("unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
