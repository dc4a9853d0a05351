package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/gavel/internal/config"
	"github.com/antoniostano/gavel/internal/court"
	"github.com/antoniostano/gavel/internal/debate"
	"github.com/antoniostano/gavel/internal/generation"
	"github.com/antoniostano/gavel/internal/hub"
	"github.com/antoniostano/gavel/internal/observability"
	"github.com/antoniostano/gavel/internal/protocol"
)

type Server struct {
	cfg      config.Config
	registry *court.Registry
	hub      *hub.Hub
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, registry *court.Registry, h *hub.Hub, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:      cfg,
		registry: registry,
		hub:      h,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly
				// opened up; other sites must not drive a debate session.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Route("/v1/debates", func(r chi.Router) {
		r.Post("/", s.handleCreateDebate)
		r.Get("/{id}", s.handleGetDebate)
		r.Delete("/{id}", s.handleDeleteDebate)
		r.Post("/{id}/advance", s.handleAdvance)
		r.Post("/{id}/input", s.handleInput)
		r.Get("/{id}/ws", s.handleDebateWS)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Count(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type evidencePayload struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

type createDebateRequest struct {
	CaseDescription string            `json:"case_description"`
	Evidence        []evidencePayload `json:"evidence,omitempty"`
	HumanRole       debate.Role       `json:"human_role,omitempty"`
}

type createDebateResponse struct {
	SessionID    string        `json:"session_id"`
	Status       debate.Status `json:"status"`
	Phase        debate.Phase  `json:"phase"`
	Speaker      debate.Role   `json:"speaker"`
	HumanRole    debate.Role   `json:"human_role,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	SessionTTLMS int64         `json:"session_ttl_ms"`
}

func (s *Server) handleCreateDebate(w http.ResponseWriter, r *http.Request) {
	var req createDebateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.CaseDescription) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "case_description is required")
		return
	}

	c := debate.CaseContext{Description: strings.TrimSpace(req.CaseDescription)}
	for _, ev := range req.Evidence {
		c.Evidence = append(c.Evidence, debate.Evidence{Speaker: ev.Speaker, Content: ev.Content})
	}

	sess, err := s.registry.Create(c, req.HumanRole)
	if err != nil {
		s.respondCourtError(w, err)
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.registry.Count()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	snap := sess.Snapshot()
	respondJSON(w, http.StatusCreated, createDebateResponse{
		SessionID:    sess.ID,
		Status:       snap.Status,
		Phase:        snap.Phase,
		Speaker:      snap.Speaker,
		HumanRole:    snap.HumanRole,
		CreatedAt:    sess.CreatedAt,
		SessionTTLMS: s.cfg.SessionTTL.Milliseconds(),
	})
}

func (s *Server) handleGetDebate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondCourtError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, protocol.FromSnapshot(sess.ID, sess.Snapshot()))
}

func (s *Server) handleDeleteDebate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Delete(id); err != nil {
		s.respondCourtError(w, err)
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.registry.Count()))
	s.metrics.SessionEvents.WithLabelValues("deleted").Inc()
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "status": "ended"})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondCourtError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GenerationTimeout)
	defer cancel()

	ev, err := sess.Advance(ctx)
	if err != nil {
		s.respondCourtError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, protocol.FromEvent(sess.ID, ev))
}

type humanInputRequest struct {
	Role    debate.Role `json:"role"`
	Content string      `json:"content"`
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondCourtError(w, err)
		return
	}

	var req humanInputRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GenerationTimeout)
	defer cancel()

	ev, err := sess.Resume(ctx, req.Role, req.Content)
	if err != nil {
		s.respondCourtError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, protocol.FromEvent(sess.ID, ev))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) respondCourtError(w http.ResponseWriter, err error) {
	code, status, _ := classifyError(err)
	respondError(w, status, code, err.Error())
}

// classifyError maps core errors onto a stable wire code, an HTTP
// status, and whether the caller may retry the same operation.
func classifyError(err error) (code string, status int, retryable bool) {
	switch {
	case errors.Is(err, court.ErrNotFound):
		return "session_not_found", http.StatusNotFound, false
	case errors.Is(err, court.ErrSessionBusy):
		return "session_busy", http.StatusConflict, true
	case errors.Is(err, court.ErrInvalidState):
		return "invalid_state", http.StatusConflict, false
	case errors.Is(err, court.ErrRoleMismatch):
		return "role_mismatch", http.StatusForbidden, false
	case errors.Is(err, court.ErrInvalidRole), errors.Is(err, court.ErrEmptyInput):
		return "invalid_request", http.StatusBadRequest, false
	case errors.Is(err, debate.ErrDebateEnded):
		return "debate_ended", http.StatusConflict, false
	case errors.Is(err, generation.ErrGeneration):
		return "generation_failed", http.StatusBadGateway, true
	default:
		return "internal_error", http.StatusInternalServerError, false
	}
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
