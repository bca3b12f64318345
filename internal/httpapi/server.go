// Package httpapi exposes the chat agents and the recorded leads over a
// small JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/eduzen-bot/server/internal/agent/direct"
	"github.com/eduzen-bot/server/internal/agent/model"
	"github.com/eduzen-bot/server/internal/leads"
	logx "github.com/eduzen-bot/server/pkg/logger"
)

// Config drives the HTTP listener.
type Config struct {
	Addr    string        `envconfig:"HTTP_ADDR" default:":8080"`
	Timeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

// DirectAgent is the single-pass function-calling agent surface.
type DirectAgent interface {
	Chat(ctx context.Context, message string, history []direct.Turn) (string, []direct.Turn)
}

// StagedAgent is the reason/decide graph surface.
type StagedAgent interface {
	Chat(ctx context.Context, conversationID, query string) *model.ChatResult
	ClearThread(ctx context.Context, conversationID string) error
}

type Server struct {
	router   chi.Router
	direct   DirectAgent
	staged   StagedAgent
	store    leads.Store
	sessions *SessionManager
}

func NewServer(directAgent DirectAgent, stagedAgent StagedAgent, store leads.Store, cfg Config) *Server {
	s := &Server{
		direct:   directAgent,
		staged:   stagedAgent,
		store:    store,
		sessions: NewSessionManager(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Timeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/sessions/{id}/clear", s.handleClear)
		r.Get("/leads/students", s.handleStudentLeads)
		r.Get("/leads/workshops", s.handleWorkshopLeads)
		r.Get("/leads/feedback", s.handleFeedback)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Variant   string `json:"variant"`
}

type chatResponse struct {
	SessionID      string   `json:"session_id"`
	Reply          string   `json:"reply"`
	ReasoningSteps []string `json:"reasoning_steps,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	switch req.Variant {
	case "", VariantDirect, VariantStaged:
	default:
		respondError(w, http.StatusBadRequest, "unknown variant")
		return
	}

	session := s.sessions.GetOrCreate(req.SessionID, req.Variant)
	if req.Variant != "" && req.Variant != session.Variant {
		respondError(w, http.StatusConflict, "session is pinned to the "+session.Variant+" variant")
		return
	}

	resp := chatResponse{SessionID: session.ID}
	switch session.Variant {
	case VariantDirect:
		session.WithDirectHistory(func(history []direct.Turn) []direct.Turn {
			reply, updated := s.direct.Chat(r.Context(), req.Message, history)
			resp.Reply = reply
			return updated
		})
	default:
		result := s.staged.Chat(r.Context(), session.ID, req.Message)
		resp.Reply = result.Reply
		resp.ReasoningSteps = result.ReasoningSteps
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if session := s.sessions.Get(id); session != nil {
		session.ClearDirectHistory()
	}
	// Thread clearing is idempotent; unknown ids succeed.
	if err := s.staged.ClearThread(r.Context(), id); err != nil {
		logx.Error().Str("session_id", id).Err(err).Msg("failed to clear thread")
		respondError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared", "session_id": id})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStudentLeads(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Students(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if records == nil {
		records = []leads.StudentLead{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleWorkshopLeads(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Workshops(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if records == nil {
		records = []leads.WorkshopLead{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.Feedback(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	if records == nil {
		records = []leads.Feedback{}
	}
	respondJSON(w, http.StatusOK, records)
}

func respondStoreError(w http.ResponseWriter, err error) {
	logx.Error().Err(err).Msg("lead store read failed")
	respondError(w, http.StatusInternalServerError, "failed to read leads")
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
