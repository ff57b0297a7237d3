// Package server exposes the voice banking pipeline over HTTP.
//
// Transport is deliberately thin: handlers decode JSON, call into
// internal/app, and encode JSON back. Audio travels base64-encoded inside
// the JSON bodies, which the encoding/json []byte convention handles
// natively.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaani-labs/vaani/internal/app"
	"github.com/vaani-labs/vaani/internal/observe"
	"github.com/vaani-labs/vaani/pkg/vector"
	"github.com/vaani-labs/vaani/pkg/voiceid"
)

// Server routes HTTP requests to the application pipeline.
type Server struct {
	app    *app.App
	router chi.Router
}

// New creates a Server with all routes registered. The observe middleware
// wraps every route; /metrics serves the Prometheus scrape endpoint backed
// by the OTel exporter bridge.
func New(a *app.App, metrics *observe.Metrics, checkers ...Checker) *Server {
	s := &Server{app: a}

	r := chi.NewRouter()
	r.Use(observe.Middleware(metrics))

	h := NewHealth(checkers...)
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/enroll", s.handleEnroll)
		r.Post("/verify", s.handleVerify)
		r.Post("/chat", s.handleChat)
		r.Delete("/conversations/{id}", s.handleAbandon)
	})

	s.router = r
	return s
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type enrollRequest struct {
	Identity string   `json:"identity"`
	Samples  [][]byte `json:"samples"`
}

type enrollResponse struct {
	Identity    string `json:"identity"`
	SampleCount int    `json:"sample_count"`
	Model       string `json:"model"`
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Identity == "" {
		writeError(w, http.StatusBadRequest, "identity is required")
		return
	}

	res, err := s.app.Enroll(r.Context(), req.Identity, req.Samples)
	if err != nil {
		var insufficient *voiceid.InsufficientSamplesError
		var dims *vector.DimensionError
		switch {
		case errors.As(err, &insufficient), errors.As(err, &dims), errors.Is(err, vector.ErrZeroNorm):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			observe.Logger(r.Context()).Error("enroll failed", "identity", req.Identity, "err", err)
			writeError(w, http.StatusInternalServerError, "enrollment failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, enrollResponse{
		Identity:    res.Identity,
		SampleCount: res.SampleCount,
		Model:       res.ModelID,
	})
}

type verifyRequest struct {
	Identity string `json:"identity"`
	Audio    []byte `json:"audio"`
}

type verifyResponse struct {
	Identity string  `json:"identity"`
	Verified bool    `json:"verified"`
	Score    float64 `json:"score"`
	Reason   string  `json:"reason"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Identity == "" {
		writeError(w, http.StatusBadRequest, "identity is required")
		return
	}

	decision, err := s.app.Verify(r.Context(), req.Identity, req.Audio)
	if err != nil {
		observe.Logger(r.Context()).Error("verify failed", "identity", req.Identity, "err", err)
		writeError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Identity: decision.Identity,
		Verified: decision.Verified,
		Score:    decision.Score,
		Reason:   string(decision.Reason),
	})
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Identity       string `json:"identity"`
	Audio          []byte `json:"audio"`
	Language       string `json:"language"`
}

type chatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Verified       bool     `json:"verified"`
	Reason         string   `json:"reason"`
	Score          float64  `json:"score"`
	Transcript     string   `json:"transcript,omitempty"`
	Intent         string   `json:"intent,omitempty"`
	SubIntent      string   `json:"sub_intent,omitempty"`
	Outcome        string   `json:"outcome,omitempty"`
	NextMissing    string   `json:"next_missing,omitempty"`
	Missing        []string `json:"missing,omitempty"`
	Response       string   `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Identity == "" {
		writeError(w, http.StatusBadRequest, "identity is required")
		return
	}
	if len(req.Audio) == 0 {
		writeError(w, http.StatusBadRequest, "audio is required")
		return
	}

	res, err := s.app.Chat(r.Context(), app.ChatRequest{
		ConversationID: req.ConversationID,
		Identity:       req.Identity,
		Audio:          req.Audio,
		Language:       req.Language,
	})
	if err != nil {
		observe.Logger(r.Context()).Error("chat failed", "identity", req.Identity, "err", err)
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	body := chatResponse{
		ConversationID: res.ConversationID,
		Verified:       res.Decision.Verified,
		Reason:         string(res.Decision.Reason),
		Score:          res.Decision.Score,
		Transcript:     res.Transcript,
		Intent:         string(res.Intent),
		SubIntent:      string(res.SubIntent),
		Outcome:        string(res.Outcome.Kind),
		NextMissing:    res.Outcome.NextMissing,
		Missing:        res.Outcome.Missing,
		Response:       res.Response,
	}

	// An unverified speaker gets the denial with a 403 so clients can
	// distinguish gate rejections without parsing the body.
	status := http.StatusOK
	if !res.Decision.Verified {
		status = http.StatusForbidden
	}
	writeJSON(w, status, body)
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "conversation id is required")
		return
	}
	s.app.Abandon(id)
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
