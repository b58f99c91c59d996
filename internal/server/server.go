// Package server exposes the editor over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"sitedit/internal/editor"
	"sitedit/internal/llm"
	"sitedit/internal/storage"

	"github.com/sirupsen/logrus"
)

const (
	sessionHeader  = "X-Session-ID"
	defaultSession = "default"
	maxBodyBytes   = 8 << 20
)

// Editor is the subset of editor.Service used by the handlers.
type Editor interface {
	Generate(ctx context.Context, req editor.GenerateRequest, w io.Writer) error
	FollowUp(ctx context.Context, req editor.FollowUpRequest) (*editor.FollowUpResult, error)
}

type Server struct {
	editor  Editor
	history storage.HistoryStore
	log     logrus.FieldLogger
	mux     *http.ServeMux
}

// New builds the routes. history may be nil, in which case the history
// endpoints report 404.
func New(ed Editor, history storage.HistoryStore, log logrus.FieldLogger) *Server {
	s := &Server{editor: ed, history: history, log: log, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /api/ask-ai", s.handleGenerate)
	s.mux.HandleFunc("PUT /api/ask-ai", s.handleFollowUp)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("GET /api/history/latest", s.handleLatest)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type generateRequest struct {
	Prompt           string `json:"prompt"`
	Model            string `json:"model"`
	APIKey           string `json:"apiKey"`
	RedesignMarkdown string `json:"redesignMarkdown"`
}

type followUpRequest struct {
	Prompt         string `json:"prompt"`
	PreviousPrompt string `json:"previousPrompt"`
	HTML           string `json:"html"`
	APIKey         string `json:"apiKey"`
}

type errorResponse struct {
	OK           bool   `json:"ok"`
	OpenProModal bool   `json:"openProModal,omitempty"`
	Message      string `json:"message"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fw := &flushWriter{w: w}
	err := s.editor.Generate(r.Context(), editor.GenerateRequest{
		Session:          sessionOf(r),
		Prompt:           body.Prompt,
		Model:            body.Model,
		APIKey:           body.APIKey,
		RedesignMarkdown: body.RedesignMarkdown,
	}, fw)
	if err == nil {
		return
	}

	// Once bytes are out the status line is gone; ending the body is the
	// only signal left.
	if errors.Is(err, editor.ErrStreamInterrupted) || fw.wrote {
		s.log.WithError(err).Warn("generation stream terminated early")
		return
	}
	s.writeServiceError(w, err)
}

func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	var body followUpRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.editor.FollowUp(r.Context(), editor.FollowUpRequest{
		Session:        sessionOf(r),
		Prompt:         body.Prompt,
		PreviousPrompt: body.PreviousPrompt,
		HTML:           body.HTML,
		APIKey:         body.APIKey,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"html":         res.HTML,
		"updatedLines": nonNil(res.UpdatedLines),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	session := r.URL.Query().Get("session")
	if session == "" {
		session = sessionOf(r)
	}

	entries, err := s.history.List(r.Context(), session, limit)
	if err != nil {
		s.log.WithError(err).Error("failed to list history")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []storage.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entries": entries})
}

// handleLatest returns the newest saved version so a client can resume a
// session.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	session := r.URL.Query().Get("session")
	if session == "" {
		session = sessionOf(r)
	}

	entry, err := s.history.Latest(r.Context(), session)
	if storage.IsNotFound(err) {
		s.writeError(w, http.StatusNotFound, "no history for session")
		return
	}
	if err != nil {
		s.log.WithError(err).Error("failed to load latest version")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "entry": entry})
}

type modelResponse struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Provider string `json:"provider"`
	IsNew    bool   `json:"isNew,omitempty"`
	Thinker  bool   `json:"isThinker,omitempty"`
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models := make([]modelResponse, 0, len(llm.Models))
	for _, m := range llm.Models {
		models = append(models, modelResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "models": models})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrMissingFields):
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, editor.ErrNoContent):
		s.writeError(w, http.StatusBadRequest, "No content returned from the model")
	case llm.IsQuotaExceeded(err):
		writeJSON(w, http.StatusPaymentRequired, errorResponse{OpenProModal: true, Message: err.Error()})
	default:
		s.log.WithError(err).Error("request failed")
		msg := err.Error()
		if msg == "" {
			msg = "An error occurred while processing your request."
		}
		s.writeError(w, http.StatusInternalServerError, msg)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func sessionOf(r *http.Request) string {
	if id := r.Header.Get(sessionHeader); id != "" {
		return id
	}
	return defaultSession
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// flushWriter pushes every chunk to the client as soon as it is written.
type flushWriter struct {
	w     http.ResponseWriter
	wrote bool
}

func (f *flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if n > 0 {
		f.wrote = true
	}
	if fl, ok := f.w.(http.Flusher); ok {
		fl.Flush()
	}
	return n, err
}
