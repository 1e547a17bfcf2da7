package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/knightsri/sarvam-explorer/internal/audio"
	"github.com/knightsri/sarvam-explorer/internal/pipeline"
	"github.com/knightsri/sarvam-explorer/internal/store"
)

// maxUploadBytes bounds multipart memory for /api/analyse uploads.
const maxUploadBytes = 64 << 20

// Pipeline is the orchestrator surface the API needs.
type Pipeline interface {
	Analyse(ctx context.Context, uploadPath, originalFilename, languageHint string) (pipeline.AnalyseResult, error)
	TranslateAndSpeak(ctx context.Context, sessionID, targetLang string) (pipeline.TranslateAndSpeakResult, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

type Server struct {
	pipeline   Pipeline
	store      store.SessionStore
	router     chi.Router
	httpServer *http.Server
	uploadsDir string
	outputsDir string
	port       int
}

func NewServer(p Pipeline, s store.SessionStore, port int, uploadsDir, outputsDir string) *Server {
	srv := &Server{
		pipeline:   p,
		store:      s,
		uploadsDir: uploadsDir,
		outputsDir: outputsDir,
		port:       port,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", srv.handleHealth)
		r.Post("/analyse", srv.handleAnalyse)
		r.Post("/translate-and-speak", srv.handleTranslateAndSpeak)
		r.Get("/sessions", srv.handleListSessions)
		r.Delete("/sessions/{sessionID}", srv.handleDeleteSession)
		r.Get("/audio/{filename}", srv.handleAudio)
	})

	srv.router = r
	return srv
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	slog.Info("starting HTTP API", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "sarvam-explorer",
	})
}

func (s *Server) handleAnalyse(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	languageHint := r.FormValue("transcription_language")
	if languageHint == "" {
		languageHint = "en-IN"
	}

	suffix := filepath.Ext(header.Filename)
	if suffix == "" {
		suffix = ".mp3"
	}
	uploadPath := filepath.Join(s.uploadsDir, uuid.New().String()+suffix)

	dst, err := os.Create(uploadPath)
	if err != nil {
		slog.Error("failed to stage upload", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if _, err := dst.ReadFrom(file); err != nil {
		dst.Close()
		os.Remove(uploadPath)
		slog.Error("failed to write upload", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	dst.Close()

	res, err := s.pipeline.Analyse(r.Context(), uploadPath, header.Filename, languageHint)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transcript":    res.Transcript,
		"language_code": res.LanguageCode,
		"analysis":      res.Analysis,
		"session_id":    res.SessionID,
		"truncated":     res.Truncated,
	})
}

type translateRequest struct {
	SessionID      string `json:"session_id"`
	TargetLanguage string `json:"target_language"`
}

func (s *Server) handleTranslateAndSpeak(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.SessionID == "" || req.TargetLanguage == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id and target_language are required"})
		return
	}

	res, err := s.pipeline.TranslateAndSpeak(r.Context(), req.SessionID, req.TargetLanguage)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := map[string]any{
		"translated_text": res.TranslatedText,
		"audio_url":       nil,
	}
	if res.AudioFilename != "" {
		body["audio_url"] = "/api/audio/" + res.AudioFilename
	}
	if res.Warning != "" {
		body["tts_error"] = res.Warning
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.List(r.Context())
	if err != nil {
		slog.Error("list sessions failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.pipeline.DeleteSession(r.Context(), sessionID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	// Strip any directory components before touching the filesystem.
	safeName := filepath.Base(chi.URLParam(r, "filename"))
	path := filepath.Join(s.outputsDir, safeName)

	if _, err := os.Stat(path); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "audio file not found"})
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

// writeError maps the pipeline error taxonomy onto HTTP statuses so callers
// can distinguish bad input from retryable service trouble.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var tErr *pipeline.TranscriptionError

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
	case errors.Is(err, audio.ErrUnsupportedFormat):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "could not decode audio file"})
	case errors.Is(err, audio.ErrEmptyAudio):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "audio has zero duration"})
	case errors.Is(err, pipeline.ErrEmptyTranscript):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "could not transcribe audio - check file quality or language support"})
	case errors.Is(err, pipeline.ErrMalformedAnalysis):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "analysis service returned a malformed result"})
	case errors.Is(err, pipeline.ErrInvalidLanguagePair):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "target language must differ from source language"})
	case errors.As(err, &tErr):
		slog.Error("transcription failed", "chunk", tErr.ChunkIndex, "error", tErr)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": "transcription failed",
			"chunk": tErr.ChunkIndex,
		})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ShutdownTimeout bounds graceful shutdown from main.
const ShutdownTimeout = 10 * time.Second
