package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/knightsri/sarvam-explorer/internal/audio"
	"github.com/knightsri/sarvam-explorer/internal/events"
	"github.com/knightsri/sarvam-explorer/internal/store"
)

// Chunker turns an uploaded audio file into ordered transcription chunks.
// The boolean result reports whether the source was trimmed to the cap.
type Chunker interface {
	SplitFile(path string, maxSeconds float64) ([]audio.Chunk, bool, error)
}

// Orchestrator sequences the pipeline stages into the two user-facing
// operations and owns every cross-stage decision: failure policy, session
// persistence, and upload/output file hygiene.
type Orchestrator struct {
	chunker     Chunker
	assembler   *Assembler
	analysis    *AnalysisStage
	translation *TranslationStage
	speech      *SpeechStage
	sessions    store.SessionStore
	outputsDir  string
	maxSeconds  float64
	publish     events.PublishFunc
}

type OrchestratorConfig struct {
	OutputsDir string
	MaxSeconds float64 // upload duration cap; 0 disables trimming
}

func NewOrchestrator(
	chunker Chunker,
	assembler *Assembler,
	analysis *AnalysisStage,
	translation *TranslationStage,
	speech *SpeechStage,
	sessions store.SessionStore,
	cfg OrchestratorConfig,
) *Orchestrator {
	return &Orchestrator{
		chunker:     chunker,
		assembler:   assembler,
		analysis:    analysis,
		translation: translation,
		speech:      speech,
		sessions:    sessions,
		outputsDir:  cfg.OutputsDir,
		maxSeconds:  cfg.MaxSeconds,
	}
}

// SetPublisher enables lifecycle events. Publishing failures are logged,
// never surfaced.
func (o *Orchestrator) SetPublisher(fn events.PublishFunc) {
	o.publish = fn
}

// AnalyseResult is the outcome of a successful step 1.
type AnalyseResult struct {
	SessionID    string
	Transcript   string
	LanguageCode string
	Analysis     Analysis
	Truncated    bool
}

// Analyse runs split, transcribe, and analyse in strict sequence. Any stage
// failure aborts the whole operation with no session written. The uploaded
// file is removed before returning regardless of outcome.
func (o *Orchestrator) Analyse(ctx context.Context, uploadPath, originalFilename, languageHint string) (AnalyseResult, error) {
	defer func() {
		if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove upload", "path", uploadPath, "error", err)
		}
	}()

	chunks, truncated, err := o.chunker.SplitFile(uploadPath, o.maxSeconds)
	if err != nil {
		return AnalyseResult{}, err
	}
	slog.Info("audio split", "chunks", len(chunks), "truncated", truncated)

	transcript, detectedLang, err := o.assembler.Assemble(ctx, chunks, languageHint)
	if err != nil {
		return AnalyseResult{}, err
	}
	if strings.TrimSpace(transcript) == "" {
		return AnalyseResult{}, ErrEmptyTranscript
	}

	analysis, err := o.analysis.Run(ctx, transcript)
	if err != nil {
		return AnalyseResult{}, err
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return AnalyseResult{}, fmt.Errorf("marshal analysis: %w", err)
	}

	sess := store.Session{
		ID:                    uuid.New().String(),
		CreatedAt:             time.Now().UTC(),
		Filename:              originalFilename,
		TranscriptionLanguage: detectedLang,
		Transcript:            transcript,
		Analysis:              analysisJSON,
	}
	if err := o.sessions.Create(ctx, sess); err != nil {
		return AnalyseResult{}, fmt.Errorf("persist session: %w", err)
	}

	o.emit(events.SubjectSessionCreated, func(e *events.SessionEvent) {
		e.Filename = originalFilename
		e.Language = detectedLang
	}, sess.ID, "session.created")

	slog.Info("session created", "session_id", sess.ID, "language", detectedLang)

	return AnalyseResult{
		SessionID:    sess.ID,
		Transcript:   transcript,
		LanguageCode: detectedLang,
		Analysis:     analysis,
		Truncated:    truncated,
	}, nil
}

// TranslateAndSpeakResult is the outcome of step 2. AudioFilename is empty
// when synthesis failed; Warning then carries the reason.
type TranslateAndSpeakResult struct {
	TranslatedText string
	AudioFilename  string
	Warning        string
}

// TranslateAndSpeak loads the session, translates its transcript, and
// synthesizes speech. Translation success is persisted unconditionally; the
// audio path only when synthesis also succeeded. Re-running with a different
// target replaces the prior step-2 fields and removes the superseded file.
func (o *Orchestrator) TranslateAndSpeak(ctx context.Context, sessionID, targetLang string) (TranslateAndSpeakResult, error) {
	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return TranslateAndSpeakResult{}, err
	}

	translated, err := o.translation.Run(ctx, sess.Transcript, sess.TranscriptionLanguage, targetLang)
	if err != nil {
		return TranslateAndSpeakResult{}, err
	}

	res := TranslateAndSpeakResult{TranslatedText: translated}

	var audioFilename *string
	data, filename, synthErr := o.speech.Run(ctx, translated, targetLang)
	if synthErr == nil {
		path := filepath.Join(o.outputsDir, filename)
		if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
			synthErr = fmt.Errorf("%w: %v", ErrSpeechSynthesisFailed, writeErr)
		} else {
			audioFilename = &filename
			res.AudioFilename = filename
		}
	}
	if synthErr != nil {
		slog.Warn("speech synthesis failed, returning translation only",
			"session_id", sessionID,
			"target_language", targetLang,
			"error", synthErr,
		)
		res.Warning = synthErr.Error()
	}

	prev, err := o.sessions.UpdateTranslation(ctx, sessionID, targetLang, translated, audioFilename)
	if err != nil {
		return TranslateAndSpeakResult{}, fmt.Errorf("persist translation: %w", err)
	}
	if prev != nil && (audioFilename == nil || *prev != *audioFilename) {
		o.removeOutput(*prev)
	}

	o.emit(events.SubjectSessionUpdated, func(e *events.SessionEvent) {
		e.TargetLanguage = targetLang
	}, sessionID, "session.updated")

	return res, nil
}

// DeleteSession removes the session record and, after the row is gone, its
// generated audio file. A missing file is treated as already clean.
func (o *Orchestrator) DeleteSession(ctx context.Context, sessionID string) error {
	audioFilename, err := o.sessions.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if audioFilename != nil {
		o.removeOutput(*audioFilename)
	}

	o.emit(events.SubjectSessionDeleted, nil, sessionID, "session.deleted")
	return nil
}

func (o *Orchestrator) removeOutput(filename string) {
	// Path-traversal guard: only the basename is honored.
	path := filepath.Join(o.outputsDir, filepath.Base(filename))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove output audio", "path", path, "error", err)
	}
}

func (o *Orchestrator) emit(subject string, fill func(*events.SessionEvent), sessionID, eventType string) {
	if o.publish == nil {
		return
	}
	e := events.NewSessionEvent(sessionID, eventType)
	if fill != nil {
		fill(&e)
	}
	if err := o.publish(subject, e.Marshal()); err != nil {
		slog.Warn("failed to publish session event", "subject", subject, "error", err)
	}
}
