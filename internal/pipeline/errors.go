package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedAnalysis means the LLM payload failed strict validation.
	ErrMalformedAnalysis = errors.New("analysis payload is malformed")
	// ErrInvalidLanguagePair means source and target language are equal.
	ErrInvalidLanguagePair = errors.New("target language must differ from source language")
	// ErrSpeechSynthesisFailed marks the one isolated failure: translation
	// survives it, only the audio artifact is lost.
	ErrSpeechSynthesisFailed = errors.New("speech synthesis failed")
	// ErrEmptyTranscript means every chunk transcribed to silence.
	ErrEmptyTranscript = errors.New("audio produced an empty transcript")
)

// TranscriptionError reports which chunk exhausted its retry budget. Any
// single chunk failure fails the whole assembly.
type TranscriptionError struct {
	ChunkIndex int
	Err        error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed for chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
