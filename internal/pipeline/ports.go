package pipeline

import "context"

// TranscribeResult is one chunk's transcription plus the language the ASR
// service detected.
type TranscribeResult struct {
	Text         string
	LanguageCode string
}

// Transcriber converts one encoded audio chunk to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageHint string) (TranscribeResult, error)
}

// Analyzer runs the structured-analysis prompt over a transcript and returns
// the model's raw text content. Parsing and validation happen in this package.
type Analyzer interface {
	Analyse(ctx context.Context, transcript string) (string, error)
}

// Translator converts text between languages.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Synthesizer renders text as speech and returns encoded WAV bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, targetLang string) ([]byte, error)
}
