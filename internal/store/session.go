package store

import (
	"encoding/json"
	"time"
)

// Session is one durable pipeline run: the transcript and analysis written
// once when step 1 completes, plus the optional translation/speech fields
// set (or replaced) by step 2.
type Session struct {
	ID                    string          `json:"id"`
	CreatedAt             time.Time       `json:"created_at"`
	Filename              string          `json:"filename"`
	TranscriptionLanguage string          `json:"transcription_language"`
	Transcript            string          `json:"transcript"`
	Analysis              json.RawMessage `json:"analysis"`
	TargetLanguage        *string         `json:"target_language"`
	TranslatedText        *string         `json:"translated_text"`
	AudioFilename         *string         `json:"audio_filename"`
}
