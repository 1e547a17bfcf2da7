package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/knightsri/sarvam-explorer/internal/audio"
)

// ttsMaxChars is the TTS service's per-request input ceiling.
const ttsMaxChars = 500

// SpeechStage renders translated text as speech. Long text is cut into
// sentence-boundary pieces under the service limit, synthesized piecewise,
// and the WAV payloads are concatenated and re-encoded as one MP3.
type SpeechStage struct {
	tts      Synthesizer
	retry    RetryPolicy
	maxChars int
}

func NewSpeechStage(tts Synthesizer, retry RetryPolicy) *SpeechStage {
	return &SpeechStage{tts: tts, retry: retry, maxChars: ttsMaxChars}
}

// Run returns the encoded MP3 bytes and a derived filename. Every failure
// surfaces wrapped in ErrSpeechSynthesisFailed so the orchestrator can keep
// the translation result and degrade gracefully.
func (s *SpeechStage) Run(ctx context.Context, text, targetLang string) ([]byte, string, error) {
	pieces := splitSpeechText(text, s.maxChars)

	clips := make([]audio.Clip, 0, len(pieces))
	for _, piece := range pieces {
		var wavBytes []byte
		err := s.retry.run(ctx, func(ctx context.Context) error {
			var err error
			wavBytes, err = s.tts.Synthesize(ctx, piece, targetLang)
			return err
		})
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrSpeechSynthesisFailed, err)
		}

		clip, err := audio.DecodeWAV(wavBytes)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrSpeechSynthesisFailed, err)
		}
		clips = append(clips, clip)
	}

	combined, err := audio.Concat(clips...)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSpeechSynthesisFailed, err)
	}
	data, err := audio.EncodeMP3(combined)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSpeechSynthesisFailed, err)
	}

	return data, uuid.New().String() + ".mp3", nil
}

// splitSpeechText cuts text into pieces of at most maxChars characters,
// preferring sentence boundaries. A single oversized sentence is hard-split
// on character count.
func splitSpeechText(text string, maxChars int) []string {
	if utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var pieces []string
	current := ""
	for _, sentence := range splitSentences(text) {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence)+1 <= maxChars {
			current = strings.TrimSpace(current + " " + sentence)
			continue
		}
		if current != "" {
			pieces = append(pieces, current)
			current = ""
		}
		if utf8.RuneCountInString(sentence) > maxChars {
			runes := []rune(sentence)
			for len(runes) > maxChars {
				pieces = append(pieces, string(runes[:maxChars]))
				runes = runes[maxChars:]
			}
			current = strings.TrimSpace(string(runes))
		} else {
			current = sentence
		}
	}
	if current != "" {
		pieces = append(pieces, current)
	}
	return pieces
}

// splitSentences breaks text after sentence terminators (including the
// devantagari danda) followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isSentenceEnd(runes[i]) {
			continue
		}
		// Consume the terminator run, then break on following whitespace.
		j := i
		for j+1 < len(runes) && isSentenceEnd(runes[j+1]) {
			j++
		}
		if j+1 < len(runes) && (runes[j+1] == ' ' || runes[j+1] == '\n' || runes[j+1] == '\t') {
			sentences = append(sentences, strings.TrimSpace(string(runes[start:j+1])))
			start = j + 2
		}
		i = j
	}
	if start < len(runes) {
		tail := strings.TrimSpace(string(runes[start:]))
		if tail != "" {
			sentences = append(sentences, tail)
		}
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '।'
}
