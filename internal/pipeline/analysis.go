package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tone is the fixed sentiment enumeration the analysis must collapse to.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// Analysis is the structured result of the LLM stage. Every field is
// required; a partial analysis is not a valid one.
type Analysis struct {
	Summary          string   `json:"summary"`
	DetectedLanguage string   `json:"language_detected"`
	KeyEntities      []string `json:"key_entities"`
	Topics           []string `json:"topics"`
	Tone             Tone     `json:"tone"`
	ToneExplanation  string   `json:"tone_explanation"`
}

// AnalysisStage sends the assembled transcript to the LLM collaborator and
// strictly validates the fixed-shape payload it returns.
type AnalysisStage struct {
	llm   Analyzer
	retry RetryPolicy
}

func NewAnalysisStage(llm Analyzer, retry RetryPolicy) *AnalysisStage {
	return &AnalysisStage{llm: llm, retry: retry}
}

func (s *AnalysisStage) Run(ctx context.Context, transcript string) (Analysis, error) {
	var raw string
	err := s.retry.run(ctx, func(ctx context.Context) error {
		var err error
		raw, err = s.llm.Analyse(ctx, transcript)
		return err
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("analysis call: %w", err)
	}
	return ParseAnalysis(raw)
}

// ParseAnalysis validates the model's raw content against the required
// shape. Markdown code fences are tolerated; everything else is strict:
// a missing field, an empty required string, or an unknown tone fails with
// ErrMalformedAnalysis rather than defaulting.
func ParseAnalysis(raw string) (Analysis, error) {
	clean := stripFences(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &fields); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}
	for _, key := range []string{"summary", "language_detected", "key_entities", "topics", "tone", "tone_explanation"} {
		if _, ok := fields[key]; !ok {
			return Analysis{}, fmt.Errorf("%w: missing field %q", ErrMalformedAnalysis, key)
		}
	}

	var a Analysis
	if err := json.Unmarshal([]byte(clean), &a); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrMalformedAnalysis, err)
	}

	if strings.TrimSpace(a.Summary) == "" {
		return Analysis{}, fmt.Errorf("%w: empty summary", ErrMalformedAnalysis)
	}
	if strings.TrimSpace(a.DetectedLanguage) == "" {
		return Analysis{}, fmt.Errorf("%w: empty language_detected", ErrMalformedAnalysis)
	}
	if strings.TrimSpace(a.ToneExplanation) == "" {
		return Analysis{}, fmt.Errorf("%w: empty tone_explanation", ErrMalformedAnalysis)
	}
	if a.KeyEntities == nil || a.Topics == nil {
		return Analysis{}, fmt.Errorf("%w: key_entities and topics must be arrays", ErrMalformedAnalysis)
	}

	switch Tone(strings.ToLower(string(a.Tone))) {
	case TonePositive:
		a.Tone = TonePositive
	case ToneNegative:
		a.Tone = ToneNegative
	case ToneNeutral:
		a.Tone = ToneNeutral
	default:
		return Analysis{}, fmt.Errorf("%w: invalid tone %q", ErrMalformedAnalysis, a.Tone)
	}

	return a, nil
}

// stripFences removes a markdown code fence wrapper if the model added one.
func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}
	parts := strings.SplitN(clean, "```", 3)
	if len(parts) < 2 {
		return clean
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}
