package pipeline

import (
	"context"
	"errors"
	"testing"
)

const validAnalysisJSON = `{
	"summary": "A short talk about monsoon farming.",
	"language_detected": "Hindi",
	"key_entities": ["Kerala", "IMD"],
	"topics": ["agriculture", "weather"],
	"tone": "Positive",
	"tone_explanation": "The speaker is optimistic about the harvest."
}`

func TestParseAnalysis_Valid(t *testing.T) {
	a, err := ParseAnalysis(validAnalysisJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Tone != TonePositive {
		t.Errorf("expected tone collapsed to positive, got %q", a.Tone)
	}
	if a.Summary == "" || a.DetectedLanguage != "Hindi" {
		t.Errorf("unexpected fields: %+v", a)
	}
	if len(a.Topics) != 2 || len(a.KeyEntities) != 2 {
		t.Errorf("unexpected arrays: %+v", a)
	}
}

func TestParseAnalysis_StripsCodeFences(t *testing.T) {
	fenced := "```json\n" + validAnalysisJSON + "\n```"
	a, err := ParseAnalysis(fenced)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if a.Tone != TonePositive {
		t.Errorf("got %+v", a)
	}
}

func TestParseAnalysis_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "the model rambled instead"},
		{"missing summary", `{"language_detected":"Hindi","key_entities":[],"topics":[],"tone":"Neutral","tone_explanation":"flat"}`},
		{"empty summary", `{"summary":"  ","language_detected":"Hindi","key_entities":[],"topics":[],"tone":"Neutral","tone_explanation":"flat"}`},
		{"missing tone", `{"summary":"s","language_detected":"Hindi","key_entities":[],"topics":[],"tone_explanation":"flat"}`},
		{"invalid tone", `{"summary":"s","language_detected":"Hindi","key_entities":[],"topics":[],"tone":"Ambivalent","tone_explanation":"flat"}`},
		{"null topics", `{"summary":"s","language_detected":"Hindi","key_entities":[],"topics":null,"tone":"Neutral","tone_explanation":"flat"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseAnalysis(tc.raw); !errors.Is(err, ErrMalformedAnalysis) {
				t.Errorf("expected ErrMalformedAnalysis, got %v", err)
			}
		})
	}
}

func TestParseAnalysis_ToneCaseInsensitive(t *testing.T) {
	raw := `{"summary":"s","language_detected":"Tamil","key_entities":[],"topics":["t"],"tone":"NEGATIVE","tone_explanation":"harsh"}`
	a, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Tone != ToneNegative {
		t.Errorf("expected negative, got %q", a.Tone)
	}
}

type analyzerFunc func(ctx context.Context, transcript string) (string, error)

func (f analyzerFunc) Analyse(ctx context.Context, transcript string) (string, error) {
	return f(ctx, transcript)
}

func TestAnalysisStage_Run(t *testing.T) {
	stage := NewAnalysisStage(analyzerFunc(func(_ context.Context, transcript string) (string, error) {
		if transcript == "" {
			t.Error("stage forwarded an empty transcript")
		}
		return validAnalysisJSON, nil
	}), testRetry())

	a, err := stage.Run(context.Background(), "some transcript")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if a.Tone != TonePositive {
		t.Errorf("got %+v", a)
	}
}

func TestAnalysisStage_CallFailure(t *testing.T) {
	stage := NewAnalysisStage(analyzerFunc(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("model offline")
	}), testRetry())

	if _, err := stage.Run(context.Background(), "text"); err == nil {
		t.Fatal("expected error")
	}
}
