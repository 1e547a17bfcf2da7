package pipeline

import (
	"context"
	"fmt"
)

// TranslationStage converts the transcript into the target language. It is a
// pure function of its inputs; persistence is the orchestrator's call.
type TranslationStage struct {
	translator Translator
	retry      RetryPolicy
}

func NewTranslationStage(t Translator, retry RetryPolicy) *TranslationStage {
	return &TranslationStage{translator: t, retry: retry}
}

func (s *TranslationStage) Run(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang {
		return "", fmt.Errorf("%w: %s", ErrInvalidLanguagePair, targetLang)
	}

	var translated string
	err := s.retry.run(ctx, func(ctx context.Context) error {
		var err error
		translated, err = s.translator.Translate(ctx, text, sourceLang, targetLang)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return translated, nil
}
