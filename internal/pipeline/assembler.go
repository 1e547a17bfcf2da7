package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/knightsri/sarvam-explorer/internal/audio"
)

// Assembler dispatches chunk transcriptions concurrently and reassembles the
// results strictly by chunk index, independent of completion order.
type Assembler struct {
	asr         Transcriber
	concurrency int
	retry       RetryPolicy
}

// NewAssembler wires the assembler to an ASR collaborator. Concurrency bounds
// how many chunk requests are in flight at once.
func NewAssembler(asr Transcriber, concurrency int, retry RetryPolicy) *Assembler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Assembler{asr: asr, concurrency: concurrency, retry: retry}
}

// Assemble transcribes every chunk and joins the segment texts in index order
// with a single separating space. The returned language code is the first
// non-empty detection echoed by the service, falling back to the hint.
//
// Results land in a fixed slot array sized to the chunk count; assembly is
// complete only when every slot is filled. Any chunk that exhausts its retry
// budget fails the whole assembly.
func (a *Assembler) Assemble(ctx context.Context, chunks []audio.Chunk, languageHint string) (string, string, error) {
	if len(chunks) == 0 {
		return "", "", ErrEmptyTranscript
	}

	slots := make([]TranscribeResult, len(chunks))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, a.concurrency)

	for _, c := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(c audio.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()

			var res TranscribeResult
			err := a.retry.run(ctx, func(ctx context.Context) error {
				var err error
				res, err = a.asr.Transcribe(ctx, c.Payload, languageHint)
				return err
			})
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = &TranscriptionError{ChunkIndex: c.Index, Err: err}
				}
				mu.Unlock()
				cancel()
				return
			}
			slots[c.Index] = res
		}(c)
	}
	wg.Wait()

	if firstErr != nil {
		return "", "", firstErr
	}

	texts := make([]string, len(slots))
	detected := languageHint
	sawLang := false
	for i, s := range slots {
		texts[i] = s.Text
		if !sawLang && s.LanguageCode != "" && s.Text != "" {
			detected = s.LanguageCode
			sawLang = true
		}
	}

	slog.Info("transcript assembled", "chunks", len(chunks), "language", detected)
	return strings.Join(texts, " "), detected, nil
}
