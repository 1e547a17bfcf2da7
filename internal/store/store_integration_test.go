package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func skipWithoutDB(t *testing.T) string {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return url
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	url := skipWithoutDB(t)
	ctx := context.Background()
	s, err := New(ctx, url)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSession() Session {
	return Session{
		ID:                    uuid.New().String(),
		CreatedAt:             time.Now().UTC().Truncate(time.Microsecond),
		Filename:              "integration.mp3",
		TranscriptionLanguage: "hi-IN",
		Transcript:            "एक छोटा परीक्षण",
		Analysis:              json.RawMessage(`{"summary":"test","tone":"neutral"}`),
	}
}

func TestIntegration_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sess := testSession()
	if err := s.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { s.Delete(ctx, sess.ID) })

	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Filename != sess.Filename || got.Transcript != sess.Transcript {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.TranscriptionLanguage != "hi-IN" {
		t.Errorf("got language %q", got.TranscriptionLanguage)
	}
	if got.TargetLanguage != nil || got.TranslatedText != nil || got.AudioFilename != nil {
		t.Errorf("step-2 fields should start null: %+v", got)
	}
}

func TestIntegration_GetMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get(context.Background(), uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIntegration_ListNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	older := testSession()
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testSession()
	for _, sess := range []Session{older, newer} {
		if err := s.Create(ctx, sess); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	t.Cleanup(func() {
		s.Delete(ctx, older.ID)
		s.Delete(ctx, newer.ID)
	})

	sessions, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var olderPos, newerPos int
	for i, sess := range sessions {
		switch sess.ID {
		case older.ID:
			olderPos = i
		case newer.ID:
			newerPos = i
		}
	}
	if newerPos > olderPos {
		t.Errorf("expected newest first: newer at %d, older at %d", newerPos, olderPos)
	}
}

func TestIntegration_UpdateTranslation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sess := testSession()
	if err := s.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { s.Delete(ctx, sess.ID) })

	first := "first.mp3"
	prev, err := s.UpdateTranslation(ctx, sess.ID, "ta-IN", "முதல்", &first)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if prev != nil {
		t.Errorf("expected no prior audio, got %v", *prev)
	}

	second := "second.mp3"
	prev, err = s.UpdateTranslation(ctx, sess.ID, "te-IN", "రెండవ", &second)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if prev == nil || *prev != first {
		t.Errorf("expected prior audio %q, got %v", first, prev)
	}

	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TargetLanguage == nil || *got.TargetLanguage != "te-IN" {
		t.Errorf("target language not replaced: %+v", got)
	}
	if got.AudioFilename == nil || *got.AudioFilename != second {
		t.Errorf("audio filename not replaced: %+v", got)
	}
}

func TestIntegration_UpdateTranslationMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.UpdateTranslation(context.Background(), uuid.New().String(), "hi-IN", "text", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIntegration_Delete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sess := testSession()
	if err := s.Create(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	audio := "generated.mp3"
	if _, err := s.UpdateTranslation(ctx, sess.ID, "hi-IN", "text", &audio); err != nil {
		t.Fatalf("update: %v", err)
	}

	filename, err := s.Delete(ctx, sess.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if filename == nil || *filename != audio {
		t.Errorf("expected audio filename back, got %v", filename)
	}

	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Error("session should be gone")
	}
	if _, err := s.Delete(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
