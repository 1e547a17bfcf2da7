package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no session exists for the given id.
var ErrNotFound = errors.New("session not found")

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id                     TEXT PRIMARY KEY,
			created_at             TIMESTAMPTZ NOT NULL,
			filename               TEXT NOT NULL,
			transcription_language TEXT NOT NULL,
			transcript             TEXT NOT NULL,
			analysis_json          JSONB NOT NULL,
			target_language        TEXT,
			translated_text        TEXT,
			audio_filename         TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure sessions table: %w", err)
	}
	return nil
}

// Create inserts a new session record.
func (s *Store) Create(ctx context.Context, sess Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions
			(id, created_at, filename, transcription_language, transcript, analysis_json)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sess.ID, sess.CreatedAt, sess.Filename, sess.TranscriptionLanguage, sess.Transcript, sess.Analysis)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const sessionColumns = `id, created_at, filename, transcription_language, transcript, analysis_json, target_language, translated_text, audio_filename`

// Get returns a single session by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// List returns all sessions, newest first.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// UpdateTranslation replaces the step-2 fields of a session and returns the
// audio filename it displaced, so the caller can remove the superseded file.
func (s *Store) UpdateTranslation(ctx context.Context, id, targetLanguage, translatedText string, audioFilename *string) (*string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	var prev *string
	err = tx.QueryRow(ctx, `SELECT audio_filename FROM sessions WHERE id = $1 FOR UPDATE`, id).Scan(&prev)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE sessions
		SET target_language = $2,
		    translated_text = $3,
		    audio_filename  = $4
		WHERE id = $1
	`, id, targetLanguage, translatedText, audioFilename)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return prev, nil
}

// Delete removes the session row and returns its audio filename, if any.
// The row is gone before the caller touches the file, so a racing reader can
// at worst observe a dangling file, never a dangling record.
func (s *Store) Delete(ctx context.Context, id string) (*string, error) {
	var audioFilename *string
	err := s.pool.QueryRow(ctx, `DELETE FROM sessions WHERE id = $1 RETURNING audio_filename`, id).Scan(&audioFilename)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	return audioFilename, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var sess Session
	err := row.Scan(
		&sess.ID,
		&sess.CreatedAt,
		&sess.Filename,
		&sess.TranscriptionLanguage,
		&sess.Transcript,
		&sess.Analysis,
		&sess.TargetLanguage,
		&sess.TranslatedText,
		&sess.AudioFilename,
	)
	return sess, err
}
