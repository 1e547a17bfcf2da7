package store

import "context"

// SessionStore is the interface consumed by the pipeline orchestrator and
// the API. The concrete implementation is *Store (pgx-backed).
type SessionStore interface {
	Create(ctx context.Context, sess Session) error
	Get(ctx context.Context, id string) (Session, error)
	List(ctx context.Context) ([]Session, error)
	UpdateTranslation(ctx context.Context, id, targetLanguage, translatedText string, audioFilename *string) (*string, error)
	Delete(ctx context.Context, id string) (*string, error)
	Close()
}
