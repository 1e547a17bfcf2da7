package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/knightsri/sarvam-explorer/internal/store"
)

// MockSessionStore is a thread-safe in-memory implementation of
// store.SessionStore for testing.
type MockSessionStore struct {
	mu sync.Mutex

	Sessions map[string]store.Session

	CreateErr error
	UpdateErr error

	CreateCalls int
	UpdateCalls int
	DeleteCalls int
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		Sessions: make(map[string]store.Session),
	}
}

func (m *MockSessionStore) Create(_ context.Context, sess store.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Sessions[sess.ID] = sess
	return nil
}

func (m *MockSessionStore) Get(_ context.Context, id string) (store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.Sessions[id]
	if !ok {
		return store.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (m *MockSessionStore) List(_ context.Context) ([]store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions := make([]store.Session, 0, len(m.Sessions))
	for _, sess := range m.Sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (m *MockSessionStore) UpdateTranslation(_ context.Context, id, targetLanguage, translatedText string, audioFilename *string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	sess, ok := m.Sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	prev := sess.AudioFilename
	sess.TargetLanguage = &targetLanguage
	sess.TranslatedText = &translatedText
	sess.AudioFilename = audioFilename
	m.Sessions[id] = sess
	return prev, nil
}

func (m *MockSessionStore) Delete(_ context.Context, id string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	sess, ok := m.Sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(m.Sessions, id)
	return sess.AudioFilename, nil
}

func (m *MockSessionStore) Close() {}

// Count returns how many sessions are stored.
func (m *MockSessionStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sessions)
}
