package events

import (
	"encoding/json"
	"time"
)

// PublishFunc sends a payload to a subject. A nil PublishFunc disables
// lifecycle events entirely.
type PublishFunc func(subject string, data []byte) error

// Subjects for session lifecycle events.
const (
	SubjectSessionCreated = "sarvam.session.created"
	SubjectSessionUpdated = "sarvam.session.updated"
	SubjectSessionDeleted = "sarvam.session.deleted"
)

// SessionEvent is the payload published on session lifecycle subjects.
type SessionEvent struct {
	SessionID      string    `json:"session_id"`
	EventType      string    `json:"event_type"`
	Timestamp      time.Time `json:"timestamp"`
	Filename       string    `json:"filename,omitempty"`
	Language       string    `json:"language,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty"`
}

// NewSessionEvent stamps an event with the current UTC time.
func NewSessionEvent(sessionID, eventType string) SessionEvent {
	return SessionEvent{
		SessionID: sessionID,
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// Marshal renders the event payload; it never fails for this shape.
func (e SessionEvent) Marshal() []byte {
	data, _ := json.Marshal(e)
	return data
}
