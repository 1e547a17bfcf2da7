package events

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewSessionEvent(t *testing.T) {
	before := time.Now().UTC()
	e := NewSessionEvent("sess-1", "session.created")

	if e.SessionID != "sess-1" || e.EventType != "session.created" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Timestamp.Before(before) || e.Timestamp.After(time.Now().UTC()) {
		t.Errorf("timestamp not stamped: %v", e.Timestamp)
	}
}

func TestSessionEvent_Marshal(t *testing.T) {
	e := NewSessionEvent("sess-1", "session.updated")
	e.TargetLanguage = "hi-IN"

	var decoded map[string]any
	if err := json.Unmarshal(e.Marshal(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["session_id"] != "sess-1" || decoded["target_language"] != "hi-IN" {
		t.Errorf("unexpected payload: %v", decoded)
	}
	// Empty optional fields stay off the wire.
	if _, ok := decoded["filename"]; ok {
		t.Errorf("filename should be omitted: %v", decoded)
	}
}
