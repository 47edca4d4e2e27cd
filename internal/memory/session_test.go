package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type recordingScheduler struct {
	batches [][]SessionMessage
}

func (s *recordingScheduler) Submit(batch []SessionMessage) bool {
	s.batches = append(s.batches, batch)
	return true
}

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	m, err := NewSessionManager(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	id := m.StartSession()
	if !strings.HasPrefix(id, "session_") {
		t.Errorf("session id = %q, want session_ prefix", id)
	}

	m.AutoSaveMessage("user", "hello")
	m.AutoSaveMessage("assistant", "hi there")
	m.AutoSaveMessage("user", "bye")

	// Temp snapshot reflects the in-progress session
	if _, err := os.Stat(m.TempPath()); err != nil {
		t.Fatalf("temp snapshot missing: %v", err)
	}

	if err := m.CommitSession(); err != nil {
		t.Fatalf("CommitSession() = %v", err)
	}

	// Temp snapshot is gone, permanent record exists
	if _, err := os.Stat(m.TempPath()); !os.IsNotExist(err) {
		t.Error("temp snapshot should be removed after commit")
	}

	data, err := os.ReadFile(filepath.Join(dir, id+".json"))
	if err != nil {
		t.Fatalf("permanent record missing: %v", err)
	}

	var record struct {
		SessionID    string           `json:"session_id"`
		MessageCount int              `json:"message_count"`
		Messages     []SessionMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatal(err)
	}
	if record.SessionID != id {
		t.Errorf("session_id = %q, want %q", record.SessionID, id)
	}
	if record.MessageCount != 3 || len(record.Messages) != 3 {
		t.Errorf("message_count = %d, len = %d, want 3", record.MessageCount, len(record.Messages))
	}
	if record.Messages[0].Role != "user" || record.Messages[0].Content != "hello" {
		t.Errorf("first message = %+v", record.Messages[0])
	}

	// State is reset
	if m.SessionID() != "" || m.MessageCount() != 0 {
		t.Error("session state should reset after commit")
	}
}

func TestAutoSaveSnapshotHoldsAllMessages(t *testing.T) {
	m, err := NewSessionManager(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	id := m.StartSession()

	turns := []SessionMessage{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
		{Role: "user", Content: "bye"},
	}

	for i, turn := range turns {
		m.AutoSaveMessage(turn.Role, turn.Content)

		data, err := os.ReadFile(m.TempPath())
		if err != nil {
			t.Fatalf("snapshot missing after message %d: %v", i+1, err)
		}

		var snap struct {
			SessionID string           `json:"session_id"`
			Messages  []SessionMessage `json:"messages"`
		}
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("snapshot unreadable after message %d: %v", i+1, err)
		}
		if snap.SessionID != id {
			t.Errorf("snapshot session_id = %q, want %q", snap.SessionID, id)
		}
		if len(snap.Messages) != i+1 {
			t.Fatalf("snapshot holds %d messages after %d saves", len(snap.Messages), i+1)
		}
		for j := 0; j <= i; j++ {
			if snap.Messages[j].Role != turns[j].Role || snap.Messages[j].Content != turns[j].Content {
				t.Errorf("snapshot message %d = %+v, want %+v", j, snap.Messages[j], turns[j])
			}
		}
	}
}

func TestCommitEmptySessionIsNoOp(t *testing.T) {
	dir := t.TempDir()
	m, err := NewSessionManager(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	m.StartSession()

	if err := m.CommitSession(); err != nil {
		t.Fatalf("CommitSession() on empty session = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("empty session should write nothing, found %d entries", len(entries))
	}
}

func TestAutoSaveStartsSessionImplicitly(t *testing.T) {
	m, err := NewSessionManager(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}

	m.AutoSaveMessage("user", "hello")
	if m.SessionID() == "" {
		t.Error("auto-save without StartSession should open a session")
	}
	if m.MessageCount() != 1 {
		t.Errorf("MessageCount() = %d, want 1", m.MessageCount())
	}
}

func TestExtractionScheduledAtBatchMultiples(t *testing.T) {
	scheduler := &recordingScheduler{}
	m, err := NewSessionManager(t.TempDir(), scheduler)
	if err != nil {
		t.Fatal(err)
	}
	m.StartSession()

	for i := 1; i <= 12; i++ {
		m.AutoSaveMessage("user", fmt.Sprintf("message %d", i))
	}

	// Submissions at 5 and 10 only
	if len(scheduler.batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(scheduler.batches))
	}

	first := scheduler.batches[0]
	if len(first) != extractionBatchSize {
		t.Fatalf("batch size = %d, want %d", len(first), extractionBatchSize)
	}
	if first[0].Content != "message 1" || first[4].Content != "message 5" {
		t.Errorf("first batch = %v..%v, want messages 1..5", first[0].Content, first[4].Content)
	}

	second := scheduler.batches[1]
	if second[0].Content != "message 6" || second[4].Content != "message 10" {
		t.Errorf("second batch = %v..%v, want messages 6..10", second[0].Content, second[4].Content)
	}
}

func TestCleanupOldSessions(t *testing.T) {
	dir := t.TempDir()
	m, err := NewSessionManager(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(dir, "session_20240101_120000.json")
	newPath := filepath.Join(dir, "session_20260820_120000.json")
	otherPath := filepath.Join(dir, "notes.json")
	for _, p := range []string{oldPath, newPath, otherPath} {
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	// Age the old record and the non-session file past the cutoff
	stale := time.Now().AddDate(0, 0, -60)
	for _, p := range []string{oldPath, otherPath} {
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := m.CleanupOldSessions(30)
	if err != nil {
		t.Fatalf("CleanupOldSessions() = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("old session record should be deleted")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Error("recent session record should survive")
	}
	if _, err := os.Stat(otherPath); err != nil {
		t.Error("non-session file should never be touched")
	}
}
