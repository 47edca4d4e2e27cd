package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hession/sidekick/internal/logger"
)

const (
	// extractionBatchSize is the auto-save interval at which the last
	// messages are handed to the fact-extraction worker
	extractionBatchSize = 5

	// tempSessionFile is the crash-recovery snapshot, overwritten on
	// every auto-saved turn and deleted on commit
	tempSessionFile = "current_session.json"

	sessionFilePrefix = "session_"
)

// SessionMessage is one durable conversation turn
type SessionMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// sessionSnapshot is the temp crash-recovery file layout
type sessionSnapshot struct {
	SessionID string           `json:"session_id"`
	StartedAt time.Time        `json:"started_at"`
	Messages  []SessionMessage `json:"messages"`
}

// sessionRecord is the permanent per-session file layout
type sessionRecord struct {
	SessionID    string           `json:"session_id"`
	Timestamp    time.Time        `json:"timestamp"`
	MessageCount int              `json:"message_count"`
	Messages     []SessionMessage `json:"messages"`
}

// ExtractionScheduler receives immutable message-batch snapshots for
// background fact extraction. Submit must not block the caller.
type ExtractionScheduler interface {
	Submit(batch []SessionMessage) bool
}

// SessionManager owns the crash-recoverable in-progress session and its
// commit-to-permanent-storage lifecycle. At most one session is open at a
// time; every auto-saved turn overwrites the temp snapshot so it always
// reflects the last completed turn.
type SessionManager struct {
	dir       string
	scheduler ExtractionScheduler

	mu        sync.Mutex
	id        string
	startedAt time.Time
	messages  []SessionMessage
}

// NewSessionManager creates a session manager storing sessions in dir.
// scheduler may be nil to disable fact extraction.
func NewSessionManager(dir string, scheduler ExtractionScheduler) (*SessionManager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &SessionManager{
		dir:       dir,
		scheduler: scheduler,
	}, nil
}

// StartSession opens a new session and returns its time-derived id.
// Any previous in-memory session state is discarded.
func (m *SessionManager) StartSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked()
}

func (m *SessionManager) startLocked() string {
	now := time.Now()
	m.id = sessionFilePrefix + now.Format("20060102_150405")
	m.startedAt = now
	m.messages = nil
	return m.id
}

// SessionID returns the current session id, or "" when none is open
func (m *SessionManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// MessageCount returns the number of messages in the open session
func (m *SessionManager) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// AutoSaveMessage appends one turn and synchronously overwrites the temp
// crash-recovery snapshot. Snapshot I/O failures are logged, never raised:
// losing one snapshot write must not break the conversation. When the new
// message count reaches a positive multiple of the extraction batch size,
// the last batch is submitted to the extraction scheduler.
func (m *SessionManager) AutoSaveMessage(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.id == "" {
		m.startLocked()
	}

	m.messages = append(m.messages, SessionMessage{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})

	if err := m.writeSnapshotLocked(); err != nil {
		logger.Error("session auto-save failed: %v", err)
	}

	count := len(m.messages)
	if count > 0 && count%extractionBatchSize == 0 && m.scheduler != nil {
		batch := make([]SessionMessage, extractionBatchSize)
		copy(batch, m.messages[count-extractionBatchSize:])
		m.scheduler.Submit(batch)
	}
}

func (m *SessionManager) writeSnapshotLocked() error {
	snapshot := sessionSnapshot{
		SessionID: m.id,
		StartedAt: m.startedAt,
		Messages:  m.messages,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session snapshot: %w", err)
	}
	if err := os.WriteFile(m.TempPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write session snapshot: %w", err)
	}
	return nil
}

// CommitSession writes the open session to its permanent file, deletes the
// temp snapshot and resets in-memory state. A session with no messages is a
// no-op. On write failure the in-memory session is preserved so the caller
// can retry.
func (m *SessionManager) CommitSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.messages) == 0 {
		return nil
	}

	record := sessionRecord{
		SessionID:    m.id,
		Timestamp:    time.Now(),
		MessageCount: len(m.messages),
		Messages:     m.messages,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		logger.Error("session commit failed: %v", err)
		return fmt.Errorf("failed to serialize session record: %w", err)
	}

	path := filepath.Join(m.dir, m.id+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Error("session commit failed: %v", err)
		return fmt.Errorf("failed to write session record: %w", err)
	}

	if err := os.Remove(m.TempPath()); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove session snapshot: %v", err)
	}

	m.id = ""
	m.messages = nil
	return nil
}

// TempPath returns the path of the crash-recovery snapshot file
func (m *SessionManager) TempPath() string {
	return filepath.Join(m.dir, tempSessionFile)
}

// CleanupOldSessions deletes permanent session records older than the given
// number of days, judged by file modification time. Best effort: per-file
// failures are logged and skipped. Returns the number of records removed.
func (m *SessionManager) CleanupOldSessions(days int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read session directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, sessionFilePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to stat session record %s: %v", name, err)
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(m.dir, name)); err != nil {
			logger.Warn("failed to remove session record %s: %v", name, err)
			continue
		}
		removed++
	}

	return removed, nil
}
