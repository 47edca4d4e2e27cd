// Package memory implements the persistent memory subsystem: the flat
// key/value memory store, the structured user profile, the crash-recoverable
// session log, and the background fact-extraction worker.
//
// All stores persist as whole-file JSON records rewritten synchronously on
// every mutation. The foreground conversation thread and the extraction
// worker share the stores, so each store serializes its writes behind a
// mutex; concurrent processes still race with last-writer-wins.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hession/sidekick/internal/logger"
)

// DefaultMaxSummaries caps the conversation summary list
const DefaultMaxSummaries = 50

// profileFields is the closed set of keys that classify into the legacy
// profile bucket (case-insensitive, after stripping a "user_" prefix).
var profileFields = map[string]bool{
	"name":        true,
	"age":         true,
	"location":    true,
	"occupation":  true,
	"job":         true,
	"email":       true,
	"language":    true,
	"preferences": true,
	"background":  true,
	"interests":   true,
	"hobbies":     true,
}

// ConversationSummary is one dated rolling summary entry
type ConversationSummary struct {
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// memoryRecord is the whole-file JSON layout of the store
type memoryRecord struct {
	Facts                 map[string]string     `json:"facts"`
	UserProfile           map[string]string     `json:"user_profile"`
	ConversationSummaries []ConversationSummary `json:"conversation_summaries"`
}

// Store is the flat fact store: free-form facts, legacy profile fields and
// rolling conversation summaries, persisted as a single JSON file.
type Store struct {
	path         string
	maxSummaries int
	mu           sync.Mutex
	data         memoryRecord
}

// NewStore opens (or creates) the memory store at the given path
func NewStore(path string, maxSummaries int) *Store {
	if maxSummaries <= 0 {
		maxSummaries = DefaultMaxSummaries
	}
	s := &Store{
		path:         path,
		maxSummaries: maxSummaries,
	}
	s.data = s.load()
	return s
}

// load reads the record from disk; a missing or corrupt file yields a fresh record
func (s *Store) load() memoryRecord {
	fresh := memoryRecord{
		Facts:       make(map[string]string),
		UserProfile: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fresh
	}

	var rec memoryRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Warn("memory store %s is corrupt, starting fresh: %v", s.path, err)
		return fresh
	}
	if rec.Facts == nil {
		rec.Facts = make(map[string]string)
	}
	if rec.UserProfile == nil {
		rec.UserProfile = make(map[string]string)
	}
	return rec
}

// save rewrites the whole record. I/O failures are logged, not raised.
func (s *Store) save() {
	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		logger.Error("failed to serialize memory record: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		logger.Error("failed to create memory directory: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		logger.Error("failed to write memory record: %v", err)
	}
}

// Remember stores a fact or a legacy profile field.
//
// The key is normalized to lowercase with any "user_" prefix stripped; if
// the normalized key names a known profile field, or the original key
// carries the "user_" prefix, the value lands in the profile bucket under
// the normalized name. Everything else goes to facts under the original key.
func (s *Store) Remember(key, value string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleanKey := strings.TrimPrefix(strings.ToLower(key), "user_")
	if profileFields[cleanKey] || strings.HasPrefix(key, "user_") {
		s.data.UserProfile[cleanKey] = value
	} else {
		s.data.Facts[key] = value
	}

	s.save()
	return fmt.Sprintf("Remembered: %s = %s", key, value)
}

// Recall searches profile fields, facts and summaries for a case-insensitive
// substring match, returning provenance-tagged lines.
func (s *Store) Recall(query string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []string
	queryLower := strings.ToLower(query)

	for k, v := range s.data.UserProfile {
		if strings.Contains(strings.ToLower(k), queryLower) || strings.Contains(strings.ToLower(v), queryLower) {
			results = append(results, fmt.Sprintf("[profile] %s: %s", k, v))
		}
	}

	for k, v := range s.data.Facts {
		if strings.Contains(strings.ToLower(k), queryLower) || strings.Contains(strings.ToLower(v), queryLower) {
			results = append(results, fmt.Sprintf("[fact] %s: %s", k, v))
		}
	}

	for _, summary := range s.data.ConversationSummaries {
		if strings.Contains(strings.ToLower(summary.Summary), queryLower) {
			results = append(results, fmt.Sprintf("[conversation %s] %s", summary.Date, truncate(summary.Summary, 200)))
		}
	}

	if len(results) == 0 {
		return "No matching memories found."
	}
	return strings.Join(results, "\n")
}

// AddConversationSummary appends a dated summary, trimming to the configured cap (FIFO)
func (s *Store) AddConversationSummary(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.ConversationSummaries = append(s.data.ConversationSummaries, ConversationSummary{
		Date:    time.Now().Format(time.RFC3339),
		Summary: text,
	})
	if len(s.data.ConversationSummaries) > s.maxSummaries {
		s.data.ConversationSummaries = s.data.ConversationSummaries[len(s.data.ConversationSummaries)-s.maxSummaries:]
	}
	s.save()
}

// Facts returns a copy of the fact map
func (s *Store) Facts() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.data.Facts)
}

// LegacyProfile returns a copy of the legacy flat profile map
func (s *Store) LegacyProfile() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyMap(s.data.UserProfile)
}

// RecentSummaries returns up to n of the most recent summaries, oldest first
func (s *Store) RecentSummaries(n int) []ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := s.data.ConversationSummaries
	if n > 0 && len(summaries) > n {
		summaries = summaries[len(summaries)-n:]
	}
	out := make([]ConversationSummary, len(summaries))
	copy(out, summaries)
	return out
}

// SummaryCount returns the number of stored conversation summaries
func (s *Store) SummaryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.ConversationSummaries)
}

// IsEmpty reports whether the store holds no facts, no legacy profile
// fields and no conversation summaries
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.Facts) == 0 &&
		len(s.data.UserProfile) == 0 &&
		len(s.data.ConversationSummaries) == 0
}

// Dump renders the full record for the /memory inspection command
func (s *Store) Dump() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	if len(s.data.UserProfile) > 0 {
		b.WriteString("## Profile\n")
		for k, v := range s.data.UserProfile {
			b.WriteString(fmt.Sprintf("- %s: %s\n", k, v))
		}
	}
	if len(s.data.Facts) > 0 {
		b.WriteString("## Facts\n")
		for k, v := range s.data.Facts {
			b.WriteString(fmt.Sprintf("- %s: %s\n", k, v))
		}
	}
	if len(s.data.ConversationSummaries) > 0 {
		b.WriteString(fmt.Sprintf("## Conversation summaries (%d)\n", len(s.data.ConversationSummaries)))
		for _, sum := range s.data.ConversationSummaries {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", sum.Date, truncate(sum.Summary, 150)))
		}
	}
	if b.Len() == 0 {
		return "Memory is empty."
	}
	return b.String()
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// truncate cuts s to at most n bytes, backing off to a rune boundary so
// multibyte text never ends mid-rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
