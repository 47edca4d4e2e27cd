package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hession/sidekick/internal/logger"
)

// extractionQueueDepth bounds the pending-job buffer; submissions beyond
// it are dropped rather than blocking the conversation thread
const extractionQueueDepth = 32

const extractionSystemPrompt = `You extract durable personal facts from conversation excerpts.
Analyze the conversation and extract facts about the user worth remembering
long-term: identity, preferences, relationships, projects, interests.

Respond with ONLY a JSON object in exactly this shape, no other text:
{"user_profile": {"name": "...", "location": "..."}, "facts": {"key": "value"}}

Put identity fields (name, age, location, occupation, email, language,
preferences, background, interests, hobbies) under "user_profile" and
everything else under "facts" with short snake_case keys. Use empty objects
when the excerpt contains nothing worth keeping.`

// CompletionFunc issues one plain system+user completion round trip
type CompletionFunc func(ctx context.Context, system, user string) (string, error)

// FactExtractionJob is one queued batch of messages to mine for facts
type FactExtractionJob struct {
	ID       string
	Messages []SessionMessage
	Queued   time.Time
}

// extractionResult is the JSON shape the extraction prompt demands
type extractionResult struct {
	UserProfile map[string]string `json:"user_profile"`
	Facts       map[string]string `json:"facts"`
}

// FactExtractionWorker mines auto-saved message batches for durable facts
// in the background and merges them into the memory store. All failures
// (completion errors, malformed output) are logged and the job dropped;
// extraction never disturbs the foreground conversation.
type FactExtractionWorker struct {
	store    *Store
	complete CompletionFunc

	jobs     chan FactExtractionJob
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFactExtractionWorker creates a worker merging extracted facts into store
func NewFactExtractionWorker(store *Store, complete CompletionFunc) *FactExtractionWorker {
	return &FactExtractionWorker{
		store:    store,
		complete: complete,
		jobs:     make(chan FactExtractionJob, extractionQueueDepth),
		stop:     make(chan struct{}),
	}
}

// Start launches the background processing goroutine
func (w *FactExtractionWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop signals the worker and waits for in-flight work to finish.
// Safe to call more than once; queued jobs not yet started are discarded.
func (w *FactExtractionWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	w.wg.Wait()
}

// Submit queues a batch for extraction. Returns false when the queue is
// full or the worker is stopping; the batch is dropped with a log line.
func (w *FactExtractionWorker) Submit(batch []SessionMessage) bool {
	job := FactExtractionJob{
		ID:       uuid.NewString(),
		Messages: batch,
		Queued:   time.Now(),
	}
	// Stop wins over the buffered send: with both ready a bare select
	// picks randomly, which would queue jobs into a dead channel.
	select {
	case <-w.stop:
		logger.Warn("extraction worker stopped, dropping job %s", job.ID)
		return false
	default:
	}
	select {
	case w.jobs <- job:
		logger.Debug("queued extraction job %s (%d messages)", job.ID, len(batch))
		return true
	default:
		logger.Warn("extraction queue full, dropping job %s", job.ID)
		return false
	}
}

func (w *FactExtractionWorker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

// process runs one extraction round trip and merges the result
func (w *FactExtractionWorker) process(job FactExtractionJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var b strings.Builder
	for _, msg := range job.Messages {
		b.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}

	raw, err := w.complete(ctx, extractionSystemPrompt, b.String())
	if err != nil {
		logger.Warn("extraction job %s failed: %v", job.ID, err)
		return
	}

	obj := firstJSONObject(raw)
	if obj == "" {
		logger.Warn("extraction job %s returned no JSON object", job.ID)
		return
	}

	var result extractionResult
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		logger.Warn("extraction job %s returned malformed JSON: %v", job.ID, err)
		return
	}

	merged := 0
	for k, v := range result.UserProfile {
		if k == "" || v == "" {
			continue
		}
		w.store.Remember(k, v)
		merged++
	}
	for k, v := range result.Facts {
		if k == "" || v == "" {
			continue
		}
		w.store.Remember(k, v)
		merged++
	}
	logger.Info("extraction job %s merged %d entries", job.ID, merged)
}

// firstJSONObject returns the first balanced top-level JSON object in s,
// or "" when none is found. Braces inside string literals are ignored,
// which keeps values like "{:-)" from breaking the scan.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
