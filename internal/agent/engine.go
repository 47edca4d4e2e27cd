// Package agent implements the conversation engine: the agentic tool loop
// that drives one user utterance through completion rounds, tool execution
// and mode switching until a final text reply is produced.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hession/sidekick/internal/config"
	"github.com/hession/sidekick/internal/llm"
	"github.com/hession/sidekick/internal/logger"
	"github.com/hession/sidekick/internal/memory"
	"github.com/hession/sidekick/internal/modes"
	"github.com/hession/sidekick/internal/tools"
)

const (
	// MaxToolIterations bounds the completion rounds per utterance.
	// A run that still wants tools after this many rounds is cut off.
	MaxToolIterations = 10

	// iterationLimitNotice is appended to the reply on a forced stop
	iterationLimitNotice = "[stopped: reached the tool iteration limit]"
)

// ModeChange is one recorded mode transition
type ModeChange struct {
	From   modes.Mode
	To     modes.Mode
	Reason string
	At     time.Time
}

// Engine drives the conversation: it owns the in-memory transcript, the
// current mode and the tool loop. Not safe for concurrent Chat calls.
type Engine struct {
	config    *config.Config
	persona   *config.PersonaConfig
	completer llm.Completer
	store     *memory.Store
	profile   *memory.Profile
	sessions  *memory.SessionManager
	registry  *tools.Registry

	mode        modes.Mode
	modeHistory []ModeChange
	messages    []llm.Message

	modeHandler     func(announcement string)
	toolCallHandler func(name string, args map[string]any, result string, err error)
}

// Option engine configuration option
type Option func(*Engine)

// WithModeHandler sets the handler invoked with mode switch announcements
func WithModeHandler(handler func(announcement string)) Option {
	return func(e *Engine) {
		e.modeHandler = handler
	}
}

// WithToolCallHandler sets the tool call handler
func WithToolCallHandler(handler func(name string, args map[string]any, result string, err error)) Option {
	return func(e *Engine) {
		e.toolCallHandler = handler
	}
}

// New creates a new conversation engine starting in Buddy mode
func New(cfg *config.Config, persona *config.PersonaConfig, completer llm.Completer, store *memory.Store, profile *memory.Profile, sessions *memory.SessionManager, registry *tools.Registry, opts ...Option) *Engine {
	e := &Engine{
		config:    cfg,
		persona:   persona,
		completer: completer,
		store:     store,
		profile:   profile,
		sessions:  sessions,
		registry:  registry,
		mode:      modes.Buddy,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// retryCompleter is satisfied by the production client; stubs need only Complete
type retryCompleter interface {
	CompleteWithRetry(ctx context.Context, req llm.Request) (*llm.Response, error)
}

func (e *Engine) complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if rc, ok := e.completer.(retryCompleter); ok {
		return rc.CompleteWithRetry(ctx, req)
	}
	return e.completer.Complete(ctx, req)
}

// Chat processes one user utterance and returns the final reply text.
// The utterance and the final reply are auto-saved to the session log;
// intermediate tool traffic lives only in the in-memory transcript.
func (e *Engine) Chat(ctx context.Context, utterance string) (string, error) {
	e.messages = append(e.messages, llm.TextMessage("user", utterance))
	e.sessions.AutoSaveMessage("user", utterance)

	toolSchemas := e.registry.GetSchemas()

	for i := 0; i < MaxToolIterations; i++ {
		modeCfg := modes.Config(e.mode)

		req := llm.Request{
			MaxTokens: modeCfg.MaxTokens,
			System:    e.buildSystemPrompt(utterance),
			Tools:     toolSchemas,
			Messages:  e.messages,
		}
		if modeCfg.ExtendedThinking {
			req.Thinking = &llm.Thinking{Type: "enabled", BudgetTokens: modeCfg.BudgetTokens}
		}

		resp, err := e.complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("completion failed: %w", err)
		}

		var toolUses []llm.ContentBlock
		for _, block := range resp.Content {
			switch block.Type {
			case llm.BlockThinking:
				logger.Debug("thinking (%d chars)", len(block.Thinking))
			case llm.BlockToolUse:
				toolUses = append(toolUses, block)
			}
		}

		if len(toolUses) == 0 {
			final := llm.JoinText(resp.Content)
			e.messages = append(e.messages, llm.Message{Role: "assistant", Content: resp.Content})
			e.sessions.AutoSaveMessage("assistant", final)
			return final, nil
		}

		// Keep the full assistant turn so tool_use ids pair with results
		e.messages = append(e.messages, llm.Message{Role: "assistant", Content: resp.Content})

		results := make([]llm.ContentBlock, 0, len(toolUses))
		for _, call := range toolUses {
			results = append(results, llm.ContentBlock{
				Type:      llm.BlockToolResult,
				ToolUseID: call.ID,
				Content:   e.executeTool(call),
			})
		}
		e.messages = append(e.messages, llm.ToolResultMessage(results))
	}

	final := iterationLimitNotice
	e.messages = append(e.messages, llm.TextMessage("assistant", final))
	e.sessions.AutoSaveMessage("assistant", final)
	logger.Warn("tool loop hit iteration limit (%d)", MaxToolIterations)
	return final, nil
}

// executeTool runs one tool call and renders its result content.
// Tool failures come back as text so the model can recover; mode-switch
// directives are intercepted and never reach the model verbatim.
func (e *Engine) executeTool(call llm.ContentBlock) string {
	result, err := e.registry.Execute(call.Name, call.Input)

	if e.toolCallHandler != nil {
		e.toolCallHandler(call.Name, call.Input, result, err)
	}

	if err != nil {
		return fmt.Sprintf("%s: %v", e.persona.GetErrorPrefix(), err)
	}

	if mode, reason, ok := tools.ParseModeSwitch(result); ok {
		if mode == e.mode {
			return fmt.Sprintf("Already in %s.", modes.Config(mode).Name)
		}
		e.switchMode(mode, reason)
		return "Mode switched successfully."
	}

	return result
}

// switchMode performs the transition and announces it
func (e *Engine) switchMode(to modes.Mode, reason string) {
	change := ModeChange{
		From:   e.mode,
		To:     to,
		Reason: reason,
		At:     time.Now(),
	}
	e.mode = to
	e.modeHistory = append(e.modeHistory, change)
	logger.Info("mode switch: %s -> %s (%s)", change.From, change.To, reason)

	if e.modeHandler != nil {
		e.modeHandler(modes.Announcement(to, reason))
	}
}

// SwitchMode switches the mode on user request (e.g. the /mode command)
// and returns the announcement text
func (e *Engine) SwitchMode(to modes.Mode) string {
	if to == e.mode {
		return fmt.Sprintf("Already in %s.", modes.Config(to).Name)
	}
	change := ModeChange{
		From:   e.mode,
		To:     to,
		Reason: "user request",
		At:     time.Now(),
	}
	e.mode = to
	e.modeHistory = append(e.modeHistory, change)
	return modes.Announcement(to, "")
}

// Mode returns the current mode
func (e *Engine) Mode() modes.Mode {
	return e.mode
}

// ModeHistory returns the recorded mode transitions, oldest first
func (e *Engine) ModeHistory() []ModeChange {
	out := make([]ModeChange, len(e.modeHistory))
	copy(out, e.modeHistory)
	return out
}

// ClearConversation drops the in-memory transcript. The session log and
// long-term memory are untouched.
func (e *Engine) ClearConversation() {
	e.messages = nil
}

// TranscriptLen returns the number of messages in the in-memory transcript
func (e *Engine) TranscriptLen() int {
	return len(e.messages)
}

const summarySystemPrompt = `Summarize this conversation in 2-3 sentences focusing on what was discussed and any facts learned about the user. Respond with only the summary text.`

// FinalizeSession summarizes the session into long-term memory and commits
// the session log. Summary failures are logged and skipped; the commit
// still happens.
func (e *Engine) FinalizeSession(ctx context.Context) error {
	if e.sessions.MessageCount() > 0 && len(e.messages) > 0 {
		var b strings.Builder
		for _, msg := range e.messages {
			text := llm.JoinText(msg.Content)
			if text == "" {
				continue
			}
			b.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, text))
		}

		resp, err := e.complete(ctx, llm.Request{
			MaxTokens: 512,
			System:    summarySystemPrompt,
			Messages:  []llm.Message{llm.TextMessage("user", b.String())},
		})
		if err != nil {
			logger.Warn("conversation summary failed: %v", err)
		} else if text := llm.JoinText(resp.Content); text != "" {
			e.store.AddConversationSummary(text)
		}
	}

	return e.sessions.CommitSession()
}

// buildSystemPrompt assembles the per-round system prompt: persona, time,
// mode guidance, the first-meeting block for brand-new users, and tiered
// memory context.
func (e *Engine) buildSystemPrompt(utterance string) string {
	var b strings.Builder

	b.WriteString(e.persona.GetSystemPrompt())
	b.WriteString(fmt.Sprintf("\n\nCurrent time: %s", time.Now().Format("Monday, January 2, 2006 15:04")))

	modeCfg := modes.Config(e.mode)
	b.WriteString("\n\n")
	b.WriteString(modeCfg.Guidance)

	if e.profile.IsEmpty() && e.store.IsEmpty() {
		b.WriteString("\n\n")
		b.WriteString(e.persona.GetFirstMeeting())
		return b.String()
	}

	if summary := e.profile.SystemPromptSummary(12); summary != "" {
		b.WriteString("\n\n## What you know about the user\n")
		b.WriteString(summary)
	}

	if contextual := e.profile.ContextualInfo(strings.ToLower(utterance)); contextual != "" {
		b.WriteString("\n\n## Relevant profile details\n")
		b.WriteString(contextual)
	}

	if legacy := e.store.LegacyProfile(); len(legacy) > 0 {
		keys := make([]string, 0, len(legacy))
		for k := range legacy {
			keys = append(keys, k)
		}
		// Sorted head keeps the prompt context stable across rounds
		sort.Strings(keys)
		if len(keys) > 3 {
			keys = keys[:3]
		}
		var lines []string
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("- %s: %s", k, legacy[k]))
		}
		b.WriteString("\n\n## Other remembered facts\n")
		b.WriteString(strings.Join(lines, "\n"))
	}

	if summaries := e.store.RecentSummaries(2); len(summaries) > 0 {
		b.WriteString("\n\n## Recent conversations\n")
		for _, s := range summaries {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", s.Date, truncateText(s.Summary, 150)))
		}
	}

	return b.String()
}

// truncateText cuts s to at most n bytes without splitting a rune
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
