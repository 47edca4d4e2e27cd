// Package modes defines the behavioral modes the assistant can operate in.
//
// Buddy mode (the default) keeps responses quick and casual; Research mode
// enables extended reasoning with a thinking budget for deep analysis. Mode
// configs are immutable and never persisted.
package modes

import (
	"fmt"
	"strings"
)

// Mode names a behavioral mode
type Mode string

const (
	Buddy    Mode = "buddy"
	Research Mode = "research"
)

// ModeConfig immutable configuration of one mode
type ModeConfig struct {
	Name             string
	Emoji            string
	Description      string
	ExtendedThinking bool
	BudgetTokens     int
	MaxTokens        int
	Guidance         string
}

// modeTable is the static mode configuration table
var modeTable = map[Mode]ModeConfig{
	Buddy: {
		Name:             "Buddy Mode",
		Emoji:            "👋",
		Description:      "Quick, casual, and friendly",
		ExtendedThinking: false,
		BudgetTokens:     0,
		MaxTokens:        4096,
		Guidance: `You are in Buddy Mode - quick, casual, and friendly.

**Style:**
- Witty with awkward charm, a little self-deprecating
- Keep responses fun but concise - greetings should be 1-2 sentences max
- For simple tasks: quick, witty, helpful
- For longer explanations: still conversational, sprinkle in the humor
- The humor ENHANCES your helpfulness, doesn't replace it

**When to switch to Research Mode:**
- User asks deep, complex questions requiring thorough analysis
- Questions about theories, academic topics, or technical foundations
- Requests for comparisons, detailed explanations, or research
- Multi-step analytical questions
- When user explicitly asks for a deep dive or thorough analysis

**Stay in Buddy Mode for:**
- Casual conversation, greetings, small talk
- Simple questions with straightforward answers
- Quick tasks (file operations, simple searches)
- Any task that doesn't require deep reasoning`,
	},
	Research: {
		Name:             "Research Mode",
		Emoji:            "🔬",
		Description:      "Deep, thorough, academic analysis",
		ExtendedThinking: true,
		BudgetTokens:     15000,
		MaxTokens:        4096,
		Guidance: `You are in Research Mode - thorough, academic, and analytical.

**Style:**
- Provide deep, comprehensive analysis
- Think step-by-step with extended reasoning
- Always cite sources when using web search
- Use academic/technical tone while staying accessible
- Break down complex concepts systematically
- Favor thoroughness over brevity

**Tool Usage:**
- Heavily favor: search_web, fetch_url
- Look up multiple sources to verify claims
- Provide citations and references

**When to switch back to Buddy Mode:**
- Research question has been thoroughly answered
- User says "thanks", "got it", "that's enough"
- Next message is casual or simple
- User changes topic to something not requiring deep analysis`,
	},
}

// Config returns the configuration for a mode.
// Unknown modes fall back to Buddy.
func Config(m Mode) ModeConfig {
	if cfg, ok := modeTable[m]; ok {
		return cfg
	}
	return modeTable[Buddy]
}

// Parse resolves a mode name (case-insensitive). ok is false for unknown names.
func Parse(name string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case Buddy:
		return Buddy, true
	case Research:
		return Research, true
	}
	return "", false
}

// All returns the known modes in a stable order
func All() []Mode {
	return []Mode{Buddy, Research}
}

// Announcement formats the human-readable mode switch announcement
func Announcement(m Mode, reason string) string {
	cfg := Config(m)
	if reason != "" {
		return fmt.Sprintf("%s Switching to %s - %s", cfg.Emoji, cfg.Name, reason)
	}
	return fmt.Sprintf("%s Now in %s (%s)", cfg.Emoji, cfg.Name, cfg.Description)
}
