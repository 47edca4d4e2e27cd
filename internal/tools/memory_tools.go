package tools

import (
	"fmt"

	"github.com/hession/sidekick/internal/memory"
)

// RememberTool stores a fact in long-term memory
type RememberTool struct {
	store *memory.Store
}

func NewRememberTool(store *memory.Store) *RememberTool {
	return &RememberTool{store: store}
}

func (t *RememberTool) Name() string {
	return "remember"
}

func (t *RememberTool) Description() string {
	return "Store an important fact about the user in long-term memory. Use snake_case keys like user_name, favorite_color, current_project."
}

func (t *RememberTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "key",
			Type:        "string",
			Description: "Short snake_case key for the fact (e.g. user_name, location)",
			Required:    true,
		},
		{
			Name:        "value",
			Type:        "string",
			Description: "The fact to remember",
			Required:    true,
		},
	}
}

func (t *RememberTool) Execute(args map[string]any) (string, error) {
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return "", fmt.Errorf("missing required parameter: key")
	}
	value, ok := args["value"].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("missing required parameter: value")
	}
	return t.store.Remember(key, value), nil
}

// RecallTool searches long-term memory
type RecallTool struct {
	store *memory.Store
}

func NewRecallTool(store *memory.Store) *RecallTool {
	return &RecallTool{store: store}
}

func (t *RecallTool) Name() string {
	return "recall"
}

func (t *RecallTool) Description() string {
	return "Search long-term memory for facts, profile fields and past conversation summaries matching a query."
}

func (t *RecallTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "query",
			Type:        "string",
			Description: "What to search for",
			Required:    true,
		},
	}
}

func (t *RecallTool) Execute(args map[string]any) (string, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "", fmt.Errorf("missing required parameter: query")
	}
	return t.store.Recall(query), nil
}
