package tools

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hession/sidekick/internal/config"
	"github.com/hession/sidekick/internal/llm"
	"github.com/hession/sidekick/internal/memory"
)

// Registry tool registry
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register registers a tool
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already exists", name)
	}

	r.tools[name] = tool
	return nil
}

// Get gets a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List lists all tools sorted by name
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name() < tools[j].Name()
	})
	return tools
}

// Execute executes a tool by name
func (r *Registry) Execute(name string, args map[string]any) (string, error) {
	tool, exists := r.Get(name)
	if !exists {
		return "", fmt.Errorf("tool not found: %s", name)
	}
	return tool.Execute(args)
}

// GetSchemas gets all tool declarations in the completion-service format
func (r *Registry) GetSchemas() []llm.Tool {
	schemas := make([]llm.Tool, 0)
	for _, tool := range r.List() {
		schemas = append(schemas, llm.Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: buildInputSchema(tool.Parameters()),
		})
	}
	return schemas
}

// buildInputSchema builds the JSON Schema object for a parameter list
func buildInputSchema(params []ParameterDef) map[string]any {
	properties := make(map[string]any)
	required := make([]string, 0)

	for _, param := range params {
		properties[param.Name] = map[string]any{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

// NewDefaultRegistry creates and registers all built-in tools
func NewDefaultRegistry(confirmFunc func(command string) bool, cfg *config.Config, store *memory.Store, profile *memory.Profile) *Registry {
	registry := NewRegistry()

	tools := []Tool{
		NewRememberTool(store),
		NewRecallTool(store),
		NewSwitchModeTool(),
		NewReadFileTool(),
		NewWriteFileTool(),
		NewListDirTool(),
		NewRunCommandTool(confirmFunc),
		NewSearchFilesTool(),
		NewWebSearchTool(cfg),
		NewFetchURLTool(cfg),
	}
	tools = append(tools, ProfileTools(profile)...)

	for _, tool := range tools {
		_ = registry.Register(tool) // Built-in names never conflict
	}

	return registry
}
