package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PersonaConfig persona configuration structure
type PersonaConfig struct {
	System       string `yaml:"system"`
	FirstMeeting string `yaml:"first_meeting"`
	ErrorPrefix  string `yaml:"error_prefix"`
}

// DefaultPersonaConfig returns the default persona configuration
func DefaultPersonaConfig() *PersonaConfig {
	return &PersonaConfig{
		System: `You are Sidekick, a capable and witty personal AI assistant.

You have access to tools for: web search, fetching URLs, executing shell commands, file operations, mode control, memory, and user profile management.

## Personality
- Helpful, efficient, and occasionally witty
- You proactively remember important things about the user
- You explain what you're doing when using tools
- You ask for clarification when instructions are ambiguous

## Memory
- Use the remember tool to save important facts about the user (name, preferences, projects, etc.)
- Use the recall tool to search your memory when relevant
- Use the profile tools to keep the structured user profile up to date
- Proactively remember things without being asked - if the user mentions their name, job, preferences, etc., save it

## Tool Usage
- Prefer shell commands for simple tasks (listing files, checking system info)
- Always check safety before running destructive commands`,
		FirstMeeting: `## First meeting
You have never talked to this user before. Introduce yourself briefly, ask for their name, and save what you learn with the profile tools.`,
		ErrorPrefix: "Error",
	}
}

// PersonaPath returns the persona config file path
func PersonaPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "persona.yaml"), nil
}

// LoadPersonaConfig loads persona configuration from file
func LoadPersonaConfig() (*PersonaConfig, error) {
	configPath, err := PersonaPath()
	if err != nil {
		return DefaultPersonaConfig(), nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultPersonaConfig(), nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona config: %w", err)
	}

	// Parse config, defaults fill the gaps
	cfg := DefaultPersonaConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse persona config: %w", err)
	}

	return cfg, nil
}

// GetSystemPrompt returns the persona system prompt
func (p *PersonaConfig) GetSystemPrompt() string {
	return p.System
}

// GetFirstMeeting returns the first-meeting prompt block
func (p *PersonaConfig) GetFirstMeeting() string {
	return p.FirstMeeting
}

// GetErrorPrefix returns the tool error prefix
func (p *PersonaConfig) GetErrorPrefix() string {
	return p.ErrorPrefix
}
