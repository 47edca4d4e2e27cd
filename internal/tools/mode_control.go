package tools

import (
	"fmt"
	"strings"

	"github.com/hession/sidekick/internal/modes"
)

// ModeSwitchPrefix marks a tool result as a mode-switch directive rather
// than ordinary output. The full form is "MODE_SWITCH:<mode>:<reason>";
// the conversation engine intercepts it before it reaches the model.
const ModeSwitchPrefix = "MODE_SWITCH:"

// SwitchModeTool lets the model request a behavioral mode change
type SwitchModeTool struct{}

func NewSwitchModeTool() *SwitchModeTool {
	return &SwitchModeTool{}
}

func (t *SwitchModeTool) Name() string {
	return "switch_mode"
}

func (t *SwitchModeTool) Description() string {
	return "Switch between behavioral modes. Use 'research' for deep analysis with extended thinking, 'buddy' for quick casual conversation."
}

func (t *SwitchModeTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "mode",
			Type:        "string",
			Description: "Target mode: 'buddy' or 'research'",
			Required:    true,
		},
		{
			Name:        "reason",
			Type:        "string",
			Description: "Short reason for the switch, shown to the user",
			Required:    false,
		},
	}
}

func (t *SwitchModeTool) Execute(args map[string]any) (string, error) {
	name, ok := args["mode"].(string)
	if !ok || name == "" {
		return "", fmt.Errorf("missing required parameter: mode")
	}

	mode, ok := modes.Parse(name)
	if !ok {
		return "", fmt.Errorf("unknown mode: %s (known: buddy, research)", name)
	}

	reason, _ := args["reason"].(string)
	reason = strings.TrimSpace(reason)

	return fmt.Sprintf("%s%s:%s", ModeSwitchPrefix, mode, reason), nil
}

// ParseModeSwitch decodes a mode-switch directive from a tool result.
// ok is false when the result is not a well-formed directive for a known
// mode; such results pass through as ordinary tool output.
func ParseModeSwitch(result string) (mode modes.Mode, reason string, ok bool) {
	if !strings.HasPrefix(result, ModeSwitchPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(result, ModeSwitchPrefix)
	name, reason, _ := strings.Cut(rest, ":")
	mode, known := modes.Parse(name)
	if !known {
		return "", "", false
	}
	return mode, reason, true
}
