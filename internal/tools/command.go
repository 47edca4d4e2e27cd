package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RunCommandTool run command tool
type RunCommandTool struct {
	confirmFunc func(command string) bool // Dangerous operation confirmation
}

// NewRunCommandTool creates a new run command tool
func NewRunCommandTool(confirmFunc func(command string) bool) *RunCommandTool {
	return &RunCommandTool{
		confirmFunc: confirmFunc,
	}
}

func (t *RunCommandTool) Name() string {
	return "run_command"
}

func (t *RunCommandTool) Description() string {
	return "Execute a shell command. Dangerous operations require user confirmation."
}

func (t *RunCommandTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "command",
			Type:        "string",
			Description: "The shell command to execute",
			Required:    true,
		},
		{
			Name:        "timeout",
			Type:        "number",
			Description: "Command timeout in seconds, default 30",
			Required:    false,
		},
	}
}

func (t *RunCommandTool) Execute(args map[string]any) (string, error) {
	command, err := requireString(args, "command")
	if err != nil {
		return "", err
	}

	timeout := 30 * time.Second
	if to, ok := args["timeout"].(float64); ok && to > 0 {
		timeout = time.Duration(to) * time.Second
	}

	if IsDangerousCommand(command) {
		if t.confirmFunc != nil && !t.confirmFunc(command) {
			return "", fmt.Errorf("user cancelled dangerous operation")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var result strings.Builder
	result.WriteString(fmt.Sprintf("$ %s\n\n", command))

	if stdout.Len() > 0 {
		result.WriteString(stdout.String())
	}
	if stderr.Len() > 0 {
		if stdout.Len() > 0 {
			result.WriteString("\n")
		}
		result.WriteString("STDERR:\n")
		result.WriteString(stderr.String())
	}

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result.String(), fmt.Errorf("command execution timeout (%v)", timeout)
		}
		result.WriteString(fmt.Sprintf("\nExit status: %v", runErr))
	}

	return result.String(), nil
}

// dangerousPatterns are substrings that flag a command for confirmation
var dangerousPatterns = []string{
	"rm -rf",
	"rm -r",
	"rm -f",
	"rmdir",
	"sudo",
	"dd if=",
	"> /dev/",
	"mkfs",
	"fdisk",
	"format",
	"shutdown",
	"reboot",
	"init 0",
	"init 6",
	"kill -9",
	"killall",
	":(){:|:&};:", // fork bomb
	"chmod -r 777",
	"chown -r",
	"truncate",
	"wget", "curl", // Network downloads may be risky
}

// IsDangerousCommand reports whether a shell command matches a pattern
// that warrants user confirmation before running
func IsDangerousCommand(command string) bool {
	lowerCmd := strings.ToLower(command)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerCmd, pattern) {
			return true
		}
	}
	return false
}
