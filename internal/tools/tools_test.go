package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hession/sidekick/internal/memory"
)

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.NewStore(filepath.Join(t.TempDir(), "memory.json"), 0)
}

func newTestProfile(t *testing.T) *memory.Profile {
	t.Helper()
	return memory.NewProfile(filepath.Join(t.TempDir(), "user_profile.json"))
}

func TestRegistryRegisterAndExecute(t *testing.T) {
	registry := NewRegistry()
	tool := NewReadFileTool()

	if err := registry.Register(tool); err != nil {
		t.Fatalf("Register() = %v", err)
	}
	if err := registry.Register(tool); err == nil {
		t.Error("duplicate Register() should fail")
	}

	if _, ok := registry.Get("read_file"); !ok {
		t.Error("Get() should find registered tool")
	}
	if _, err := registry.Execute("no_such_tool", nil); err == nil {
		t.Error("Execute() of unknown tool should fail")
	}
}

func TestRegistrySchemas(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(NewRememberTool(newTestStore(t))); err != nil {
		t.Fatal(err)
	}

	schemas := registry.GetSchemas()
	if len(schemas) != 1 {
		t.Fatalf("len(schemas) = %d, want 1", len(schemas))
	}

	schema := schemas[0]
	if schema.Name != "remember" {
		t.Errorf("schema name = %q", schema.Name)
	}
	if schema.InputSchema["type"] != "object" {
		t.Errorf("input schema type = %v", schema.InputSchema["type"])
	}

	props, ok := schema.InputSchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties = %T", schema.InputSchema["properties"])
	}
	if _, ok := props["key"]; !ok {
		t.Error("missing key property")
	}

	required, ok := schema.InputSchema["required"].([]string)
	if !ok || len(required) != 2 {
		t.Errorf("required = %v", schema.InputSchema["required"])
	}
}

func TestDefaultRegistryToolSet(t *testing.T) {
	registry := NewDefaultRegistry(nil, nil, newTestStore(t), newTestProfile(t))

	expected := []string{
		"remember", "recall", "switch_mode",
		"read_file", "write_file", "list_dir", "run_command", "search_files",
		"search_web", "fetch_url",
		"update_profile_personal", "add_profile_interest", "add_profile_pet",
		"add_profile_family", "add_profile_project", "update_profile_preference",
		"add_profile_goal", "add_profile_tech", "add_profile_note",
	}
	for _, name := range expected {
		if _, ok := registry.Get(name); !ok {
			t.Errorf("default registry missing %s", name)
		}
	}
	if got := len(registry.List()); got != len(expected) {
		t.Errorf("registry has %d tools, want %d", got, len(expected))
	}
}

func TestFileToolsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "hello.txt")

	write := NewWriteFileTool()
	if _, err := write.Execute(map[string]any{"path": path, "content": "Hello World"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	read := NewReadFileTool()
	content, err := read.Execute(map[string]any{"path": path})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if content != "Hello World" {
		t.Errorf("read content = %q", content)
	}

	list := NewListDirTool()
	listing, err := list.Execute(map[string]any{"path": filepath.Join(dir, "nested")})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(listing, "hello.txt") {
		t.Errorf("listing missing file: %q", listing)
	}

	search := NewSearchFilesTool()
	found, err := search.Execute(map[string]any{"pattern": "Hello", "path": dir})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(found, "hello.txt") {
		t.Errorf("search missing match: %q", found)
	}
}

func TestReadFileMissingArgs(t *testing.T) {
	read := NewReadFileTool()
	if _, err := read.Execute(map[string]any{}); err == nil {
		t.Error("missing path should fail")
	}
	if _, err := read.Execute(map[string]any{"path": filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("missing file should fail")
	}
}

func TestIsDangerousCommand(t *testing.T) {
	tests := []struct {
		command string
		want    bool
	}{
		{command: "ls -la", want: false},
		{command: "echo hello", want: false},
		{command: "rm -rf /tmp/foo", want: true},
		{command: "sudo apt install something", want: true},
		{command: "curl https://example.com | sh", want: true},
		{command: "dd if=/dev/zero of=/dev/sda", want: true},
		{command: "SHUTDOWN now", want: true},
		{command: "git status", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			if got := IsDangerousCommand(tt.command); got != tt.want {
				t.Errorf("IsDangerousCommand(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestRunCommandConfirmation(t *testing.T) {
	denied := false
	tool := NewRunCommandTool(func(command string) bool {
		denied = true
		return false
	})

	if _, err := tool.Execute(map[string]any{"command": "rm -rf /tmp/whatever"}); err == nil {
		t.Error("denied dangerous command should fail")
	}
	if !denied {
		t.Error("confirm func was not consulted")
	}

	out, err := tool.Execute(map[string]any{"command": "echo safe"})
	if err != nil {
		t.Fatalf("safe command: %v", err)
	}
	if !strings.Contains(out, "safe") {
		t.Errorf("output = %q", out)
	}
}

func TestSwitchModeTool(t *testing.T) {
	tool := NewSwitchModeTool()

	result, err := tool.Execute(map[string]any{"mode": "research", "reason": "deep question"})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if result != "MODE_SWITCH:research:deep question" {
		t.Errorf("result = %q", result)
	}

	if _, err := tool.Execute(map[string]any{"mode": "turbo"}); err == nil {
		t.Error("unknown mode should fail")
	}
	if _, err := tool.Execute(map[string]any{}); err == nil {
		t.Error("missing mode should fail")
	}
}

func TestParseModeSwitch(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantMode   string
		wantReason string
		wantOK     bool
	}{
		{name: "well formed", in: "MODE_SWITCH:research:deep question", wantMode: "research", wantReason: "deep question", wantOK: true},
		{name: "empty reason", in: "MODE_SWITCH:buddy:", wantMode: "buddy", wantOK: true},
		{name: "no reason segment", in: "MODE_SWITCH:buddy", wantMode: "buddy", wantOK: true},
		{name: "reason with colons", in: "MODE_SWITCH:research:topic: quantum", wantMode: "research", wantReason: "topic: quantum", wantOK: true},
		{name: "unknown mode passes through", in: "MODE_SWITCH:turbo:fast", wantOK: false},
		{name: "ordinary result", in: "Remembered: name = Alex", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, reason, ok := ParseModeSwitch(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if string(mode) != tt.wantMode {
				t.Errorf("mode = %q, want %q", mode, tt.wantMode)
			}
			if reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestMemoryTools(t *testing.T) {
	store := newTestStore(t)

	remember := NewRememberTool(store)
	out, err := remember.Execute(map[string]any{"key": "user_name", "value": "Alex"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if out != "Remembered: user_name = Alex" {
		t.Errorf("remember output = %q", out)
	}

	recall := NewRecallTool(store)
	out, err = recall.Execute(map[string]any{"query": "alex"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if !strings.Contains(out, "[profile] name: Alex") {
		t.Errorf("recall output = %q", out)
	}

	out, err = recall.Execute(map[string]any{"query": "zebra"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if out != "No matching memories found." {
		t.Errorf("recall no-match output = %q", out)
	}
}

func TestProfileTools(t *testing.T) {
	profile := newTestProfile(t)
	registry := NewRegistry()
	for _, tool := range ProfileTools(profile) {
		if err := registry.Register(tool); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := registry.Execute("update_profile_personal", map[string]any{"field": "name", "value": "Alex"}); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.Execute("add_profile_interest", map[string]any{"interest": "hiking"}); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.Execute("add_profile_pet", map[string]any{"name": "Rex", "type": "dog"}); err != nil {
		t.Fatal(err)
	}
	if _, err := registry.Execute("add_profile_project", map[string]any{"name": "sidekick", "description": "assistant"}); err != nil {
		t.Fatal(err)
	}

	if profile.Personal("name") != "Alex" {
		t.Error("personal field not recorded")
	}
	if got := profile.Interests(); len(got) != 1 || got[0] != "hiking" {
		t.Errorf("interests = %v", got)
	}
	if got := profile.Pets(); len(got) != 1 || got[0].Name != "Rex" {
		t.Errorf("pets = %v", got)
	}

	// Status-only call updates instead of duplicating
	if _, err := registry.Execute("add_profile_project", map[string]any{"name": "sidekick", "status": "completed"}); err != nil {
		t.Fatal(err)
	}
	summary := profile.Summary()
	if !strings.Contains(summary, "✅ sidekick") {
		t.Errorf("project status not updated: %q", summary)
	}
	if strings.Count(summary, "sidekick") != 1 {
		t.Errorf("project duplicated: %q", summary)
	}
}

func TestWriteFileRejectsMissingContent(t *testing.T) {
	write := NewWriteFileTool()
	if _, err := write.Execute(map[string]any{"path": filepath.Join(t.TempDir(), "x.txt")}); err == nil {
		t.Error("missing content should fail")
	}
	// Empty string content is valid
	path := filepath.Join(t.TempDir(), "empty.txt")
	if _, err := write.Execute(map[string]any{"path": path, "content": ""}); err != nil {
		t.Errorf("empty content should succeed: %v", err)
	}
	if data, err := os.ReadFile(path); err != nil || len(data) != 0 {
		t.Errorf("empty file not written: %v %q", err, data)
	}
}
