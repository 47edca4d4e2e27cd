package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadFileTool read file tool
type ReadFileTool struct{}

func NewReadFileTool() *ReadFileTool {
	return &ReadFileTool{}
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return "Read the content of a file at the specified path."
}

func (t *ReadFileTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "path",
			Type:        "string",
			Description: "The file path to read (absolute or relative)",
			Required:    true,
		},
	}
}

func (t *ReadFileTool) Execute(args map[string]any) (string, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return string(content), nil
}

// WriteFileTool write file tool
type WriteFileTool struct{}

func NewWriteFileTool() *WriteFileTool {
	return &WriteFileTool{}
}

func (t *WriteFileTool) Name() string {
	return "write_file"
}

func (t *WriteFileTool) Description() string {
	return "Write content to a file at the specified path. Creates the file if it doesn't exist, overwrites if it does."
}

func (t *WriteFileTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "path",
			Type:        "string",
			Description: "The file path to write to",
			Required:    true,
		},
		{
			Name:        "content",
			Type:        "string",
			Description: "The content to write",
			Required:    true,
		},
	}
}

func (t *WriteFileTool) Execute(args map[string]any) (string, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return "", err
	}
	content, ok := args["content"].(string)
	if !ok {
		return "", fmt.Errorf("missing required parameter: content")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("Successfully wrote file: %s (%d bytes)", absPath, len(content)), nil
}

// ListDirTool list directory tool
type ListDirTool struct{}

func NewListDirTool() *ListDirTool {
	return &ListDirTool{}
}

func (t *ListDirTool) Name() string {
	return "list_dir"
}

func (t *ListDirTool) Description() string {
	return "List all files and subdirectories in the specified directory."
}

func (t *ListDirTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "path",
			Type:        "string",
			Description: "The directory to list, defaults to the current directory",
			Required:    false,
		},
	}
}

func (t *ListDirTool) Execute(args map[string]any) (string, error) {
	path := "."
	if p := optionalString(args, "path"); p != "" {
		path = p
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read directory: %w", err)
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Directory: %s\n\n", absPath))

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		marker := "📄"
		sizeStr := fmt.Sprintf("%d B", info.Size())
		if entry.IsDir() {
			marker = "📁"
			sizeStr = "<DIR>"
		}

		result.WriteString(fmt.Sprintf("%s %s\t%s\n", marker, entry.Name(), sizeStr))
	}

	return result.String(), nil
}

// SearchFilesTool search files tool
type SearchFilesTool struct{}

func NewSearchFilesTool() *SearchFilesTool {
	return &SearchFilesTool{}
}

func (t *SearchFilesTool) Name() string {
	return "search_files"
}

func (t *SearchFilesTool) Description() string {
	return "Search for files containing the given text under a directory, recursively."
}

func (t *SearchFilesTool) Parameters() []ParameterDef {
	return []ParameterDef{
		{
			Name:        "pattern",
			Type:        "string",
			Description: "The text to search for",
			Required:    true,
		},
		{
			Name:        "path",
			Type:        "string",
			Description: "The starting directory, defaults to the current directory",
			Required:    false,
		},
	}
}

func (t *SearchFilesTool) Execute(args map[string]any) (string, error) {
	pattern, err := requireString(args, "pattern")
	if err != nil {
		return "", err
	}

	path := "."
	if p := optionalString(args, "path"); p != "" {
		path = p
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	const maxResults = 50
	var results []string

	err = filepath.Walk(absPath, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}

		if info.IsDir() {
			name := info.Name()
			if strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}

		if !isTextFile(filePath) {
			return nil
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return nil
		}

		for i, line := range strings.Split(string(content), "\n") {
			if strings.Contains(line, pattern) {
				if len(results) >= maxResults {
					return filepath.SkipAll
				}
				relPath, _ := filepath.Rel(absPath, filePath)
				results = append(results, fmt.Sprintf("%s:%d: %s", relPath, i+1, strings.TrimSpace(line)))
			}
		}

		return nil
	})

	if err != nil && err != filepath.SkipAll {
		return "", fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		return fmt.Sprintf("No content containing '%s' found in %s", pattern, absPath), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Search results for '%s' in %s:\n\n", pattern, absPath))
	for _, r := range results {
		result.WriteString(r + "\n")
	}
	if len(results) >= maxResults {
		result.WriteString(fmt.Sprintf("\n... Results truncated, showing first %d matches", maxResults))
	}

	return result.String(), nil
}

// isTextFile checks if a file is worth grepping
func isTextFile(path string) bool {
	textExts := []string{
		".txt", ".md", ".go", ".py", ".js", ".ts", ".jsx", ".tsx",
		".html", ".css", ".json", ".yaml", ".yml", ".xml",
		".sh", ".bash", ".zsh", ".fish",
		".c", ".cpp", ".h", ".hpp", ".java", ".rs", ".rb",
		".php", ".sql", ".toml", ".ini", ".conf", ".cfg",
		".gitignore", ".dockerignore", ".env",
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, textExt := range textExts {
		if ext == textExt {
			return true
		}
	}

	name := filepath.Base(path)
	textNames := []string{"Makefile", "Dockerfile", "README", "LICENSE", "CHANGELOG"}
	for _, textName := range textNames {
		if name == textName {
			return true
		}
	}

	return false
}
