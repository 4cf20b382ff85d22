package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	maxReadBytes    = 50 * 1024
	maxGlobMatches  = 200
	maxListEntries  = 500
	defaultFileMode = 0644
)

// FileTools provides file read/write/edit capabilities within a workspace.
type FileTools struct {
	workspacePath string
}

func NewFileTools(workspacePath string) *FileTools {
	return &FileTools{workspacePath: workspacePath}
}

func (ft *FileTools) WorkspacePath() string {
	return ft.workspacePath
}

// resolvePath converts a path to an absolute path within the workspace.
// Returns an error if the path would escape the workspace.
func (ft *FileTools) resolvePath(path string) (string, error) {
	if ft.workspacePath == "" {
		return "", fmt.Errorf("workspace not configured")
	}

	workspaceAbs, err := filepath.Abs(ft.workspacePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace: %w", err)
	}

	var absPath string
	if filepath.IsAbs(path) {
		absPath = filepath.Clean(path)
	} else {
		absPath = filepath.Clean(filepath.Join(workspaceAbs, path))
	}

	rel, err := filepath.Rel(workspaceAbs, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}

	return absPath, nil
}

// relative returns absPath relative to the workspace for display.
func (ft *FileTools) relative(absPath string) string {
	workspaceAbs, err := filepath.Abs(ft.workspacePath)
	if err != nil {
		return absPath
	}
	rel, err := filepath.Rel(workspaceAbs, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}

// Read reads a file, optionally a 1-indexed line window of it.
func (ft *FileTools) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	absPath, err := ft.resolvePath(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	content := string(data)

	if offset > 0 || limit > 0 {
		lines := strings.Split(content, "\n")

		startLine := 0
		if offset > 0 {
			startLine = offset - 1
		}
		if startLine >= len(lines) {
			return "", fmt.Errorf("offset %d exceeds file length (%d lines)", offset, len(lines))
		}

		endLine := len(lines)
		if limit > 0 && startLine+limit < endLine {
			endLine = startLine + limit
		}

		content = strings.Join(lines[startLine:endLine], "\n")
		if startLine > 0 || endLine < len(lines) {
			content = fmt.Sprintf("[Lines %d-%d of %d]\n%s", startLine+1, endLine, len(lines), content)
		}
	}

	if len(content) > maxReadBytes {
		content = content[:maxReadBytes] + "\n\n[... truncated, use offset/limit for more ...]"
	}

	return content, nil
}

// Write writes content to a file, creating directories as needed.
func (ft *FileTools) Write(ctx context.Context, path, content string) error {
	absPath, err := ft.resolvePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(absPath, []byte(content), defaultFileMode); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Edit replaces oldText, which must occur exactly once, with newText.
func (ft *FileTools) Edit(ctx context.Context, path, oldText, newText string) error {
	absPath, err := ft.resolvePath(path)
	if err != nil {
		return err
	}
	if oldText == "" {
		return fmt.Errorf("old_text must not be empty")
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}
	content := string(data)

	switch count := strings.Count(content, oldText); {
	case count == 0:
		return fmt.Errorf("old text not found in file: %q", truncate(oldText, 100))
	case count > 1:
		return fmt.Errorf("old text appears %d times in file; must be unique for safe editing", count)
	}

	newContent := strings.Replace(content, oldText, newText, 1)
	if err := os.WriteFile(absPath, []byte(newContent), defaultFileMode); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// DirEntry is one listed file or directory.
type DirEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size,omitempty"`
}

// List lists a directory, directories first.
func (ft *FileTools) List(ctx context.Context, path string) ([]DirEntry, error) {
	if path == "" {
		path = "."
	}
	absPath, err := ft.resolvePath(path)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	result := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		item := DirEntry{Name: entry.Name(), Type: "file"}
		if entry.IsDir() {
			item.Type = "dir"
		} else if info, err := entry.Info(); err == nil {
			item.Size = info.Size()
		}
		result = append(result, item)
		if len(result) >= maxListEntries {
			break
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Type != result[j].Type {
			return result[i].Type == "dir"
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Glob matches a pattern against workspace paths. A leading "**/" matches
// at any depth.
func (ft *FileTools) Glob(ctx context.Context, pattern string) ([]string, bool, error) {
	if pattern == "" {
		return nil, false, fmt.Errorf("pattern is required")
	}
	root, err := ft.resolvePath(".")
	if err != nil {
		return nil, false, err
	}

	recursive := strings.HasPrefix(pattern, "**/")
	base := strings.TrimPrefix(pattern, "**/")
	if _, err := filepath.Match(base, ""); err != nil {
		return nil, false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var matches []string
	truncated := false
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel := ft.relative(p)
		var ok bool
		if recursive {
			ok, _ = filepath.Match(base, filepath.Base(p))
		} else {
			ok, _ = filepath.Match(pattern, rel)
		}
		if !ok {
			return nil
		}
		if len(matches) >= maxGlobMatches {
			truncated = true
			return filepath.SkipAll
		}
		matches = append(matches, rel)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to walk workspace: %w", err)
	}

	sort.Strings(matches)
	return matches, truncated, nil
}

type readFileTool struct{ files *FileTools }

func (t *readFileTool) Descriptor() mcp.Tool {
	return mcp.NewTool("read_file",
		mcp.WithDescription("Read a text file from the workspace. Use offset and limit to page through large files."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path relative to the workspace")),
		mcp.WithNumber("offset", mcp.Description("First line to return, 1-indexed")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of lines to return")),
	)
}

func (t *readFileTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *readFileTool) Execute(ctx context.Context, args Args) (string, error) {
	return t.files.Read(ctx, args.String("path"), args.Int("offset", 0), args.Int("limit", 0))
}

type writeFileTool struct{ files *FileTools }

func (t *writeFileTool) Descriptor() mcp.Tool {
	return mcp.NewTool("write_file",
		mcp.WithDescription("Create or overwrite a file in the workspace."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path relative to the workspace")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full file content")),
	)
}

func (t *writeFileTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *writeFileTool) Execute(ctx context.Context, args Args) (string, error) {
	path, content := args.String("path"), args.String("content")
	if err := t.files.Write(ctx, path, content); err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"path": path, "bytes": len(content)})
}

type editFileTool struct{ files *FileTools }

func (t *editFileTool) Descriptor() mcp.Tool {
	return mcp.NewTool("edit_file",
		mcp.WithDescription("Replace one exact occurrence of old_text with new_text in a workspace file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path relative to the workspace")),
		mcp.WithString("old_text", mcp.Required(), mcp.Description("Text to replace, must appear exactly once")),
		mcp.WithString("new_text", mcp.Required(), mcp.Description("Replacement text")),
	)
}

func (t *editFileTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *editFileTool) Execute(ctx context.Context, args Args) (string, error) {
	path := args.String("path")
	if err := t.files.Edit(ctx, path, args.String("old_text"), args.String("new_text")); err != nil {
		return "", err
	}
	return jsonResult(map[string]any{"path": path, "replacements": 1})
}

type listDirectoryTool struct{ files *FileTools }

func (t *listDirectoryTool) Descriptor() mcp.Tool {
	return mcp.NewTool("list_directory",
		mcp.WithDescription("List files and directories. Defaults to the workspace root."),
		mcp.WithString("path", mcp.Description("Directory path relative to the workspace")),
	)
}

func (t *listDirectoryTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *listDirectoryTool) Execute(ctx context.Context, args Args) (string, error) {
	entries, err := t.files.List(ctx, args.String("path"))
	if err != nil {
		return "", err
	}
	return jsonResult(entries)
}

type globFilesTool struct{ files *FileTools }

func (t *globFilesTool) Descriptor() mcp.Tool {
	return mcp.NewTool("glob_files",
		mcp.WithDescription("Find workspace files by glob pattern, e.g. \"*.csv\", \"data/*.json\" or \"**/*.go\"."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Glob pattern relative to the workspace")),
	)
}

func (t *globFilesTool) Validate(args Args) error {
	return ValidateSchema(t.Descriptor(), args)
}

func (t *globFilesTool) Execute(ctx context.Context, args Args) (string, error) {
	matches, truncated, err := t.files.Glob(ctx, args.String("pattern"))
	if err != nil {
		return "", err
	}
	if matches == nil {
		matches = []string{}
	}
	return jsonResult(map[string]any{"matches": matches, "truncated": truncated})
}
