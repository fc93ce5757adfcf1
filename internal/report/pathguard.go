package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard confines report and workbook paths handed to the MCP tools to
// the configured working directory.
type PathGuard struct {
	workDirectory string
}

// NewPathGuard creates a guard for the given directory.
func NewPathGuard(workDirectory string) (*PathGuard, error) {
	if workDirectory == "" {
		return nil, fmt.Errorf("working directory cannot be empty")
	}
	return &PathGuard{workDirectory: workDirectory}, nil
}

// WorkDirectory returns the configured directory.
func (g *PathGuard) WorkDirectory() string {
	return g.workDirectory
}

// Resolve turns path into an absolute path (relative paths are taken
// relative to the working directory) and verifies it stays inside it.
func (g *PathGuard) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	path = strings.ReplaceAll(path, "\x00", "")

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.workDirectory, path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := g.check(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

func (g *PathGuard) check(absPath string) error {
	absDir, err := filepath.Abs(g.workDirectory)
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(absDir)

	// Symlinked paths must also land inside the working directory.
	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}
	realDir := cleanDir
	if resolved, err := filepath.EvalSymlinks(cleanDir); err == nil {
		realDir = resolved
	}

	if !within(cleanPath, cleanDir) && !within(cleanPath, realDir) {
		return fmt.Errorf("path is outside working directory: %s", absPath)
	}
	if !within(realPath, cleanDir) && !within(realPath, realDir) {
		return fmt.Errorf("path is outside working directory: %s", absPath)
	}
	return nil
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
