// Package artifacts confines artifact output paths to the configured
// output directory. Video and trace destinations arrive as tool arguments,
// so they are validated here before any file is written.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Guard validates that artifact paths stay inside one root directory.
type Guard struct {
	root string
}

// NewGuard creates a guard rooted at dir, creating the directory when it
// does not exist. Symlinks in the root are resolved so later comparisons
// are against the real path.
func NewGuard(dir string) (*Guard, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory cannot be empty")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact directory: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	evalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate artifact directory symlinks: %w", err)
	}

	return &Guard{root: evalPath}, nil
}

// Root returns the guarded artifact directory.
func (g *Guard) Root() string {
	return g.root
}

// Resolve maps a caller-supplied path to an absolute path inside the
// artifact directory. An empty path resolves to the root; relative paths
// are joined under it. Paths that escape the root are rejected.
func (g *Guard) Resolve(path string) (string, error) {
	if path == "" {
		return g.root, nil
	}

	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(g.root, resolved)
	}
	if !g.Within(resolved) {
		return "", fmt.Errorf("path '%s' is outside the artifact directory", path)
	}
	return resolved, nil
}

// Within reports whether the given path is the root or a descendant of it.
func (g *Guard) Within(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(g.root, abs)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
