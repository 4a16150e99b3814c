// Package workspace describes the directory layout tooldef writes into and
// guards it against concurrent runs.
//
// Layout below the workspace root:
//
//	v1/<tool>.yaml               generated manifests
//	internal/cache/<tool>/       artifact cache entries
//	internal/locks/<tool>.lock   held while a run writes for <tool>
package workspace

import (
	"fmt"
	"path/filepath"
)

// Layout resolves paths below a workspace root.
type Layout struct {
	root string
}

// New returns the layout of root. The root is made absolute.
func New(root string) (Layout, error) {
	if root == "" {
		return Layout{}, fmt.Errorf("workspace root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve workspace root: %w", err)
	}
	return Layout{root: abs}, nil
}

// Root returns the workspace root.
func (l Layout) Root() string { return l.root }

// CacheDir returns the artifact cache directory of tool.
func (l Layout) CacheDir(tool string) string {
	return filepath.Join(l.root, "internal", "cache", tool)
}

// ManifestPath returns the manifest location of tool.
func (l Layout) ManifestPath(tool string) string {
	return filepath.Join(l.root, "v1", tool+".yaml")
}

// LockDir returns the directory holding run locks.
func (l Layout) LockDir() string {
	return filepath.Join(l.root, "internal", "locks")
}
