// Package testutil provides fixtures for testing tooldef in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupWorkspace creates an isolated workspace directory and points the
// environment at it. Signing and GitHub variables are cleared so tests never
// pick up credentials from the developer's shell.
//
// The directory is removed by t.TempDir(), so callers don't need to clean up.
func SetupWorkspace(t *testing.T) string {
	t.Helper()

	workspace := filepath.Join(t.TempDir(), "workspace")
	if err := os.MkdirAll(workspace, 0o750); err != nil {
		t.Fatalf("failed to create workspace %s: %v", workspace, err)
	}

	t.Setenv("GITHUB_WORKSPACE", workspace)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("TOOLDEF_SIGN_KEY", "")
	t.Setenv("TOOLDEF_SIGN_KEY_FILE", "")
	t.Setenv("TOOLDEF_SIGN_PASSPHRASE", "")

	return workspace
}
