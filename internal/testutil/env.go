// Package testutil provides utilities for testing esptools in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points every esptools location at a per-test temporary
// directory. This ensures tests never touch the user's real cache or config.
//
// The cleanup is handled by t.TempDir(), so callers don't need to manually
// clean up. It returns the temporary root.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("ESPTOOLS_CACHE_DIR", filepath.Join(tmpDir, "cache"))
	t.Setenv("ESPTOOLS_CONFIG", filepath.Join(tmpDir, "config", "config.lua"))
	t.Setenv("ESPTOOLS_LOG_LEVEL", "")
	t.Setenv("ESPTOOLS_TOOLS", "")
	t.Setenv("ESPTOOLS_VERIFY_CACHE", "")
	t.Setenv("ESPTOOLS_KEYRING", "")

	// Keep os.UserCacheDir / os.UserConfigDir inside the sandbox too
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "xdg-cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg-config"))

	dirs := []string{
		filepath.Join(tmpDir, "cache"),
		filepath.Join(tmpDir, "config"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}
