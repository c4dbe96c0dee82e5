package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// Config represents the complete esptools configuration.
type Config struct {
	// Tools enabled for this user. Empty means every bundled tool.
	Tools []string

	// Root of the extraction cache. Empty means the user cache directory.
	CacheDir string

	// Re-hash cached executables before trusting them
	VerifyCache bool

	// debug, info, warn or error
	LogLevel string

	// OpenPGP public keyring the embedded manifest must be signed with
	Keyring string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{LogLevel: DefaultLogLevel}
}

// Validate checks every field and expands a leading ~/ in paths.
func (c *Config) Validate() error {
	if len(c.Tools) > len(tool.All) {
		return &ValidationError{
			Field:   luaFieldTools,
			Message: fmt.Sprintf("too many tools (%d), there are only %d", len(c.Tools), len(tool.All)),
		}
	}

	for i, name := range c.Tools {
		if _, err := tool.Parse(name); err != nil {
			return &ValidationError{Field: fmt.Sprintf("tools[%d]", i), Message: err.Error()}
		}
	}

	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return &ValidationError{Field: luaFieldLogLevel, Message: err.Error()}
		}
	}

	var err error
	if c.CacheDir, err = validatePath(c.CacheDir); err != nil {
		return &ValidationError{Field: luaFieldCacheDir, Message: err.Error()}
	}
	if c.Keyring, err = validatePath(c.Keyring); err != nil {
		return &ValidationError{Field: luaFieldKeyring, Message: err.Error()}
	}

	return nil
}

// ToolSet returns the enabled tools, defaulting to all of them.
func (c *Config) ToolSet() (tool.Set, error) {
	if len(c.Tools) == 0 {
		return tool.NewSet(tool.All...), nil
	}
	return tool.ParseSet(c.Tools)
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// validatePath expands ~/ and requires an absolute result. Empty is allowed.
func validatePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.TrimSpace(path) != path {
		return "", fmt.Errorf("path has surrounding whitespace: %q", path)
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}

	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path must be absolute or start with ~/: %s", path)
	}

	return filepath.Clean(path), nil
}
