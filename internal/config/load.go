package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
)

// LoadOptions configures Load.
type LoadOptions struct {
	// Path of the config file. Overrides ESPTOOLS_CONFIG and the default.
	Path string
	// Detector provides the platform table. Nil skips injection.
	Detector platform.Detector
	// Getenv reads environment variables. Defaults to os.Getenv.
	Getenv func(string) string
	Logger logging.Logger
}

// DefaultPath returns <user config dir>/esptools/config.lua.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}
	return filepath.Join(dir, appDir, configFile), nil
}

// Load reads the config file, applies environment overrides and validates
// the result. A missing file at the default location yields defaults; a
// missing file that was named explicitly is an error.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	logger := logging.OrNop(opts.Logger)

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		if env := getenv(EnvConfig); env != "" {
			path, explicit = env, true
		}
	}
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			logger.Debug("no config directory, using defaults", "error", err)
			path = ""
		}
	}

	cfg := Default()
	if path != "" {
		parsed, err := parseFile(ctx, path, opts.Detector, logger)
		switch {
		case err == nil:
			cfg = parsed
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			logger.Debug("no config file, using defaults", "path", path)
		default:
			return nil, err
		}
	}

	if err := ApplyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFile(ctx context.Context, path string, detector platform.Detector, logger logging.Logger) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if info.Size() > MaxConfigSize {
		return nil, &ParseError{
			Message: "config too large",
			Detail:  fmt.Sprintf("%s is %d bytes, maximum is %d", path, info.Size(), MaxConfigSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := NewParser(detector).WithLogger(logger).ParseString(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Debug("loaded config", "path", path)
	return cfg, nil
}

// ApplyEnv overrides cfg with ESPTOOLS_* variables that are set.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv(EnvTools); v != "" {
		var tools []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				tools = append(tools, name)
			}
		}
		cfg.Tools = tools
	}

	if v := getenv(EnvCacheDir); v != "" {
		cfg.CacheDir = v
	}

	if v := getenv(EnvVerifyCache); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Field: EnvVerifyCache, Message: fmt.Sprintf("not a boolean: %q", v)}
		}
		cfg.VerifyCache = b
	}

	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if v := getenv(EnvKeyring); v != "" {
		cfg.Keyring = v
	}

	return nil
}
