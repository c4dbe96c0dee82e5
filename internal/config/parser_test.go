package config

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
)

// mockDetector is a test implementation of platform.Detector.
type mockDetector struct {
	info *platform.Info
	err  error
}

func (m *mockDetector) Detect(ctx context.Context) (*platform.Info, error) {
	return m.info, m.err
}

func TestParser_ParseString_Minimal(t *testing.T) {
	cfg, err := NewParser(nil).ParseString(context.Background(), `esptools = {}`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if len(cfg.Tools) != 0 {
		t.Errorf("Tools = %v, want empty", cfg.Tools)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.VerifyCache {
		t.Error("VerifyCache should default to false")
	}
}

func TestParser_ParseString_Full(t *testing.T) {
	luaCode := `
		esptools = {
			tools = { "esptool", "espefuse" },
			cache_dir = "/var/cache/esptools",
			verify_cache = true,
			log_level = "debug",
			keyring = "/etc/esptools/release.asc",
		}
	`

	cfg, err := NewParser(nil).ParseString(context.Background(), luaCode)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if strings.Join(cfg.Tools, ",") != "esptool,espefuse" {
		t.Errorf("Tools = %v", cfg.Tools)
	}
	if cfg.CacheDir != "/var/cache/esptools" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if !cfg.VerifyCache {
		t.Error("VerifyCache = false, want true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Keyring != "/etc/esptools/release.asc" {
		t.Errorf("Keyring = %q", cfg.Keyring)
	}
}

func TestParser_ParseString_PlatformConditionals(t *testing.T) {
	luaCode := `
		esptools = {
			tools = {
				"esptool",
				platform.when(platform.is_linux, "espidfnvs"),
				platform.when(platform.is_windows, "espsecure"),
			},
		}
	`

	tests := []struct {
		name string
		info *platform.Info
		want string
	}{
		{"linux", &platform.Info{OS: "linux", Arch: "amd64", ABI: platform.ABIGNU}, "esptool,espidfnvs"},
		{"windows", &platform.Info{OS: "windows", Arch: "amd64"}, "esptool,espsecure"},
		{"macos", &platform.Info{OS: "darwin", Arch: "arm64"}, "esptool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewParser(&mockDetector{info: tt.info}).ParseString(context.Background(), luaCode)
			if err != nil {
				t.Fatalf("ParseString() error = %v", err)
			}
			if got := strings.Join(cfg.Tools, ","); got != tt.want {
				t.Errorf("Tools = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParser_ParseString_Errors(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		wantParse bool
		wantField string
	}{
		{name: "syntax_error", code: `esptools = {`, wantParse: true},
		{name: "missing_table", code: `config = {}`, wantParse: true},
		{name: "not_a_table", code: `esptools = "esptool"`, wantParse: true},
		{name: "runtime_error", code: `error("boom")`, wantParse: true},
		{name: "unknown_tool", code: `esptools = { tools = { "esprftool" } }`, wantField: "tools[0]"},
		{name: "tools_not_table", code: `esptools = { tools = "esptool" }`, wantField: "tools"},
		{name: "verify_not_bool", code: `esptools = { verify_cache = "yes" }`, wantField: "verify_cache"},
		{name: "cache_dir_not_string", code: `esptools = { cache_dir = 42 }`, wantField: "cache_dir"},
		{name: "cache_dir_relative", code: `esptools = { cache_dir = "cache" }`, wantField: "cache_dir"},
		{name: "bad_log_level", code: `esptools = { log_level = "chatty" }`, wantField: "log_level"},
		{name: "too_many_tools", code: `esptools = { tools = { "esptool", "esptool", "esptool", "esptool", "esptool" } }`, wantField: "tools"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(nil).ParseString(context.Background(), tt.code)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var parseErr *ParseError
			var validationErr *ValidationError
			switch {
			case tt.wantParse:
				if !errors.As(err, &parseErr) {
					t.Errorf("error = %v (%T), want *ParseError", err, err)
				}
			case errors.As(err, &validationErr):
				if validationErr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", validationErr.Field, tt.wantField)
				}
			default:
				t.Errorf("error = %v (%T), want *ValidationError", err, err)
			}
		})
	}
}

func TestParser_ParseString_PlatformDetectionError(t *testing.T) {
	parser := NewParser(&mockDetector{err: errors.New("no gopsutil")})

	_, err := parser.ParseString(context.Background(), `esptools = {}`)
	if err == nil || !strings.Contains(err.Error(), "platform detection failed") {
		t.Errorf("error = %v, want platform detection error", err)
	}
}

func TestParser_ParseString_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(nil).ParseString(ctx, `esptools = {}`)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestParser_ParseString_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewParser(nil).ParseString(ctx, `while true do end`)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestParser_ParseString_TooLarge(t *testing.T) {
	code := "esptools = {}\n--" + strings.Repeat("x", MaxConfigSize)

	_, err := NewParser(nil).ParseString(context.Background(), code)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %v, want *ParseError", err)
	}
}

func TestParser_ParseString_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, err := NewParser(nil).ParseString(context.Background(), `esptools = { cache_dir = "~/esp-cache" }`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if !strings.HasPrefix(cfg.CacheDir, home) || !strings.HasSuffix(cfg.CacheDir, "esp-cache") {
		t.Errorf("CacheDir = %q, want under %q", cfg.CacheDir, home)
	}
}

func TestFormatError(t *testing.T) {
	err := &ParseError{
		Message: "Lua error",
		Detail:  "<string>:1: boom\nstack traceback:\n\t[G]: in function 'error'",
	}

	if got := FormatError(err, false); got != "Lua error: <string>:1: boom" {
		t.Errorf("FormatError(non-verbose) = %q", got)
	}
	if got := FormatError(err, true); !strings.Contains(got, "stack traceback") {
		t.Errorf("FormatError(verbose) = %q, want full detail", got)
	}

	wrapped := errors.Join(errors.New("config.lua"), err)
	if got := FormatError(wrapped, false); got != "Lua error: <string>:1: boom" {
		t.Errorf("FormatError(wrapped) = %q", got)
	}

	plain := errors.New("plain")
	if got := FormatError(plain, false); got != "plain" {
		t.Errorf("FormatError(plain) = %q", got)
	}
}

func TestExtractTools_SkipsNonStrings(t *testing.T) {
	cfg, err := NewParser(nil).ParseString(context.Background(), `esptools = { tools = { "esptool", nil, 3, "espsecure" } }`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got := strings.Join(cfg.Tools, ","); got != "esptool,espsecure" {
		t.Errorf("Tools = %s, want esptool,espsecure", got)
	}
}
