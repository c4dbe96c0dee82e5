package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{name: "defaults", cfg: *Default()},
		{name: "all_tools", cfg: Config{Tools: []string{"esptool", "espsecure", "espefuse", "espidfnvs"}}},
		{name: "mixed_case_tool", cfg: Config{Tools: []string{"EspTool"}}},
		{name: "empty_log_level", cfg: Config{LogLevel: ""}},
		{name: "unknown_tool", cfg: Config{Tools: []string{"esptool", "idf.py"}}, wantField: "tools[1]"},
		{name: "relative_keyring", cfg: Config{Keyring: "keys/release.asc"}, wantField: "keyring"},
		{name: "padded_cache", cfg: Config{CacheDir: " /tmp/cache"}, wantField: "cache_dir"},
		{name: "bad_level", cfg: Config{LogLevel: "trace"}, wantField: "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", validationErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: ""},
		{in: "/var/cache/../cache/esp", want: "/var/cache/esp"},
		{in: "~", want: home},
		{in: "~/esp", want: filepath.Join(home, "esp")},
		{in: "~other/esp", wantErr: true},
		{in: "relative", wantErr: true},
		{in: "/trailing ", wantErr: true},
	}

	for _, tt := range tests {
		got, err := validatePath(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("validatePath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("validatePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfig_ToolSet(t *testing.T) {
	all, err := Default().ToolSet()
	if err != nil {
		t.Fatalf("ToolSet() error = %v", err)
	}
	if all.Len() != len(tool.All) {
		t.Errorf("default ToolSet().Len() = %d, want %d", all.Len(), len(tool.All))
	}

	cfg := &Config{Tools: []string{"espefuse", "esptool", "espefuse"}}
	set, err := cfg.ToolSet()
	if err != nil {
		t.Fatalf("ToolSet() error = %v", err)
	}
	got := set.Tools()
	if len(got) != 2 || got[0] != tool.EspEfuse || got[1] != tool.EspTool {
		t.Errorf("ToolSet() = %v, want [espefuse esptool]", got)
	}
}

func TestValidationError_Error(t *testing.T) {
	withField := &ValidationError{Field: "tools", Message: "bad"}
	if withField.Error() != "config validation failed for tools: bad" {
		t.Errorf("Error() = %q", withField.Error())
	}
	bare := &ValidationError{Message: "bad"}
	if bare.Error() != "config validation failed: bad" {
		t.Errorf("Error() = %q", bare.Error())
	}
}
