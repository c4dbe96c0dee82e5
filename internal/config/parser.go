package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/esptools/internal/logging"
	"github.com/ZebulonRouseFrantzich/esptools/internal/platform"
)

// Parser evaluates Lua configs with an injected platform table.
type Parser struct {
	detector platform.Detector
	logger   logging.Logger
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform global undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector, logger: logging.Nop()}
}

// WithLogger returns a copy of p that logs through l.
func (p *Parser) WithLogger(l logging.Logger) *Parser {
	cp := *p
	cp.logger = logging.OrNop(l)
	return &cp
}

// ParseString parses a Lua config from a string. The returned Config is
// validated but environment overrides are not applied.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(luaCode) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), MaxConfigSize),
		}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultParseTimeout)
		defer cancel()
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("parse config: %w", ctxErr)
		}
		return nil, &ParseError{Message: "Lua error", Detail: err.Error()}
	}

	cfg, err := extractConfig(L)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("parsed config", "tools", len(cfg.Tools), "verify_cache", cfg.VerifyCache)
	return cfg, nil
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global esptools table. Absent keys keep their
// defaults; keys of the wrong type are rejected.
func extractConfig(L *lua.LState) (*Config, error) {
	global := L.GetGlobal(luaGlobalEsptools)
	if global.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'esptools' table",
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}
	table := global.(*lua.LTable)

	cfg := Default()

	switch v := table.RawGetString(luaFieldTools); v.Type() {
	case lua.LTNil:
	case lua.LTTable:
		cfg.Tools = extractTools(v.(*lua.LTable))
	default:
		return nil, typeError(luaFieldTools, "table", v)
	}

	var err error
	if cfg.CacheDir, err = optionalString(table, luaFieldCacheDir, cfg.CacheDir); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = optionalString(table, luaFieldLogLevel, cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.Keyring, err = optionalString(table, luaFieldKeyring, cfg.Keyring); err != nil {
		return nil, err
	}

	switch v := table.RawGetString(luaFieldVerify); v.Type() {
	case lua.LTNil:
	case lua.LTBool:
		cfg.VerifyCache = bool(v.(lua.LBool))
	default:
		return nil, typeError(luaFieldVerify, "boolean", v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractTools collects string elements. nil holes left by platform
// conditionals such as platform.when(false, "x") are skipped.
func extractTools(table *lua.LTable) []string {
	var tools []string
	table.ForEach(func(_, value lua.LValue) {
		if value.Type() == lua.LTString {
			tools = append(tools, value.String())
		}
	})
	return tools
}

func optionalString(table *lua.LTable, field, def string) (string, error) {
	switch v := table.RawGetString(field); v.Type() {
	case lua.LTNil:
		return def, nil
	case lua.LTString:
		return v.String(), nil
	default:
		return "", typeError(field, "string", v)
	}
}

func typeError(field, want string, got lua.LValue) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("expected %s, got %s", want, got.Type()),
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
