package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Generator generates Lua configuration code from a Config.
type Generator struct {
	indent string
	now    func() time.Time
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{indent: "  ", now: time.Now}
}

// Generate renders cfg as a Lua file that ParseString reads back into an
// equal Config. Fields at their default value are written as comments so
// the file documents every option.
func (g *Generator) Generate(cfg *Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("config is required")
	}

	var buf bytes.Buffer

	buf.WriteString("-- esptools configuration\n")
	buf.WriteString("-- Generated: ")
	buf.WriteString(g.now().UTC().Format(time.RFC3339))
	buf.WriteString("\n\n")
	buf.WriteString(luaGlobalEsptools + " = {\n")

	g.writeTools(&buf, cfg.Tools)
	g.writeString(&buf, luaFieldCacheDir, cfg.CacheDir, "~/.cache/esptools")
	if cfg.VerifyCache {
		g.line(&buf, luaFieldVerify+" = true,")
	} else {
		g.line(&buf, "-- "+luaFieldVerify+" = false,")
	}
	logLevel := cfg.LogLevel
	if logLevel == DefaultLogLevel {
		logLevel = ""
	}
	g.writeString(&buf, luaFieldLogLevel, logLevel, DefaultLogLevel)
	g.writeString(&buf, luaFieldKeyring, cfg.Keyring, "~/.config/esptools/release.asc")

	buf.WriteString("}\n")
	return buf.String(), nil
}

func (g *Generator) writeTools(buf *bytes.Buffer, tools []string) {
	if len(tools) == 0 {
		g.line(buf, "-- "+luaFieldTools+" = { \"esptool\", \"espsecure\", \"espefuse\", \"espidfnvs\" },")
		return
	}

	g.line(buf, luaFieldTools+" = {")
	for _, t := range tools {
		buf.WriteString(g.indent)
		g.line(buf, g.quoteLuaString(t)+",")
	}
	g.line(buf, "},")
}

// writeString writes field = value, or a commented example when value is empty.
func (g *Generator) writeString(buf *bytes.Buffer, field, value, example string) {
	if value == "" {
		g.line(buf, "-- "+field+" = "+g.quoteLuaString(example)+",")
		return
	}
	g.line(buf, field+" = "+g.quoteLuaString(value)+",")
}

func (g *Generator) line(buf *bytes.Buffer, s string) {
	buf.WriteString(g.indent)
	buf.WriteString(s)
	buf.WriteString("\n")
}

// quoteLuaString quotes a string for Lua, handling special characters.
func (g *Generator) quoteLuaString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\") // Escape backslashes first
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return "\"" + s + "\""
}
