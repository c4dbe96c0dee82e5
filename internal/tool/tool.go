// Package tool defines the closed set of Espressif executables that esptools
// can bundle, along with their on-disk file names and CLI keywords.
package tool

import (
	"fmt"
	"strings"
)

// Tool represents a bundled vendor executable.
type Tool string

const (
	// EspTool is the flashing utility (esptool.py).
	EspTool Tool = "esptool"
	// EspSecure is the signing/encryption utility (espsecure.py).
	EspSecure Tool = "espsecure"
	// EspEfuse is the eFuse utility (espefuse.py).
	EspEfuse Tool = "espefuse"
	// EspIdfNvs is the NVS partition generator (esp-idf-nvs-partition-gen).
	EspIdfNvs Tool = "espidfnvs"
)

// exeSuffix is appended to file names on Windows.
const exeSuffix = ".exe"

// All lists every known tool in canonical order.
var All = []Tool{EspTool, EspSecure, EspEfuse, EspIdfNvs}

// keywords maps each tool to the CLI commands that select it.
// The first keyword is the primary command name.
var keywords = map[Tool][]string{
	EspTool:   {"tool", "flash"},
	EspSecure: {"secure"},
	EspEfuse:  {"efuse"},
	EspIdfNvs: {"idfnvs"},
}

// String returns the base name of the tool.
func (t Tool) String() string {
	return string(t)
}

// Valid reports whether t is one of the known tools.
func (t Tool) Valid() bool {
	_, ok := keywords[t]
	return ok
}

// FileName returns the executable file name of the tool.
// On Windows the name carries the .exe extension.
func (t Tool) FileName(windows bool) string {
	if windows {
		return string(t) + exeSuffix
	}
	return string(t)
}

// Keywords returns the CLI commands that select the tool.
func (t Tool) Keywords() []string {
	return append([]string(nil), keywords[t]...)
}

// Matches reports whether cmd (case-insensitive) selects the tool.
func (t Tool) Matches(cmd string) bool {
	cmd = strings.ToLower(cmd)
	for _, kw := range keywords[t] {
		if kw == cmd {
			return true
		}
	}
	return false
}

// Description returns a human readable list of the tool's keywords,
// e.g. "`tool` (or `flash`)".
func (t Tool) Description() string {
	kws := keywords[t]
	if len(kws) == 0 {
		return ""
	}
	desc := "`" + kws[0] + "`"
	if len(kws) > 1 {
		desc += " (or `" + strings.Join(kws[1:], "`, `") + "`)"
	}
	return desc
}

// Parse converts a tool name to a Tool.
func Parse(name string) (Tool, error) {
	t := Tool(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tool: %q", name)
	}
	return t, nil
}
