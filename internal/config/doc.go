// Package config loads the esptools configuration file.
//
// # Overview
//
// The configuration is a Lua file evaluated in a sandboxed gopher-lua VM.
// It must assign a global table named esptools:
//
//	esptools = {
//	  tools = { "esptool", "espefuse" },  -- enabled subset; default: all bundled
//	  cache_dir = "~/.cache/esptools",     -- extraction root
//	  verify_cache = false,                -- re-hash cached executables
//	  log_level = "warn",                  -- debug, info, warn, error
//	  keyring = "~/.config/esptools/release.asc", -- require a signed payload
//	}
//
// A read-only platform table is injected before the file runs, so configs
// can branch on the host:
//
//	esptools = {
//	  tools = {
//	    "esptool",
//	    platform.when(not platform.is_windows, "espidfnvs"),
//	  },
//	}
//
// # Sandbox
//
// The os, io and debug libraries are removed, as are require, dofile,
// loadfile, load and loadstring. string, table and math remain available.
// Parsing honors context cancellation; without a deadline a default
// timeout of five seconds applies. Files larger than MaxConfigSize are
// rejected before evaluation.
//
// # Environment
//
// After the file is evaluated, environment variables override it:
// ESPTOOLS_TOOLS (comma-separated), ESPTOOLS_CACHE_DIR,
// ESPTOOLS_VERIFY_CACHE, ESPTOOLS_LOG_LEVEL and ESPTOOLS_KEYRING.
// ESPTOOLS_CONFIG selects the file itself; the default location is
// <user config dir>/esptools/config.lua and a missing default file yields
// the defaults.
//
// # Errors
//
// Lua failures are reported as *ParseError, schema violations as
// *ValidationError. FormatError trims Lua stack traces for display.
package config
