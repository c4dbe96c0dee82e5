package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalEsptools = "esptools"
	luaFieldTools     = "tools"
	luaFieldCacheDir  = "cache_dir"
	luaFieldVerify    = "verify_cache"
	luaFieldLogLevel  = "log_level"
	luaFieldKeyring   = "keyring"
)

// Environment variables
const (
	EnvConfig      = "ESPTOOLS_CONFIG"
	EnvTools       = "ESPTOOLS_TOOLS"
	EnvCacheDir    = "ESPTOOLS_CACHE_DIR"
	EnvVerifyCache = "ESPTOOLS_VERIFY_CACHE"
	EnvLogLevel    = "ESPTOOLS_LOG_LEVEL"
	EnvKeyring     = "ESPTOOLS_KEYRING"
)

const (
	// MaxConfigSize is the largest config file accepted.
	MaxConfigSize = 1 << 20

	// DefaultParseTimeout bounds evaluation when the context has no deadline.
	DefaultParseTimeout = 5 * time.Second

	// DefaultLogLevel keeps the CLI quiet so tool output stands alone.
	DefaultLogLevel = "warn"

	appDir     = "esptools"
	configFile = "config.lua"
)
