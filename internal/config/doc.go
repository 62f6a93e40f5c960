// Package config loads runtime configuration for the loadgate client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. LOADGATE_* environment variables (see parseEnv).
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the license service
//	-m string   variant manifest URL
//	-s string   path of the local store database
//	-d string   download directory
//	-t int      request timeout (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be
// either strings like "15s" or integer nanoseconds:
//
//	{
//	  "base_url": "https://api.loadgate.dev/v1/",
//	  "store_path": "loadgate.db",
//	  "request_timeout": "15s"
//	}
//
// The application identity (app name, owner id, version, integrity hash) is
// fixed at compile time; (*Config).Validate reports any drift from the values
// the license service expects.
package config
