// Package config loads runtime configuration for the absensi client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config.
//  3. Command-line flags the user set explicitly.
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds. Every field is optional:
//
//	{
//	  "database_path": "absensi.db",
//	  "endpoint_url": "https://script.google.com/macros/s/.../exec",
//	  "online_check_interval": "3s",
//	  "request_timeout": "30s",
//	  "log_file": "absensi.log",
//	  "log_level": "info",
//	  "strict_ack": false
//	}
//
// Device settings that the user edits at runtime (endpoint URL, timezone,
// PIN) live in the local database, not here.
package config
