package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/absensi/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// are timex.Duration, so "3s" and integer nanoseconds both work. Absent
// fields keep their current value.
type JsonConfig struct {
	DatabasePath        *string         `json:"database_path"`
	EndpointURL         *string         `json:"endpoint_url"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	LogFile             *string         `json:"log_file"`
	LogLevel            *string         `json:"log_level"`
	StrictAck           *bool           `json:"strict_ack"`
}

// parseJSON overlays cfg with the JSON file at path. An empty path is a
// no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.EndpointURL != nil {
		cfg.EndpointURL = *jc.EndpointURL
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogFile != nil {
		cfg.LogFile = *jc.LogFile
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.StrictAck != nil {
		cfg.StrictAck = *jc.StrictAck
	}
	return nil
}
