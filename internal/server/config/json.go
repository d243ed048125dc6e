package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/absensi/internal/flagx"
	"github.com/dmitrijs2005/absensi/internal/timex"
)

// JsonConfig is the JSON file layout. Durations are timex.Duration, so both
// "15m" and integer nanoseconds are accepted. Absent fields keep their
// current value.
type JsonConfig struct {
	Addr            *string         `json:"addr"`
	DatabaseDSN     *string         `json:"database_dsn"`
	Env             *string         `json:"env"`
	LogLevel        *string         `json:"log_level"`
	RateLimitPerMin *int            `json:"rate_limit_per_min"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
	PresignTTL      *timex.Duration `json:"presign_ttl"`
	S3RootUser      *string         `json:"s3_root_user"`
	S3RootPassword  *string         `json:"s3_root_password"`
	S3Bucket        *string         `json:"s3_bucket"`
	S3Region        *string         `json:"s3_region"`
	S3BaseEndpoint  *string         `json:"s3_base_endpoint"`
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// parseJSON overlays cfg with the file given by -c or -config in args.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
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

	setString(&cfg.Addr, jc.Addr)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.Env, jc.Env)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RateLimitPerMin != nil {
		cfg.RateLimitPerMin = *jc.RateLimitPerMin
	}
	if jc.ShutdownTimeout != nil {
		cfg.ShutdownTimeout = jc.ShutdownTimeout.Duration
	}
	if jc.PresignTTL != nil {
		cfg.PresignTTL = jc.PresignTTL.Duration
	}
	setString(&cfg.S3RootUser, jc.S3RootUser)
	setString(&cfg.S3RootPassword, jc.S3RootPassword)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	return nil
}
