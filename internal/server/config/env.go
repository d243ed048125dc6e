package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by the endpoint.
const (
	EnvAddr            = "ABSENSI_ADDR"
	EnvDatabaseDSN     = "DATABASE_DSN"
	EnvEnv             = "APP_ENV"
	EnvLogLevel        = "LOG_LEVEL"
	EnvRateLimitPerMin = "RATE_LIMIT_PER_MIN"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
	EnvPresignTTL      = "PRESIGN_TTL"
	EnvS3RootUser      = "MINIO_ROOT_USER"
	EnvS3RootPassword  = "MINIO_ROOT_PASSWORD"
	EnvS3Bucket        = "S3_BUCKET"
	EnvS3Region        = "S3_REGION"
	EnvS3BaseEndpoint  = "S3_BASE_ENDPOINT"
)

// dotenvFile is loaded into the process environment when it exists.
// Variables already set win over the file.
var dotenvFile = ".env"

func parseEnv(cfg *Config) error {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotenvFile, err)
	}

	strs := map[string]*string{
		EnvAddr:           &cfg.Addr,
		EnvDatabaseDSN:    &cfg.DatabaseDSN,
		EnvEnv:            &cfg.Env,
		EnvLogLevel:       &cfg.LogLevel,
		EnvS3RootUser:     &cfg.S3RootUser,
		EnvS3RootPassword: &cfg.S3RootPassword,
		EnvS3Bucket:       &cfg.S3Bucket,
		EnvS3Region:       &cfg.S3Region,
		EnvS3BaseEndpoint: &cfg.S3BaseEndpoint,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvRateLimitPerMin); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimitPerMin, err)
		}
		cfg.RateLimitPerMin = n
	}

	durations := map[string]*time.Duration{
		EnvShutdownTimeout: &cfg.ShutdownTimeout,
		EnvPresignTTL:      &cfg.PresignTTL,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}
