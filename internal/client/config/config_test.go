package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "absensi.db", c.DatabasePath)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.StrictAck)
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"database_path":         "/data/json.db",
		"endpoint_url":          "https://json.example/exec",
		"online_check_interval": "10s",
		"request_timeout":       5000000000,
		"strict_ack":            true,
	})

	tests := []struct {
		name string
		args []string
		want Config
	}{
		{
			name: "defaults only",
			want: Config{DatabasePath: "absensi.db", OnlineCheckInterval: 3 * time.Second,
				RequestTimeout: 30 * time.Second, LogFile: "absensi.log", LogLevel: "info"},
		},
		{
			name: "json over defaults",
			args: []string{"-c", path},
			want: Config{DatabasePath: "/data/json.db", EndpointURL: "https://json.example/exec",
				OnlineCheckInterval: 10 * time.Second, RequestTimeout: 5 * time.Second,
				LogFile: "absensi.log", LogLevel: "info", StrictAck: true},
		},
		{
			name: "flags over json",
			args: []string{"--config", path, "-d", "flag.db", "-i", "1m", "--strict-ack=false", "--log-level", "debug"},
			want: Config{DatabasePath: "flag.db", EndpointURL: "https://json.example/exec",
				OnlineCheckInterval: time.Minute, RequestTimeout: 5 * time.Second,
				LogFile: "absensi.log", LogLevel: "debug", StrictAck: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(newFlagSet(t, tt.args...))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, *cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

	_, err := Load(newFlagSet(t, "-c", bad))
	assert.Error(t, err)

	_, err = Load(newFlagSet(t, "-c", filepath.Join(t.TempDir(), "missing.json")))
	assert.Error(t, err)

	_, err = Load(newFlagSet(t, "-i", "0s"))
	assert.Error(t, err)

	_, err = Load(newFlagSet(t, "--request-timeout", "-1s"))
	assert.Error(t, err)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	assert.Error(t, fs.Parse([]string{"-i", "abc"}))
}
