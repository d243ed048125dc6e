package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the absensi client.
//
// EndpointURL is only a fallback: the URL stored in the device settings wins.
type Config struct {
	DatabasePath        string
	EndpointURL         string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	LogFile             string
	LogLevel            string
	StrictAck           bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "absensi.db"
	c.EndpointURL = ""
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.LogFile = "absensi.log"
	c.LogLevel = "info"
	c.StrictAck = false
}

func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
