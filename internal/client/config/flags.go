package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by every absensi subcommand.
const (
	FlagConfig              = "config"
	FlagDatabase            = "db"
	FlagEndpointURL         = "url"
	FlagOnlineCheckInterval = "online-check-interval"
	FlagRequestTimeout      = "request-timeout"
	FlagLogFile             = "log-file"
	FlagLogLevel            = "log-level"
	FlagStrictAck           = "strict-ack"
)

// RegisterFlags declares the config flags on fs, with the defaults as
// help values.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "path to a JSON config file")
	fs.StringP(FlagDatabase, "d", d.DatabasePath, "path to the local database")
	fs.StringP(FlagEndpointURL, "u", d.EndpointURL, "endpoint URL used while none is saved in settings")
	fs.DurationP(FlagOnlineCheckInterval, "i", d.OnlineCheckInterval, "how often to ping the endpoint")
	fs.Duration(FlagRequestTimeout, d.RequestTimeout, "timeout of a single endpoint request")
	fs.String(FlagLogFile, d.LogFile, `log file path, "-" for stderr`)
	fs.String(FlagLogLevel, d.LogLevel, "debug, info, warn or error")
	fs.Bool(FlagStrictAck, d.StrictAck, "fail a push the endpoint does not acknowledge per row")
}

// parseFlags overlays cfg with the flags the user actually set.
func parseFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case FlagDatabase:
			cfg.DatabasePath, err = fs.GetString(f.Name)
		case FlagEndpointURL:
			cfg.EndpointURL, err = fs.GetString(f.Name)
		case FlagOnlineCheckInterval:
			cfg.OnlineCheckInterval, err = fs.GetDuration(f.Name)
		case FlagRequestTimeout:
			cfg.RequestTimeout, err = fs.GetDuration(f.Name)
		case FlagLogFile:
			cfg.LogFile, err = fs.GetString(f.Name)
		case FlagLogLevel:
			cfg.LogLevel, err = fs.GetString(f.Name)
		case FlagStrictAck:
			cfg.StrictAck, err = fs.GetBool(f.Name)
		}
	})
	return err
}

// Load builds a Config from defaults, then the JSON file named by
// --config, then the flags set on fs. Later sources win.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}
	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, fs); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
