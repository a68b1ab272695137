// Package config holds runtime settings for the konturcli binary. The SDK
// itself is configured in code (kontur.Config); this package only concerns
// the demo client: defaults first, then a JSON file, then flags, with later
// sources winning.
package config

import "time"

type Config struct {
	// Host is the URL of the kontur-client instance.
	Host string
	// StorageDir is where the credential and cooldown ledger files live.
	StorageDir string
	// RequestTimeout bounds one request round-trip.
	RequestTimeout time.Duration
}

func (c *Config) LoadDefaults() {
	c.Host = "http://127.0.0.1:3000"
	c.StorageDir = ".kontur"
	c.RequestTimeout = 15 * time.Second
}

// Load constructs a Config from defaults, an optional JSON file (-c/-config)
// and command-line flags.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
