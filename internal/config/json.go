package config

import (
	"encoding/json"
	"os"

	"github.com/konturpay/kontur-go/internal/flagx"
	"github.com/konturpay/kontur-go/internal/timex"
)

// jsonConfig is the file DTO. timex.Duration lets the file say "15s" instead
// of nanoseconds.
type jsonConfig struct {
	Host           string         `json:"host"`
	StorageDir     string         `json:"storage_dir"`
	RequestTimeout timex.Duration `json:"request_timeout"`
}

// parseJSON overlays Config with values from the file named by -c/-config.
// No file flag means no overlay. Set fields only: an absent key keeps the
// default.
func parseJSON(cfg *Config) {
	path := flagx.ConfigFilePath()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Host != "" {
		cfg.Host = jc.Host
	}
	if jc.StorageDir != "" {
		cfg.StorageDir = jc.StorageDir
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
