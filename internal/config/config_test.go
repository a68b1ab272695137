package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:3000", cfg.Host)
	assert.Equal(t, ".kontur", cfg.StorageDir)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestLoad_JSONOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"host":"https://pay.example","request_timeout":"30s"}`), 0o600))

	oldArgs := os.Args
	os.Args = []string{"konturcli", "-c", path}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := Load()
	assert.Equal(t, "https://pay.example", cfg.Host)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	// Absent key keeps the default.
	assert.Equal(t, ".kontur", cfg.StorageDir)
}

func TestLoad_FlagsBeatJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"host":"https://json.example"}`), 0o600))

	oldArgs := os.Args
	os.Args = []string{"konturcli", "-c", path, "-a", "https://flag.example"}
	t.Cleanup(func() { os.Args = oldArgs })

	cfg := Load()
	assert.Equal(t, "https://flag.example", cfg.Host)
}
