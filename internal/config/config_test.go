package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(60), cfg.Runtime.TickRateHz)
	assert.Equal(t, "local", cfg.Transport.Kind)
	assert.Equal(t, "/timeline/emit", cfg.Timeline.EmitAddress)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kitu.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[runtime]
tick_rate_hz = 30
max_ticks = 90

[transport]
kind = "queue"
connected = false

[database]
conn_max_lifetime = "5m"

[snapshot]
interval_ticks = 10

[logging]
format = "json"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), cfg.Runtime.TickRateHz)
	assert.Equal(t, uint64(90), cfg.Runtime.MaxTicks)
	assert.Equal(t, "queue", cfg.Transport.Kind)
	assert.False(t, cfg.Transport.Connected)
	assert.Equal(t, 128, cfg.Transport.InQueueSize, "untouched keys keep defaults")
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "kitu", cfg.Database.Schema)
	assert.Equal(t, uint64(10), cfg.Snapshot.IntervalTicks)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"zero rate":   "[runtime]\ntick_rate_hz = 0\n",
		"bad kind":    "[transport]\nkind = \"udp\"\n",
		"bad queue":   "[transport]\nin_queue_size = 0\n",
		"admin addr":  "[admin]\nenabled = true\nbind_address = \"\"\n",
		"no schema":   "[database]\ndsn = \"postgres://x\"\nschema = \"\"\n",
		"broken toml": "[runtime\n",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text, name)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
