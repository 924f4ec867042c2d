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
	// Run from an empty directory so no stray kuuki.yaml is picked up.
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Sampling.Samples)
	assert.Equal(t, 3, cfg.Sampling.MinValid)
	assert.Equal(t, 10, cfg.Sampling.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Sampling.ReadTimeout)
	assert.Equal(t, time.Second, cfg.Sampling.Delay)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 1013.25, cfg.Env.SeaLevelHPa)
	assert.True(t, cfg.Output.Line.Enable)
	assert.False(t, cfg.Output.ThingSpeak.Enable)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kuuki.yaml")
	data := `
serial:
  port: /dev/ttyUSB0
  baud_rate: 115200
sampling:
  samples: 8
  min_valid: 4
  max_attempts: 16
  delay: 500ms
output:
  thingspeak:
    enable: true
    key: TESTKEY
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, 8, cfg.Sampling.Samples)
	assert.Equal(t, 4, cfg.Sampling.MinValid)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampling.Delay)
	assert.True(t, cfg.Output.ThingSpeak.Enable)
	assert.Equal(t, "TESTKEY", cfg.Output.ThingSpeak.Key)

	// Untouched sections keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.Sampling.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.Cycle.Interval)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidQuorum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kuuki.yaml")
	data := `
sampling:
  samples: 3
  min_valid: 7
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_valid")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kuuki.yaml")

	want := Default()
	want.Serial.Port = "/dev/ttyACM1"
	want.Sampling.Samples = 7
	want.Sampling.MaxAttempts = 14
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}, ok: true},
		{name: "zero samples", mutate: func(c *Config) { c.Sampling.Samples = 0 }},
		{name: "zero quorum", mutate: func(c *Config) { c.Sampling.MinValid = 0 }},
		{name: "attempts below target", mutate: func(c *Config) { c.Sampling.MaxAttempts = 2 }},
		{name: "negative sea level", mutate: func(c *Config) { c.Env.SeaLevelHPa = -1 }},
		{name: "zero interval", mutate: func(c *Config) { c.Cycle.Interval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
