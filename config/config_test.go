package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-raga/composer"
	"go-raga/errs"
	"go-raga/midi"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Output.PortName = "IAC Driver Bus 1"
	cfg.Output.Kit = "rd8"
	cfg.Performance.Raga = "Yaman"
	cfg.Performance.Seed = 99
	require.NoError(t, cfg.SaveTo(path))

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"performance":{"raga":"Todi"}}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "Todi", cfg.Performance.Raga)
	assert.Equal(t, "ambient", cfg.Performance.Mode)
	assert.Equal(t, composer.DefaultTimeSignature, cfg.TimeSignature())
}

func TestBadJSONIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"performance":`), 0644))

	_, err := LoadFrom(path)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ConfigError))
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(env(map[string]string{
		EnvPort:  "Synth",
		EnvRaga:  "Malkauns",
		EnvMode:  "Rhythm",
		EnvSeed:  "12",
		EnvDebug: "true",
		EnvKit:   "tr8s",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Synth", cfg.Output.PortName)
	assert.Equal(t, "Malkauns", cfg.Performance.Raga)
	assert.Equal(t, "rhythm", cfg.Performance.Mode)
	assert.Equal(t, uint64(12), cfg.Performance.Seed)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "tr8s", cfg.Output.Kit)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	for _, vars := range []map[string]string{
		{EnvSeed: "-1"},
		{EnvDebug: "sometimes"},
	} {
		err := DefaultConfig().ApplyEnv(env(vars))
		assert.True(t, errs.Is(err, errs.ConfigError), "%v", vars)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RAGA_NAME=Bhupali\n"), 0644))
	t.Setenv(EnvRaga, "")
	os.Unsetenv(EnvRaga)

	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	v, ok := os.LookupEnv(EnvRaga)
	assert.True(t, ok)
	assert.Equal(t, "Bhupali", v)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"three channels", func(c *Config) { c.Output.Channels = []int{0, 1, 2} }},
		{"channel 16", func(c *Config) { c.Output.Channels = []int{0, 1, 2, 16} }},
		{"unknown kit", func(c *Config) { c.Output.Kit = "808" }},
		{"unknown voice", func(c *Config) { c.Output.DrumLevels = map[string]float64{"cowbell": -3} }},
		{"unknown mode", func(c *Config) { c.Performance.Mode = "drone" }},
		{"zero-length bar", func(c *Config) { c.Performance.BeatsPerBar = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.ConfigError))
		})
	}
}

func TestChannelsAndKit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Channels = []int{3, 4, 5, 9}
	ch, err := cfg.MIDIChannels()
	require.NoError(t, err)
	assert.Equal(t, midi.Channels{3, 4, 5, 9}, ch)

	cfg.Output.Kit = "rd8"
	cfg.Output.DrumLevels = map[string]float64{"kick": 0}
	kit := cfg.Kit()
	assert.Equal(t, "Behringer RD-8", kit.Name)
	assert.InDelta(t, 1.0, kit.Gain(midi.VoiceKick), 1e-9)
}
