package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/joho/godotenv"

	"go-raga/composer"
	"go-raga/errs"
	"go-raga/midi"
)

// Environment overrides, applied after the file.
const (
	EnvPort    = "RAGA_MIDI_PORT"
	EnvKit     = "RAGA_KIT"
	EnvRaga    = "RAGA_NAME"
	EnvMode    = "RAGA_MODE"
	EnvSeed    = "RAGA_SEED"
	EnvDebug   = "RAGA_DEBUG"
	EnvLibrary = "RAGA_LIBRARY"
)

var modes = []string{"ambient", "rhythm", "interaction"}

// OutputConfig defines the synth MIDI output
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
	// Channels are 0-based MIDI channels for melody, bass, pad and drums.
	Channels []int  `json:"channels,omitempty"`
	Kit      string `json:"kit,omitempty"`
	// DrumLevels override kit levels in dB, keyed by voice name.
	DrumLevels map[string]float64 `json:"drumLevels,omitempty"`
}

// PerformanceConfig picks what plays at startup
type PerformanceConfig struct {
	Raga                string `json:"raga,omitempty"` // empty: suggest by time of day
	Mode                string `json:"mode,omitempty"`
	Seed                uint64 `json:"seed,omitempty"` // 0: seed from the clock
	BeatsPerBar         int    `json:"beatsPerBar,omitempty"`
	SubdivisionsPerBeat int    `json:"subdivisionsPerBeat,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output      OutputConfig      `json:"output,omitempty"`
	Performance PerformanceConfig `json:"performance,omitempty"`
	RagaLibrary string            `json:"ragaLibrary,omitempty"` // JSON file replacing the built-in ragas
	Palette     string            `json:"palette,omitempty"`     // GIMP .gpl file replacing raga colours
	Debug       bool              `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Channels: []int{0, 1, 2, 9},
			Kit:      midi.DefaultKit,
		},
		Performance: PerformanceConfig{
			Mode:                "ambient",
			BeatsPerBar:         composer.DefaultTimeSignature.BeatsPerBar,
			SubdivisionsPerBeat: composer.DefaultTimeSignature.SubdivisionsPerBeat,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-raga"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults. A missing file is not an error.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"))
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("parse config", fmt.Sprintf("%s is not valid JSON", path)),
			ftag.With(errs.ConfigError))
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config dir"))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadEnv reads .env style files into the process environment. Missing
// files are skipped; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fault.Wrap(err,
				fmsg.WithDesc("load env", fmt.Sprintf("could not read %s", f)),
				ftag.With(errs.ConfigError))
		}
	}
	return nil
}

// ApplyEnv overrides fields from lookup, usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok {
		c.Output.PortName = v
	}
	if v, ok := lookup(EnvKit); ok {
		c.Output.Kit = v
	}
	if v, ok := lookup(EnvRaga); ok {
		c.Performance.Raga = v
	}
	if v, ok := lookup(EnvMode); ok {
		c.Performance.Mode = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLibrary); ok {
		c.RagaLibrary = v
	}
	if v, ok := lookup(EnvSeed); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errs.Config(fmt.Sprintf("%s=%q: %v", EnvSeed, v, err), EnvSeed+" must be a non-negative integer")
		}
		c.Performance.Seed = seed
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return errs.Config(fmt.Sprintf("%s=%q: %v", EnvDebug, v, err), EnvDebug+" must be true or false")
		}
		c.Debug = on
	}
	return nil
}

// Validate checks everything that can be checked without a MIDI port.
func (c *Config) Validate() error {
	if _, err := c.MIDIChannels(); err != nil {
		return err
	}
	if _, ok := midi.Kits[c.Output.Kit]; !ok && c.Output.Kit != "" {
		return errs.Config(
			fmt.Sprintf("unknown kit %q", c.Output.Kit),
			"Kit must be one of "+strings.Join(midi.KitNames(), ", "))
	}
	for name := range c.Output.DrumLevels {
		if _, ok := midi.VoiceByName(name); !ok {
			return errs.Config(fmt.Sprintf("unknown drum voice %q", name), "Unknown drum voice in drumLevels")
		}
	}
	if !validMode(c.Performance.Mode) {
		return errs.Config(
			fmt.Sprintf("unknown mode %q", c.Performance.Mode),
			"Mode must be one of "+strings.Join(modes, ", "))
	}
	return c.TimeSignature().Validate()
}

// MIDIChannels maps the configured channel list onto the output's groups.
func (c *Config) MIDIChannels() (midi.Channels, error) {
	ch := midi.DefaultChannels
	if len(c.Output.Channels) == 0 {
		return ch, nil
	}
	if len(c.Output.Channels) != int(midi.NumChannels) {
		return ch, errs.Config(
			fmt.Sprintf("%d channels configured", len(c.Output.Channels)),
			"Give four channels: melody, bass, pad, drums")
	}
	for i, n := range c.Output.Channels {
		if n < 0 || n > 15 {
			return ch, errs.Config(fmt.Sprintf("channel %d out of range", n), "MIDI channels are 0-15")
		}
		ch[i] = uint8(n)
	}
	return ch, nil
}

// TimeSignature is the configured meter; zero fields fall back to 4/4.
func (c *Config) TimeSignature() composer.TimeSignature {
	sig := composer.DefaultTimeSignature
	if c.Performance.BeatsPerBar != 0 {
		sig.BeatsPerBar = c.Performance.BeatsPerBar
	}
	if c.Performance.SubdivisionsPerBeat != 0 {
		sig.SubdivisionsPerBeat = c.Performance.SubdivisionsPerBeat
	}
	return sig
}

// Kit resolves the configured kit with any level overrides.
func (c *Config) Kit() midi.Kit {
	return midi.GetKit(c.Output.Kit).WithLevels(c.Output.DrumLevels)
}

func validMode(m string) bool {
	for _, name := range modes {
		if name == m {
			return true
		}
	}
	return false
}
