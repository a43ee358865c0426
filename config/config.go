package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Profile selects a scheduler tuning preset
type Profile string

const (
	ProfileDefault   Profile = ""
	ProfileLatency   Profile = "latency"   // 10ms ticks, short lookahead
	ProfileStability Profile = "stability" // 25ms ticks, long lookahead
)

// OutputConfig defines where scheduled events are sent
type OutputConfig struct {
	MIDIPort string `json:"midiPort,omitempty"` // empty = built-in audition voices
	Channel  uint8  `json:"channel,omitempty"`  // 1-16
	Kit      string `json:"kit,omitempty"`
}

// EngineConfig stores scheduler preferences
type EngineConfig struct {
	LastTempo   float64 `json:"lastTempo,omitempty"`
	Subdivision int     `json:"subdivision,omitempty"`
	Profile     Profile `json:"profile,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output OutputConfig `json:"output,omitempty"`
	Engine EngineConfig `json:"engine,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Channel: 10, // GM percussion channel
			Kit:     "gm",
		},
		Engine: EngineConfig{
			LastTempo:   120,
			Subdivision: 16,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-beatclock"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads a config from an explicit path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to an explicit path
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
