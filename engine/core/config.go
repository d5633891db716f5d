package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config for the engine run.
type Config struct {
	Title      string     `yaml:"title"`
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	VSync      bool       `yaml:"vsync"`
	ClearColor [4]float32 `yaml:"clear_color"` // RGBA
	LogLevel   string     `yaml:"log_level"`   // "debug" | "info" | "warn" | "error" | "" (silent)

	Batching BatchConfig `yaml:"batching"`
}

// BatchConfig tunes the 2D batch stack.
type BatchConfig struct {
	MaxQuads     int `yaml:"max_quads"`     // quads per draw call
	InitialSlots int `yaml:"initial_slots"` // batch slots allocated up front
	MinRetained  int `yaml:"min_retained"`  // slots a trim never releases
	MaxSlots     int `yaml:"max_slots"`     // 0 = unbounded
	TrimEvery    int `yaml:"trim_every"`    // frames between trims, 0 = never
}

func DefaultConfig() Config {
	return Config{
		Title:      "quadstack",
		Width:      1280,
		Height:     720,
		VSync:      true,
		ClearColor: [4]float32{0.08, 0.10, 0.12, 1},
		Batching: BatchConfig{
			MaxQuads:     10000,
			InitialSlots: 1,
			MinRetained:  1,
			TrimEvery:    120,
		},
	}
}

// LoadConfig reads a YAML config on top of DefaultConfig. A missing file is
// not an error: the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		Logger().Debug("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config: parse %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height)
	}
	b := c.Batching
	if b.MaxQuads < 0 || b.InitialSlots < 0 || b.MinRetained < 0 || b.MaxSlots < 0 || b.TrimEvery < 0 {
		return errors.New("batching values must not be negative")
	}
	if b.MaxSlots == 1 {
		return errors.New("max_slots must be 0 (unbounded) or at least 2")
	}
	if b.MaxSlots > 0 && b.InitialSlots > b.MaxSlots {
		return fmt.Errorf("initial_slots %d exceeds max_slots %d", b.InitialSlots, b.MaxSlots)
	}
	return nil
}
