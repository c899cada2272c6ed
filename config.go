package canvas

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the file form of the runtime options.
//
//	workers = 4
//	task_timeout = "10s"
//	log_level = "debug"
//
//	[window]
//	width = 800
//	height = 600
//	ratio = 2.0
//
//	[renderer]
//	sample_count = 4
//	max_dimension = 2048
//	clear_color = "#ffffff"
//	acquire_retry_delay = "16ms"
type Config struct {
	Workers     int      `toml:"workers"`
	TaskTimeout Duration `toml:"task_timeout"`
	LogLevel    string   `toml:"log_level"`

	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
}

// WindowConfig is the initial canvas size.
type WindowConfig struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	Ratio  float64 `toml:"ratio"`
}

// RendererConfig configures the surface renderer.
type RendererConfig struct {
	SampleCount       uint32   `toml:"sample_count"`
	MaxDimension      uint32   `toml:"max_dimension"`
	ClearColor        string   `toml:"clear_color"`
	AcquireRetryDelay Duration `toml:"acquire_retry_delay"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Window:   WindowConfig{Width: 800, Height: 600, Ratio: 1},
		Renderer: RendererConfig{
			SampleCount:       4,
			MaxDimension:      2048,
			ClearColor:        "#ffffff",
			AcquireRetryDelay: Duration{16 * time.Millisecond},
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeConfig reads TOML from r on top of DefaultConfig.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate reports values outside their valid range.
func (c Config) Validate() error {
	switch {
	case c.Window.Width < 0 || c.Window.Height < 0:
		return fmt.Errorf("%w: window %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Window.Ratio < 0:
		return fmt.Errorf("%w: ratio %g", ErrInvalidConfig, c.Window.Ratio)
	case c.TaskTimeout.Duration < 0:
		return fmt.Errorf("%w: task_timeout %v", ErrInvalidConfig, c.TaskTimeout)
	case c.Renderer.SampleCount != 0 && c.Renderer.SampleCount != 1 && c.Renderer.SampleCount != 4:
		return fmt.Errorf("%w: sample_count %d (want 1 or 4)", ErrInvalidConfig, c.Renderer.SampleCount)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return l, nil
}

// Options converts c into options for NewRunner and NewSurfaceRenderer.
func (c Config) Options() []Option {
	opts := []Option{
		WithWorkers(c.Workers),
		WithTaskTimeout(c.TaskTimeout.Duration),
		WithSampleCount(c.Renderer.SampleCount),
		WithMaxDimension(c.Renderer.MaxDimension),
		WithAcquireRetryDelay(c.Renderer.AcquireRetryDelay.Duration),
	}
	if c.Renderer.ClearColor != "" {
		opts = append(opts, WithClearColor(Hex(c.Renderer.ClearColor)))
	}
	return opts
}
