// Package config loads annotator settings from an optional YAML file and
// ANNOTATOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full set of annotator settings.
type Config struct {
	Session SessionConfig `mapstructure:"session"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Labels  []LabelConfig `mapstructure:"labels"`
	Log     LogConfig     `mapstructure:"log"`
}

// SessionConfig holds the interaction thresholds.
type SessionConfig struct {
	HitRadius  float64 `mapstructure:"hit_radius"`
	MinBoxSize int     `mapstructure:"min_box_size"`
	PenSize    int     `mapstructure:"pen_size"`
	IDSeed     int64   `mapstructure:"id_seed"`
}

// PathsConfig names the mask and XML directories. Relative paths are
// resolved against the directory of the annotated image.
type PathsConfig struct {
	MaskDir string `mapstructure:"mask_dir"`
	XMLDir  string `mapstructure:"xml_dir"`
}

// LabelConfig is one palette entry. Color is a "#RRGGBB" hex string; an empty
// color is filled from the generated color wheel.
type LabelConfig struct {
	ID    int    `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	Color string `mapstructure:"color"`
}

// LogConfig selects the logger mode: "debug" or "release".
type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

// Load reads configuration from configPath. An empty path or a missing file
// yields the defaults merged with environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("annotator")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			HitRadius:  15,
			MinBoxSize: 5,
			PenSize:    5,
		},
		Paths: PathsConfig{
			MaskDir: "masks",
			XMLDir:  "xml",
		},
		Log: LogConfig{Mode: "debug"},
	}
}

// Validate rejects settings the interaction layer cannot use.
func (c *Config) Validate() error {
	if c.Session.HitRadius < 0 {
		return fmt.Errorf("session.hit_radius must be >= 0, got %v", c.Session.HitRadius)
	}
	if c.Session.MinBoxSize < 0 {
		return fmt.Errorf("session.min_box_size must be >= 0, got %d", c.Session.MinBoxSize)
	}
	seen := make(map[int]bool, len(c.Labels))
	for _, l := range c.Labels {
		if l.ID <= 0 || l.ID > 255 {
			return fmt.Errorf("label %q: id %d outside 1-255", l.Name, l.ID)
		}
		if seen[l.ID] {
			return fmt.Errorf("label id %d defined twice", l.ID)
		}
		seen[l.ID] = true
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("session.hit_radius", d.Session.HitRadius)
	v.SetDefault("session.min_box_size", d.Session.MinBoxSize)
	v.SetDefault("session.pen_size", d.Session.PenSize)
	v.SetDefault("session.id_seed", d.Session.IDSeed)

	v.SetDefault("paths.mask_dir", d.Paths.MaskDir)
	v.SetDefault("paths.xml_dir", d.Paths.XMLDir)

	v.SetDefault("log.mode", d.Log.Mode)
}
