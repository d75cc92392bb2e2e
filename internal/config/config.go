// Package config loads the YAML configuration shared by every protozoactl
// command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"protozoa/internal/morphology"
	"protozoa/internal/params"
)

type Config struct {
	Run       RunConfig       `yaml:"run"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Store     StoreConfig     `yaml:"store"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Log       LogConfig       `yaml:"log"`
	Serve     ServeConfig     `yaml:"serve"`
}

type RunConfig struct {
	Seed int64 `yaml:"seed"`
	// DishSeed seeds the nutrient field; zero derives it from Seed.
	DishSeed    int64   `yaml:"dish_seed"`
	Ticks       int     `yaml:"ticks" validate:"gte=1,lte=10000000"`
	SampleEvery int     `yaml:"sample_every" validate:"gte=1"`
	Profile     string  `yaml:"profile" validate:"required"`
	StartX      float64 `yaml:"start_x" validate:"gte=0"`
	StartY      float64 `yaml:"start_y" validate:"gte=0"`
	Width       float64 `yaml:"width" validate:"gt=0"`
	Height      float64 `yaml:"height" validate:"gt=0"`
	// TickInterval paces live views; batch runs ignore it.
	TickInterval time.Duration `yaml:"tick_interval" validate:"gte=0"`
}

type SweepConfig struct {
	Seeds   int `yaml:"seeds" validate:"gte=1,lte=10000"`
	Workers int `yaml:"workers" validate:"gte=1,lte=256"`
}

type StoreConfig struct {
	Kind string `yaml:"kind" validate:"oneof=memory sqlite"`
	Path string `yaml:"path" validate:"required_if=Kind sqlite"`
}

type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type ServeConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

func Default() Config {
	return Config{
		Run: RunConfig{
			Seed:         1,
			Ticks:        2000,
			SampleEvery:  10,
			Profile:      morphology.DefaultProfile,
			StartX:       params.DishWidth / 2,
			StartY:       params.DishHeight / 2,
			Width:        params.DishWidth,
			Height:       params.DishHeight,
			TickInterval: 50 * time.Millisecond,
		},
		Sweep: SweepConfig{Seeds: 8, Workers: 4},
		Store: StoreConfig{Kind: "memory"},
		Artifacts: ArtifactsConfig{
			Dir: "runs",
		},
		Log:   LogConfig{Level: "info", Format: "text"},
		Serve: ServeConfig{Addr: "127.0.0.1:8080"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults; a missing file is
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if _, err := morphology.Profile(c.Run.Profile); err != nil {
		return err
	}
	if c.Run.StartX > c.Run.Width || c.Run.StartY > c.Run.Height {
		return fmt.Errorf("start position (%g, %g) outside %gx%g dish", c.Run.StartX, c.Run.StartY, c.Run.Width, c.Run.Height)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PROTOZOA_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PROTOZOA_SEED: %w", err)
		}
		cfg.Run.Seed = seed
	}
	if v := os.Getenv("PROTOZOA_STORE"); v != "" {
		cfg.Store.Kind = v
	}
	if v := os.Getenv("PROTOZOA_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("PROTOZOA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
