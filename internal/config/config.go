package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes environment overrides, e.g. IMAGEDECK_DB_PATH.
const EnvPrefix = "IMAGEDECK_"

// Config defines application configuration.
type Config struct {
	DB     DBConfig     `koanf:"db"`
	Log    LogConfig    `koanf:"log"`
	Image  ImageConfig  `koanf:"image"`
	Review ReviewConfig `koanf:"review"`
	Repos  ReposConfig  `koanf:"repos"`
}

type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

type ImageConfig struct {
	MaxSide int `koanf:"max_side" validate:"min=16,max=8192"`
	Quality int `koanf:"quality" validate:"min=1,max=100"`
}

type ReviewConfig struct {
	Count int `koanf:"count" validate:"min=1"`
}

type ReposConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:     DBConfig{Path: "imagedeck.db"},
		Log:    LogConfig{Level: "info"},
		Image:  ImageConfig{MaxSide: 1280, Quality: 82},
		Review: ReviewConfig{Count: 10},
		Repos:  ReposConfig{Dir: "repos"},
	}
}

// Flags registers the command-line flags that override configuration keys.
func Flags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to a YAML configuration file")
	fs.String("db.path", d.DB.Path, "Path to the SQLite database file")
	fs.String("log.level", d.Log.Level, "Log level (debug, info, warn, error)")
	fs.Int("image.max_side", d.Image.MaxSide, "Longest side of stored images in pixels")
	fs.Int("image.quality", d.Image.Quality, "JPEG quality of stored images")
	fs.Int("review.count", d.Review.Count, "Default number of cards per random review")
	fs.String("repos.dir", d.Repos.Dir, "Directory for git image sources")
}

// Load builds the configuration from defaults, an optional YAML file,
// IMAGEDECK_ environment variables and finally flags that were set explicitly.
func Load(fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	d := Default()
	defaults := map[string]any{
		"db.path":        d.DB.Path,
		"log.level":      d.Log.Level,
		"image.max_side": d.Image.MaxSide,
		"image.quality":  d.Image.Quality,
		"review.count":   d.Review.Count,
		"repos.dir":      d.Repos.Dir,
	}
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return Config{}, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if fs != nil {
		if path, _ := fs.GetString("config"); path != "" {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	// IMAGEDECK_IMAGE_MAX_SIDE -> image.max_side: only the first underscore
	// separates the section from the key.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return strings.Replace(key, "_", ".", 1), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("read flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SlogLevel converts the configured level name.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
