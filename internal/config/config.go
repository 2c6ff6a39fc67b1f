// Package config loads the gopostr process configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when no path is given.
const EnvPath = "GOPOSTER_CONFIG"

// Config is the full process configuration.
type Config struct {
	ServiceName string       `yaml:"serviceName"`
	Server      ServerConfig `yaml:"server"`
	Render      RenderConfig `yaml:"render"`
	Assets      AssetsConfig `yaml:"assets"`
	Export      ExportConfig `yaml:"export"`
	Log         LogConfig    `yaml:"log"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ReadTimeout   time.Duration `yaml:"readTimeout"`
	WriteTimeout  time.Duration `yaml:"writeTimeout"`
	RenderTimeout time.Duration `yaml:"renderTimeout"`
	MaxBodyBytes  int64         `yaml:"maxBodyBytes"`
	OpenBrowser   bool          `yaml:"openBrowser"`
}

// RenderConfig controls typefaces and default output.
type RenderConfig struct {
	FontRegular string        `yaml:"fontRegular"`
	FontBold    string        `yaml:"fontBold"`
	FontTimeout time.Duration `yaml:"fontTimeout"`
	Format      string        `yaml:"format"`
	Quality     int           `yaml:"quality"`
}

// AssetsConfig controls image fetching.
type AssetsConfig struct {
	Root         string        `yaml:"root"`
	MaxBytes     int64         `yaml:"maxBytes"`
	MaxDimension int           `yaml:"maxDimension"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	UserAgent    string        `yaml:"userAgent"`
}

// ExportConfig controls where exported posters are written. An empty Dir
// keeps exports in memory only.
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig selects the zap logger flavor.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Encoding    string `yaml:"encoding"`
}

func Default() Config {
	return Config{
		ServiceName: "gopostr",
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  60 * time.Second,
			RenderTimeout: 30 * time.Second,
			MaxBodyBytes:  1 << 20,
		},
		Render: RenderConfig{
			FontTimeout: 10 * time.Second,
			Format:      "png",
			Quality:     90,
		},
		Assets: AssetsConfig{
			MaxBytes:     20 << 20,
			MaxDimension: 2048,
			FetchTimeout: 15 * time.Second,
			UserAgent:    "gopostr/1.0",
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

func (c Config) withDefaults() Config {
	d := Default()
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = d.ServiceName
	}

	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.RenderTimeout <= 0 {
		c.Server.RenderTimeout = d.Server.RenderTimeout
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = d.Server.MaxBodyBytes
	}

	if c.Render.FontTimeout <= 0 {
		c.Render.FontTimeout = d.Render.FontTimeout
	}
	if c.Render.Format == "" {
		c.Render.Format = d.Render.Format
	}
	if c.Render.Quality < 0 || c.Render.Quality > 100 {
		c.Render.Quality = d.Render.Quality
	}

	if c.Assets.MaxBytes <= 0 {
		c.Assets.MaxBytes = d.Assets.MaxBytes
	}
	if c.Assets.MaxDimension <= 0 {
		c.Assets.MaxDimension = d.Assets.MaxDimension
	}
	if c.Assets.FetchTimeout <= 0 {
		c.Assets.FetchTimeout = d.Assets.FetchTimeout
	}
	if c.Assets.UserAgent == "" {
		c.Assets.UserAgent = d.Assets.UserAgent
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = d.Log.Encoding
		if c.Log.Development {
			c.Log.Encoding = "console"
		}
	}
	return c
}

// Load reads the YAML file at path. An empty path falls back to
// $GOPOSTER_CONFIG, and when that is unset too the defaults are returned.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML config and fills unset fields with defaults.
// An explicit quality of 0 is kept.
func Parse(data []byte) (Config, error) {
	var cfg Config
	cfg.Render.Quality = -1
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}
