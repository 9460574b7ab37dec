package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Compression codecs understood by the framing layer.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// DefaultMaxFrameSize caps a single frame body at 16 MiB.
const DefaultMaxFrameSize = 16 << 20

// Config is the fressian tool configuration.
type Config struct {
	Stream  Stream  `yaml:"stream"`
	Logging Logging `yaml:"logging"`
}

// Stream configures the byte streams and the framing around them.
type Stream struct {
	InitialCapacity int    `yaml:"initial_capacity"`
	Checksum        bool   `yaml:"checksum"`
	Compression     string `yaml:"compression"`
	MaxFrameSize    int    `yaml:"max_frame_size"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Stream: Stream{
			InitialCapacity: 32,
			Checksum:        true,
			Compression:     CompressionNone,
			MaxFrameSize:    DefaultMaxFrameSize,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig, so keys left out of
// the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, errors.Wrap(err, "invalid config path")
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", configPath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", configPath)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return errors.Wrap(os.WriteFile(configPath, data, 0600), "failed to write config file")
}

// Validate rejects values the streams cannot work with.
func (c *Config) Validate() error {
	if err := c.Stream.Validate(); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, "logging.level")
	}
	return nil
}

func (s Stream) Validate() error {
	if s.InitialCapacity <= 0 {
		return errors.Errorf("stream.initial_capacity must be positive, got %d", s.InitialCapacity)
	}
	if s.MaxFrameSize <= 0 {
		return errors.Errorf("stream.max_frame_size must be positive, got %d", s.MaxFrameSize)
	}
	switch s.Compression {
	case CompressionNone, CompressionZstd:
	default:
		return errors.Errorf("stream.compression: unknown codec %q", s.Compression)
	}
	return nil
}

// LogLevel returns the configured logrus level, falling back to info.
func (l Logging) LogLevel() logrus.Level {
	lvl, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
