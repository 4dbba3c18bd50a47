// Package config provides configuration loading for the xmlserial CLI.
//
// Configuration comes from a single file named by the --config flag: TOML
// when the name ends in .toml, YAML otherwise. Without one, Default
// applies. Fields missing from the file keep their default values; unknown
// fields are an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/xmlserial/envelope"
	"github.com/Neumenon/xmlserial/markup"
	"github.com/Neumenon/xmlserial/transcode"
)

// Config is the CLI configuration.
type Config struct {
	// Format is the envelope format: cbor or msgpack.
	Format string `yaml:"format" toml:"format"`

	// Transcoder names a registered transcoder.
	Transcoder string `yaml:"transcoder" toml:"transcoder"`

	// Markup configures document output.
	Markup MarkupConfig `yaml:"markup" toml:"markup"`

	// Logging configures the process logger.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// MarkupConfig configures document output.
type MarkupConfig struct {
	// Indent per nesting level. Empty writes the document on one line.
	Indent string `yaml:"indent" toml:"indent"`

	// Header writes the XML declaration.
	// Default: true
	Header bool `yaml:"header" toml:"header"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level" toml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Format:     "cbor",
		Transcoder: transcode.NameXML,
		Markup: MarkupConfig{
			Header: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFile loads configuration from path over the defaults. An empty path
// returns the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	decode := cfg.decodeYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		decode = cfg.decodeTOML
	}
	if err := decode(data); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) decodeTOML(data []byte) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown field %s", undecoded[0])
	}
	return nil
}

// Validate checks that every named format, transcoder and level exists.
func (c *Config) Validate() error {
	if _, err := envelope.FormatByName(c.Format); err != nil {
		return err
	}
	if _, err := transcode.New(c.Transcoder); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Codec builds the envelope codec for the configured format.
func (c *Config) Codec() (*envelope.Codec, error) {
	f, err := envelope.FormatByName(c.Format)
	if err != nil {
		return nil, err
	}
	return envelope.New(envelope.WithFormat(f)), nil
}

// EmitOptions returns the configured document output options.
func (c *Config) EmitOptions() markup.EmitOptions {
	return markup.EmitOptions{
		Indent: c.Markup.Indent,
		Header: c.Markup.Header,
	}
}

// Level parses the logging level.
func (c *Config) Level() (zapcore.Level, error) {
	if c.Logging.Level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return lvl, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}
