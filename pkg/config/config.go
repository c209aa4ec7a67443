// Package config loads the filter server configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dd0wney/cluso-filtering/pkg/api/middleware"
	"github.com/dd0wney/cluso-filtering/pkg/graphql"
	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/dd0wney/cluso-filtering/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file.
const (
	LogLevelEnv    = "LOG_LEVEL"
	DatabaseURLEnv = "DATABASE_URL"
)

// Config is the top-level configuration document.
type Config struct {
	Filtering FilteringConfig `yaml:"filtering"`
	LogLevel  string          `yaml:"log_level" validate:"required"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
}

// FilteringConfig names the generated filter schema.
type FilteringConfig struct {
	ArgumentName string `yaml:"argument_name" validate:"required,gqlname"`
	AndKeyword   string `yaml:"and_keyword" validate:"required,gqlname"`
	OrKeyword    string `yaml:"or_keyword" validate:"required,gqlname,nefield=AndKeyword"`
	TypeSuffix   string `yaml:"type_suffix" validate:"required,gqlname"`
	MaxDepth     int    `yaml:"max_depth" validate:"min=0,max=1024"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	GraphQLPath     string        `yaml:"graphql_path" validate:"required,startswith=/"`
	MetricsPath     string        `yaml:"metrics_path" validate:"required,startswith=/"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" validate:"min=0"`
	MaxQueryDepth   int           `yaml:"max_query_depth" validate:"min=0"`
}

// StoreConfig selects where Query.books reads from. Without a database URL
// the in-memory demo library is used.
type StoreConfig struct {
	DatabaseURL string        `yaml:"database_url"`
	Seed        bool          `yaml:"seed"`
	PingTimeout time.Duration `yaml:"ping_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	filter := graphql.DefaultFilterConfig()
	return &Config{
		Filtering: FilteringConfig{
			ArgumentName: filter.ArgumentName,
			AndKeyword:   filter.AndKeyword,
			OrKeyword:    filter.OrKeyword,
			TypeSuffix:   filter.TypeSuffix,
			MaxDepth:     filter.MaxDepth,
		},
		LogLevel: "info",
		Server: ServerConfig{
			Addr:            ":8080",
			GraphQLPath:     "/graphql",
			MetricsPath:     "/metrics",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    middleware.DefaultMaxBodyBytes,
			MaxQueryDepth:   10,
		},
		Store: StoreConfig{
			PingTimeout: 2 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path yields
// the defaults. LOG_LEVEL overrides log_level and DATABASE_URL overrides
// store.database_url.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if level := os.Getenv(LogLevelEnv); level != "" {
		cfg.LogLevel = level
	}
	if url := os.Getenv(DatabaseURLEnv); url != "" {
		cfg.Store.DatabaseURL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks struct tags first, then the rules that span fields.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	v := validation.NewConfigValidator("config").
		Custom("log_level", func() error {
			_, err := logging.LookupLevel(c.LogLevel)
			return err
		}).
		RangeDuration("server.read_timeout", c.Server.ReadTimeout, 0, 5*time.Minute).
		RangeDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, 0, 5*time.Minute).
		RangeDuration("store.ping_timeout", c.Store.PingTimeout, 0, time.Minute).
		Custom("server.metrics_path", func() error {
			if c.Server.MetricsPath == c.Server.GraphQLPath {
				return fmt.Errorf("must differ from graphql_path %q", c.Server.GraphQLPath)
			}
			return nil
		})
	if err := v.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	filter := c.FilterConfig()
	if err := graphql.ValidateFilterConfig(&filter); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// FilterConfig converts the filtering section for graphql.NewConvention.
func (c *Config) FilterConfig() graphql.FilterConfig {
	return graphql.FilterConfig{
		ArgumentName: c.Filtering.ArgumentName,
		AndKeyword:   c.Filtering.AndKeyword,
		OrKeyword:    c.Filtering.OrKeyword,
		TypeSuffix:   c.Filtering.TypeSuffix,
		MaxDepth:     c.Filtering.MaxDepth,
	}
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}
