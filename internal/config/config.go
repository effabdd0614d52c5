package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix: ONTAUDIT_ENDPOINT, ...
const Prefix = "ontaudit"

// Config holds the settings shared by every command. Command-line flags
// override these values.
type Config struct {
	// Endpoint is the full SPARQL query URL. When empty, one is built
	// from Host, Port and Dataset.
	Endpoint string `envconfig:"ENDPOINT"`
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"3030"`
	Dataset  string `envconfig:"DATASET"`

	Timeout  time.Duration `envconfig:"TIMEOUT" default:"60s"`
	LogLevel string        `envconfig:"LOG_LEVEL" default:"info"`

	// Store is the SQLite database used by the sql dialect and history.
	Store string `envconfig:"STORE"`

	// PrefixFile is a YAML map of namespace prefixes.
	PrefixFile string `envconfig:"PREFIX_FILE"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with no environment applied.
func Default() *Config {
	return &Config{
		Host:     "localhost",
		Port:     3030,
		Timeout:  60 * time.Second,
		LogLevel: "info",
	}
}

// QueryEndpoint returns the SPARQL query URL, or "" when neither an
// endpoint nor a dataset is configured.
//
// A dataset builds the Fuseki-style URL http://host:port/dataset/query.
func (c *Config) QueryEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	if c.Dataset == "" {
		return ""
	}
	u := url.URL{
		Scheme: "http",
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
		Path:   "/" + strings.Trim(c.Dataset, "/") + "/query",
	}
	return u.String()
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
