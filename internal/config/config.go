// Package config loads the server configuration file.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xplshn/tracerr2"
	"gopkg.in/yaml.v3"

	"github.com/nhdewitt/fileserver-from-tcp/internal/response"
)

const (
	DefaultPath = "fileserver.yml"
	DefaultHost = "127.0.0.1"
	DefaultPort = 8080
)

var envPattern = regexp.MustCompile(`\{\{\s*env\.(\w+)\s*\}\}`)

type Config struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Workers     int    `yaml:"workers"`
	Root        string `yaml:"root"`
	ServerName  string `yaml:"server_name"`
	AccessLog   string `yaml:"access_log"`
	LogLevel    string `yaml:"log_level"`
	ReadTimeout string `yaml:"read_timeout"`
}

func Default() *Config {
	return &Config{
		Host:       DefaultHost,
		Port:       DefaultPort,
		ServerName: response.DefaultServerName,
		LogLevel:   "info",
	}
}

// Load reads path over the defaults. A missing file is only an error when
// required is set.
func Load(path string, required bool, logger *slog.Logger) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			logger.Debug("no configuration file, using defaults", "path", path)
			return cfg, nil
		}
		return nil, tracerr.Wrapf(err, "error reading config file %s", path)
	}
	logger.Info("loading configuration file", "path", path)

	data, err = expandEnv(data)
	if err != nil {
		return nil, tracerr.Wrapf(err, "error processing env vars in config")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, tracerr.Wrapf(err, "error parsing YAML file %s", path)
	}
	return cfg, nil
}

// expandEnv replaces {{ env.NAME }} placeholders. Unset variables are an error.
func expandEnv(data []byte) ([]byte, error) {
	var firstError error

	out := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		if firstError != nil {
			return ""
		}
		name := envPattern.FindStringSubmatch(match)[1]
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			firstError = fmt.Errorf("environment variable '%s' not set or is empty", name)
			return ""
		}
		return value
	})
	if firstError != nil {
		return nil, firstError
	}
	return []byte(out), nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return tracerr.New(fmt.Sprintf("invalid port %d", c.Port))
	}
	if c.Workers < 0 {
		return tracerr.New(fmt.Sprintf("invalid workers %d: must be zero or positive", c.Workers))
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, tracerr.New(fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
}

// Timeout parses ReadTimeout. Zero disables the read deadline.
func (c *Config) Timeout() (time.Duration, error) {
	if c.ReadTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ReadTimeout)
	if err != nil {
		return 0, tracerr.Wrapf(err, "invalid read_timeout %q", c.ReadTimeout)
	}
	if d < 0 {
		return 0, tracerr.New(fmt.Sprintf("invalid read_timeout %q: negative", c.ReadTimeout))
	}
	return d, nil
}
