// Package config loads process settings from defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults used when nothing overrides them.
const (
	DefaultAddr            = "0.0.0.0:8000"
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
)

// Config holds the process settings.
type Config struct {
	// Addr is the application listen address.
	Addr string `yaml:"addr"`
	// MetricsAddr is the Prometheus listen address; empty disables it.
	MetricsAddr     string        `yaml:"metrics_addr"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Level is LogLevel parsed by Load.
	Level slog.Level `yaml:"-"`
}

// New returns a Config filled with defaults.
func New() *Config {
	return &Config{
		Addr:            DefaultAddr,
		LogLevel:        DefaultLogLevel,
		Level:           slog.LevelInfo,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), a .env file in the working directory and the environment.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// A missing .env is the normal case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lvl, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HI_ADDR"); v != "" {
		c.Addr = v
	}
	// PORT replaces only the port, as container platforms set it.
	if port := os.Getenv("PORT"); port != "" {
		host, _, err := net.SplitHostPort(c.Addr)
		if err != nil {
			return fmt.Errorf("apply PORT to %q: %w", c.Addr, err)
		}
		c.Addr = net.JoinHostPort(host, port)
	}
	if v := os.Getenv("HI_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("HI_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HI_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse HI_SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	host, port, err := splitAddr(c.Addr)
	if err != nil {
		return fmt.Errorf("invalid addr %q: %w", c.Addr, err)
	}
	if c.MetricsAddr != "" {
		mhost, mport, err := splitAddr(c.MetricsAddr)
		if err != nil {
			return fmt.Errorf("invalid metrics_addr %q: %w", c.MetricsAddr, err)
		}
		if sameListener(host, port, mhost, mport) {
			return fmt.Errorf("metrics_addr %q collides with addr %q", c.MetricsAddr, c.Addr)
		}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// splitAddr splits a host:port address and requires a numeric port in 0-65535.
func splitAddr(addr string) (string, string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", "", err
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", "", fmt.Errorf("port %q must be a number in 0-65535", port)
	}
	return host, port, nil
}

func isWildcard(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}

// sameListener reports whether two addresses would bind the same socket.
// Port 0 asks the kernel for a fresh port and never collides.
func sameListener(host1, port1, host2, port2 string) bool {
	p1, _ := strconv.ParseUint(port1, 10, 16)
	p2, _ := strconv.ParseUint(port2, 10, 16)
	if p1 == 0 || p1 != p2 {
		return false
	}
	return host1 == host2 || isWildcard(host1) || isWildcard(host2)
}

// ParseLevel parses a log level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return lvl, nil
}

// Port returns the port part of Addr.
func (c *Config) Port() string {
	_, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return ""
	}
	return port
}
