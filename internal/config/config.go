// Package config loads service settings from defaults, an optional INI
// file and FINDER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultFile is read when no --config flag is given. A missing file is
// not an error.
const DefaultFile = "/etc/linuxbox-finder/finder.ini"

var reInterfaceName = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,14}$`)

// Config holds all service configuration.
type Config struct {
	// HTTP listener
	ListenHost      string
	ListenPort      int
	ShutdownTimeout time.Duration

	// WiFi
	Interface    string
	PollAttempts int
	PollInterval time.Duration
	ExecTimeout  time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		ListenHost:      "0.0.0.0",
		ListenPort:      8086,
		ShutdownTimeout: 90 * time.Second,
		Interface:       "wlan0",
		PollAttempts:    20,
		PollInterval:    time.Second,
		ExecTimeout:     30 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}

// LoadFromFile overlays values from an INI file. Keys are case
// insensitive. A file that does not exist is skipped.
func (c *Config) LoadFromFile(filename string) error {
	if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		return fmt.Errorf("load config %s: %w", filename, err)
	}

	var errs []error
	str := func(section, key string, dst *string) {
		if k := cfg.Section(section).Key(key); k.String() != "" {
			*dst = k.String()
		}
	}
	num := func(section, key string, dst *int) {
		k := cfg.Section(section).Key(key)
		if k.String() == "" {
			return
		}
		v, err := k.Int()
		if err != nil {
			errs = append(errs, fmt.Errorf("[%s] %s: %w", section, key, err))
			return
		}
		*dst = v
	}
	dur := func(section, key string, dst *time.Duration) {
		k := cfg.Section(section).Key(key)
		if k.String() == "" {
			return
		}
		v, err := k.Duration()
		if err != nil {
			errs = append(errs, fmt.Errorf("[%s] %s: %w", section, key, err))
			return
		}
		*dst = v
	}

	str("server", "host", &c.ListenHost)
	num("server", "port", &c.ListenPort)
	dur("server", "shutdown_timeout", &c.ShutdownTimeout)

	str("wifi", "interface", &c.Interface)
	num("wifi", "poll_attempts", &c.PollAttempts)
	dur("wifi", "poll_interval", &c.PollInterval)
	dur("wifi", "exec_timeout", &c.ExecTimeout)

	str("log", "level", &c.LogLevel)
	str("log", "format", &c.LogFormat)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("load config %s: %w", filename, err)
	}
	return nil
}

// LoadFromEnv overlays values from FINDER_* environment variables.
func (c *Config) LoadFromEnv() error {
	var errs []error
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = n
	}
	dur := func(name string, dst *time.Duration) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		*dst = d
	}

	str("FINDER_HOST", &c.ListenHost)
	num("FINDER_PORT", &c.ListenPort)
	dur("FINDER_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
	str("FINDER_INTERFACE", &c.Interface)
	num("FINDER_POLL_ATTEMPTS", &c.PollAttempts)
	dur("FINDER_POLL_INTERVAL", &c.PollInterval)
	dur("FINDER_EXEC_TIMEOUT", &c.ExecTimeout)
	str("FINDER_LOG_LEVEL", &c.LogLevel)
	str("FINDER_LOG_FORMAT", &c.LogFormat)

	return errors.Join(errs...)
}

// ConfigureBound is the longest a single WiFi configure request can take:
// every poll interval plus the join and profile cleanup commands running
// to their deadline.
func (c *Config) ConfigureBound() time.Duration {
	return time.Duration(c.PollAttempts)*c.PollInterval + 2*c.ExecTimeout
}

// ShutdownGrace is how long shutdown waits for in-flight requests. It is
// never shorter than ConfigureBound so a running join can finish.
func (c *Config) ShutdownGrace() time.Duration {
	return max(c.ShutdownTimeout, c.ConfigureBound())
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range (1-65535)", c.ListenPort))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if !reInterfaceName.MatchString(c.Interface) {
		errs = append(errs, fmt.Errorf("invalid interface name %q", c.Interface))
	}
	if c.PollAttempts < 1 {
		errs = append(errs, fmt.Errorf("poll attempts must be positive, got %d", c.PollAttempts))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval))
	}
	if c.ExecTimeout <= 0 {
		errs = append(errs, fmt.Errorf("exec timeout must be positive, got %s", c.ExecTimeout))
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be console or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
