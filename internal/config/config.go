// Package config loads the settings of the localresolve daemon.
//
// Settings come from an optional YAML file layered over Default(); command
// line flags are applied on top by the caller. Durations are written as Go
// duration strings ("2s", "500ms").
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/miekg/dns"
	"gopkg.in/yaml.v3"

	"github.com/xfalcon/localresolve/proxy"
	"github.com/xfalcon/localresolve/resolver"
)

// Config is the daemon configuration.
type Config struct {
	// Target is the .local host whose address is served for Domains.
	Target string `yaml:"target"`

	// Domains are answered locally with the address of Target.
	Domains []string `yaml:"domains"`

	// Listen is the DNS listen address (UDP).
	Listen string `yaml:"listen"`

	// Upstream receives every query that is not for one of Domains.
	Upstream string `yaml:"upstream"`

	// TTL of the synthesized A records, in seconds.
	TTL uint32 `yaml:"ttl"`

	// RefreshInterval is the pause between two resolves of Target.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// MetricsAddr serves /metrics and /healthz over HTTP when set.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `yaml:"log_level"`

	Resolver Resolver `yaml:"resolver"`
}

// Resolver holds the mDNS resolver settings.
type Resolver struct {
	Attempts       int           `yaml:"attempts"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`

	// Interface restricts multicast to one interface by name. Empty means all.
	Interface string `yaml:"interface"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Target: "zwift.local",
		Domains: []string{
			"us-or-rly101.zwift.com",
			"secure.zwift.com",
			"cdn.zwift.com",
			"launcher.zwift.com",
		},
		Listen:          ":53",
		Upstream:        "10.10.10.1:53",
		TTL:             proxy.DefaultTTL,
		RefreshInterval: 5 * time.Second,
		LogLevel:        "info",
		Resolver: Resolver{
			Attempts:       resolver.DefaultAttempts,
			AttemptTimeout: resolver.DefaultAttemptTimeout,
		},
	}
}

// Load reads the YAML file at path over Default and validates the result.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports the first problem.
func (c *Config) Validate() error {
	if c.Target == "" {
		return errors.New("target cannot be empty")
	}
	if _, ok := dns.IsDomainName(c.Target); !ok {
		return fmt.Errorf("target %q is not a valid domain name", c.Target)
	}

	if len(c.Domains) == 0 {
		return errors.New("domains cannot be empty")
	}
	for _, d := range c.Domains {
		if _, ok := dns.IsDomainName(d); !ok || d == "" {
			return fmt.Errorf("domain %q is not a valid domain name", d)
		}
	}

	if err := validateHostPort("listen", c.Listen); err != nil {
		return err
	}
	if err := validateHostPort("upstream", c.Upstream); err != nil {
		return err
	}
	if c.MetricsAddr != "" {
		if err := validateHostPort("metrics_addr", c.MetricsAddr); err != nil {
			return err
		}
	}

	if c.TTL == 0 {
		return errors.New("ttl must be greater than 0")
	}
	if c.RefreshInterval <= 0 {
		return errors.New("refresh_interval must be greater than 0")
	}
	if c.Resolver.Attempts <= 0 {
		return errors.New("resolver.attempts must be greater than 0")
	}
	if c.Resolver.AttemptTimeout <= 0 {
		return errors.New("resolver.attempt_timeout must be greater than 0")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	return nil
}

func validateHostPort(field, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if port == "" {
		return fmt.Errorf("%s: missing port in %q", field, addr)
	}
	return nil
}
