// Package config loads the httpx command configuration from YAML.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/k3nju/httpx/pkg/logger"
)

type Config struct {
	Proxy struct {
		Listen string `yaml:"listen"`
		// AcceptRate limits accepted connections per second, 0 means unlimited.
		AcceptRate float64 `yaml:"accept_rate"`
	} `yaml:"proxy"`
	Tunnel struct {
		Listen string `yaml:"listen"`
	} `yaml:"tunnel"`
	Body struct {
		// MaxBufferSize caps bodies buffered in memory, 0 means unlimited.
		MaxBufferSize int64 `yaml:"max_buffer_size"`
	} `yaml:"body"`
	Log logger.Options `yaml:"log"`
}

func Default() *Config {
	c := &Config{}
	c.Proxy.Listen = ":8080"
	c.Tunnel.Listen = ":8081"
	c.Body.MaxBufferSize = 10 << 20
	c.Log = logger.Options{
		Mode:  logger.ModeConsole,
		Level: "info",
	}
	return c
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	if c.Proxy.AcceptRate < 0 {
		return errors.Errorf("proxy.accept_rate must not be negative: %v", c.Proxy.AcceptRate)
	}
	if c.Body.MaxBufferSize < 0 {
		return errors.Errorf("body.max_buffer_size must not be negative: %d", c.Body.MaxBufferSize)
	}
	switch c.Log.Mode {
	case "", logger.ModeConsole, logger.ModeFile:
	default:
		return errors.Errorf("log.mode must be %q or %q: %q", logger.ModeConsole, logger.ModeFile, c.Log.Mode)
	}

	return nil
}
