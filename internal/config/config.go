// If you are AI: This file defines the configuration structure for the ringbus demo driver.
// It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete demo driver configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Ring   RingConfig   `yaml:"ring"`
	Demo   DemoConfig   `yaml:"demo"`
}

// ServerConfig defines HTTP server settings for the health and feed
// endpoints.
type ServerConfig struct {
	HTTPPort int `yaml:"http_port"` // Port for /healthz, /statusz and /feed
}

// RingConfig defines the coordination engine settings shared by the demo's
// distributor tree.
type RingConfig struct {
	Capacity    int64         `yaml:"capacity"`               // Ring size, power of two
	Claim       string        `yaml:"claim"`                  // "single" or "multi"
	Wait        string        `yaml:"wait"`                   // Wait strategy name
	SleepFor    time.Duration `yaml:"sleep_for,omitempty"`    // Sleeping strategy interval
	WaitTimeout time.Duration `yaml:"wait_timeout,omitempty"` // Timed blocking deadline
	PollTimeout time.Duration `yaml:"poll_timeout,omitempty"` // Worker stop-check interval
}

// DemoConfig defines the power-sum demo workload.
type DemoConfig struct {
	Rounds  int64 `yaml:"rounds"`  // Messages to publish per pass
	Readers int   `yaml:"readers"` // Consumer count (power exponents 1..Readers)
}

// Wait strategy names accepted in RingConfig.Wait.
const (
	WaitBusySpin      = "busyspin"
	WaitYielding      = "yielding"
	WaitSleeping      = "sleeping"
	WaitBlocking      = "blocking"
	WaitTimedBlocking = "timedblocking"
)

// Load reads configuration from a YAML file.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Apply defaults
	cfg.SetDefaults()

	return &cfg, nil
}

// Default returns the configuration the driver runs with when no file is
// given, matching the original demo's built-in shape.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults applies explicit default values to unset fields.
func (c *Config) SetDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Ring.Capacity == 0 {
		c.Ring.Capacity = 1 << 16
	}
	if c.Ring.Claim == "" {
		c.Ring.Claim = "single"
	}
	if c.Ring.Wait == "" {
		c.Ring.Wait = WaitBusySpin
	}
	if c.Ring.SleepFor == 0 {
		c.Ring.SleepFor = 100 * time.Microsecond
	}
	if c.Ring.WaitTimeout == 0 {
		c.Ring.WaitTimeout = time.Millisecond
	}
	if c.Ring.PollTimeout == 0 {
		c.Ring.PollTimeout = 100 * time.Microsecond
	}
	if c.Demo.Rounds == 0 {
		c.Demo.Rounds = 1 << 20
	}
	if c.Demo.Readers == 0 {
		c.Demo.Readers = 2
	}
}
