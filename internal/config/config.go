// internal/config/config.go
package config

import (
	"time"

	"github.com/tamzrod/modbus-scanner/internal/register"
)

type Config struct {
	Target TargetConfig `yaml:"target"`
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
}

// ---- TARGET ----

type TargetConfig struct {
	IP        string `yaml:"ip"`
	Port      int    `yaml:"port"`
	Slave     int    `yaml:"slave"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SCAN GEOMETRY + PACING ----

type ScanConfig struct {
	Block      int      `yaml:"block"`
	Delay      float64  `yaml:"delay"` // seconds
	Categories []string `yaml:"categories"`
}

// ---- OUTPUT ----

type OutputConfig struct {
	Path     string `yaml:"path"`
	Realtime *bool  `yaml:"realtime"` // Found lines as they arrive; nil => true
}

// ---- DEFAULTS ----

const (
	DefaultPort      = 502
	DefaultSlave     = 1
	DefaultBlock     = 50
	DefaultDelay     = 4.0
	DefaultTimeoutMs = 3000
)

// Default returns a config with every default applied and no target.
func Default() Config {
	rt := true
	return Config{
		Target: TargetConfig{
			Port:      DefaultPort,
			Slave:     DefaultSlave,
			TimeoutMs: DefaultTimeoutMs,
		},
		Scan: ScanConfig{
			Block: DefaultBlock,
			Delay: DefaultDelay,
		},
		Output: OutputConfig{Realtime: &rt},
	}
}

// DelayDuration converts the configured delay to a time.Duration.
func (c *Config) DelayDuration() time.Duration {
	return time.Duration(c.Scan.Delay * float64(time.Second))
}

// Timeout converts timeout_ms to a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Target.TimeoutMs) * time.Millisecond
}

// RealtimeEnabled reports whether Found lines are streamed.
func (c *Config) RealtimeEnabled() bool {
	return c.Output.Realtime == nil || *c.Output.Realtime
}

// CategoryList resolves configured names; empty means all four in fixed order.
func (c *Config) CategoryList() ([]register.Category, error) {
	return register.ParseList(c.Scan.Categories)
}
