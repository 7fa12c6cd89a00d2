// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/tamzrod/modbus-scanner/internal/register"
)

var maxDelaySeconds = float64(math.MaxInt64) / float64(time.Second)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	// ------------------------------------------------------------
	// TARGET
	// ------------------------------------------------------------

	if cfg.Target.IP == "" {
		return errors.New("config: target ip is required")
	}
	if ip := net.ParseIP(cfg.Target.IP); ip == nil {
		// host names are allowed, but not ones that cannot be part of host:port
		for i := 0; i < len(cfg.Target.IP); i++ {
			ch := cfg.Target.IP[i]
			if ch == ' ' || ch == '/' || ch > 0x7F {
				return fmt.Errorf("config: target ip %q is not a valid host", cfg.Target.IP)
			}
		}
	}
	if cfg.Target.Port < 1 || cfg.Target.Port > 65535 {
		return fmt.Errorf("config: port %d out of range 1-65535", cfg.Target.Port)
	}
	if cfg.Target.Slave < 0 || cfg.Target.Slave > 255 {
		return fmt.Errorf("config: slave id %d out of range 0-255", cfg.Target.Slave)
	}
	if cfg.Target.TimeoutMs <= 0 {
		return fmt.Errorf("config: timeout_ms must be > 0, got %d", cfg.Target.TimeoutMs)
	}

	// ------------------------------------------------------------
	// SCAN GEOMETRY + PACING
	// ------------------------------------------------------------

	if cfg.Scan.Block < 1 || cfg.Scan.Block > register.RawAddressCount {
		return fmt.Errorf("config: block size %d out of range 1-%d", cfg.Scan.Block, register.RawAddressCount)
	}
	if math.IsNaN(cfg.Scan.Delay) || math.IsInf(cfg.Scan.Delay, 0) {
		return fmt.Errorf("config: delay must be a finite number of seconds, got %g", cfg.Scan.Delay)
	}
	if cfg.Scan.Delay < 0 {
		return fmt.Errorf("config: delay must be >= 0, got %g", cfg.Scan.Delay)
	}
	// must fit a time.Duration
	if cfg.Scan.Delay >= maxDelaySeconds {
		return fmt.Errorf("config: delay %g exceeds the maximum of %g seconds", cfg.Scan.Delay, maxDelaySeconds)
	}
	for _, name := range cfg.Scan.Categories {
		if _, err := register.Parse(name); err != nil {
			return fmt.Errorf("config: category %q: must be one of %v", name, register.Names())
		}
	}

	return nil
}

// Warnings lists settings that are valid but likely to be rejected by devices.
// It MUST NOT mutate configuration.
func Warnings(cfg *Config) []string {
	cats, err := cfg.CategoryList()
	if err != nil {
		return nil
	}

	var out []string
	for _, c := range cats {
		s, err := register.Lookup(c)
		if err != nil {
			continue
		}
		if cfg.Scan.Block > s.MaxQuantity {
			out = append(out, fmt.Sprintf(
				"block size %d exceeds the protocol limit of %d for %s reads; devices usually reject such requests",
				cfg.Scan.Block, s.MaxQuantity, c,
			))
		}
	}
	return out
}
