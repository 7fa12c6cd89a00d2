// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/modbus-scanner/internal/register"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Target.IP = strings.TrimSpace(cfg.Target.IP)

	// ------------------------------------------------------------
	// CATEGORIES
	// ------------------------------------------------------------

	// Lower-case, drop duplicates (first occurrence wins).
	// Requested order is kept; none requested => all four, fixed order.
	seen := make(map[string]bool, len(cfg.Scan.Categories))
	cats := make([]string, 0, len(register.All))
	for _, name := range cfg.Scan.Categories {
		n := strings.ToLower(strings.TrimSpace(name))
		if seen[n] {
			continue
		}
		seen[n] = true
		cats = append(cats, n)
	}
	if len(cats) == 0 {
		cats = register.Names()
	}
	cfg.Scan.Categories = cats

	if cfg.Output.Realtime == nil {
		rt := true
		cfg.Output.Realtime = &rt
	}
}
