// Package logging configures the process-wide go-log level.
package logging

import (
	"fmt"
	"strings"

	logging "github.com/ipfs/go-log/v2"
)

// Setup sets every logger to level ("debug", "info", "warn", "error").
// Per-subsystem overrides of the form "vm=debug" may follow, comma
// separated: "info,vm=debug,indexer=warn".
func Setup(spec string) error {
	parts := strings.Split(spec, ",")
	base := strings.TrimSpace(parts[0])
	if base == "" {
		base = "info"
	}
	lvl, err := logging.LevelFromString(base)
	if err != nil {
		return fmt.Errorf("log level %q: %w", base, err)
	}
	logging.SetAllLoggers(lvl)
	for _, p := range parts[1:] {
		name, level, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			return fmt.Errorf("log override %q: want name=level", p)
		}
		if err := logging.SetLogLevel(name, level); err != nil {
			return fmt.Errorf("log override %q: %w", p, err)
		}
	}
	return nil
}
