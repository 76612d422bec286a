package config

import (
	"fmt"
	"strings"
)

// ValidateConfig fills defaults on the effective config, refreshes the
// resolved address and db path, and fails fast on critical errors.
func ValidateConfig(eff *EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	eff.Addr = cfg.Addr()
	eff.DBPath = cfg.Server.DBPath
	if strings.TrimSpace(eff.DBPath) == "" {
		return fmt.Errorf("database path is empty: set --db flag, FORUMDB_DB_PATH env, or server.db_path in config")
	}

	switch sink := cfg.Logging.Sink; {
	case sink == "", sink == "stderr":
	case strings.HasPrefix(sink, "file:") && len(sink) > len("file:"):
	default:
		return fmt.Errorf("invalid logging.sink %q: want empty, stderr or file:<path>", sink)
	}

	for _, ns := range cfg.Sweeper.Namespaces {
		if ns == "" || strings.IndexByte(ns, 0) >= 0 {
			return fmt.Errorf("invalid sweeper namespace %q", ns)
		}
	}
	return nil
}
