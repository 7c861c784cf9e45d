package store

import (
	"fmt"
	"strings"

	"github.com/verbalab/lingbench/internal/config"
)

const DefaultSQLitePath = "lingbench.db"

// Open builds the store described by the configuration.
func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store: missing config")
	}

	path := strings.TrimSpace(cfg.Storage.Path)
	if path == "" {
		path = DefaultSQLitePath
	}
	return NewSQLiteStore(path)
}
