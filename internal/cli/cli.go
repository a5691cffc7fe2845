// Package cli holds the helpers shared by the commands: configuration and
// logger setup, table rendering and the interactive chat loop.
package cli

import (
	"fmt"
	"strings"

	"github.com/smallnest/ragagents/config"
	"github.com/smallnest/ragagents/log"
)

// Setup loads the configuration at path (defaults and environment only when
// path is empty) and builds the golog logger at the configured level.
func Setup(path string) (*config.Config, log.Logger, error) {
	cfg, err := config.Load(strings.TrimSpace(path))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log.NewGolog(level), nil
}
