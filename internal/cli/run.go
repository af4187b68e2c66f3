package cli

import (
	"fmt"

	"github.com/aretw0/roteiro/internal/config"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	ConfigPath string
	DataPath   string // overrides the configured storage path
	ProductID  string
	SessionID  string
	Operator   string
	Customer   string
	Debug      bool
	Plain      bool // no colors, no banner
	Watch      bool // re-render on out-of-band storage changes
	Fresh      bool // discard any persisted session state first
}

// Execute handles the 'run' command logic, dispatching to Session or
// Watch mode.
func Execute(opts RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.DataPath != "" {
		cfg.Storage.Path = opts.DataPath
	}

	if opts.Watch {
		if cfg.Storage.Backend == config.BackendMemory {
			return fmt.Errorf("--watch requires a file or sqlite storage backend")
		}
		return RunWatch(cfg, opts)
	}
	return RunSession(cfg, opts)
}
