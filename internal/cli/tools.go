package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/stategraph/internal/config"
	"github.com/aretw0/stategraph/pkg/adapters/process"
	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/tools/arithmetic"
)

// NewTools builds the tool registry: the arithmetic set and any process tools
// declared in cfg.File. Process tools run from the directory holding that file.
func NewTools(cfg config.ToolsConfig, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if cfg.Arithmetic {
		if err := arithmetic.Register(reg); err != nil {
			return nil, err
		}
	}
	if cfg.File != "" {
		tools, err := process.LoadTools(cfg.File)
		if err != nil {
			return nil, err
		}
		for _, t := range tools {
			if reg.Has(t.Name) {
				return nil, fmt.Errorf("%s: tool %q is already registered", cfg.File, t.Name)
			}
		}
		if err := process.NewRunner(process.WithBaseDir(filepath.Dir(cfg.File))).Register(reg, tools); err != nil {
			return nil, err
		}
		logger.Debug("process tools loaded", "path", cfg.File, "count", len(tools))
	}
	return reg, nil
}
