package app

import (
	"context"

	"github.com/oshokin/tunestash/internal/config"
	"github.com/oshokin/tunestash/internal/logger"
)

// ExecuteConfigInitCommand writes the default configuration to path.
// An existing file is only replaced when overwrite is set.
func ExecuteConfigInitCommand(ctx context.Context, path string, overwrite bool) {
	if path == "" {
		path = config.DefaultConfigFilename
	}

	if err := config.WriteDefaultConfig(path, overwrite); err != nil {
		logger.Fatalf(ctx, "Failed to write configuration: %v", err)
	}

	logger.Infof(ctx, "Default configuration written to '%s'", path)
}
