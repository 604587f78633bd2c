package builder

import (
	"fmt"

	"go.uber.org/zap"
)

// setupLogger creates a zap logger with the configured level
func setupLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()

	logLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	logCfg.Level = logLevel

	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}
