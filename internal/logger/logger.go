package logger

import (
	"go.uber.org/zap"
)

// New builds the process-wide zap logger from the configured level.
func New(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	zapcfg := zap.NewProductionConfig()
	zapcfg.Level = lvl

	return zapcfg.Build()
}
