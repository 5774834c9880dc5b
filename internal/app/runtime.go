package app

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/hospital-shifts/scheduler/internal/config"
	"github.com/hospital-shifts/scheduler/internal/logging"
)

// Init loads the configuration at path and builds the logger it asks for.
func Init(path string) (*config.Config, *zap.Logger, zap.AtomicLevel, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, zap.AtomicLevel{}, err
	}
	log, level, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, zap.AtomicLevel{}, err
	}
	return cfg, log, level, nil
}

// WatchLogLevel applies log level changes from the config file until ctx is
// done. A missing file is not watched.
func WatchLogLevel(ctx context.Context, path string, level zap.AtomicLevel, log *zap.Logger) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Debug("config file absent, live reload disabled", zap.String("path", path))
		return nil
	}
	return config.Watch(ctx, path, log, func(cfg *config.Config) {
		lvl, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			log.Warn("ignoring log level", zap.Error(err))
			return
		}
		if lvl != level.Level() {
			level.SetLevel(lvl)
			log.Info("log level changed", zap.Stringer("level", lvl))
		}
	})
}
