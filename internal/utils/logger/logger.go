// Package logger provides a process-wide structured logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once sync.Once
	sugar *zap.SugaredLogger
)

// Logger returns the process-wide sugared logger, building it on first use.
func Logger() *zap.SugaredLogger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zap.NewProductionEncoderConfig().EncodeTime

		l, err := cfg.Build()
		if err != nil {
			// Fall back to a minimal logger rather than panicking — logging
			// must never be the reason a scan fails.
			l = zap.NewNop()
		}
		sugar = l.Sugar()
	})
	return sugar
}

// SetForTest installs a no-op logger for quiet, fast test runs and
// returns a function that restores the previous logger.
func SetForTest() func() {
	prev := Logger()
	sugar = zap.NewNop().Sugar()
	return func() { sugar = prev }
}
