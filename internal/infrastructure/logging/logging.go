package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Env   string // "production" selects JSON output
	Level string
	// Dir receives one log file per run. Empty logs to stderr only.
	Dir string
	Now func() time.Time
}

// New builds the process logger. It returns the path of the run's log file,
// or "" when Dir is empty.
func New(opts Options) (*zap.Logger, string, error) {
	var cfg zap.Config
	if opts.Env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, "", fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	var path string
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("create log dir: %w", err)
		}
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		path = filepath.Join(opts.Dir, FileName(now()))
		cfg.OutputPaths = append(cfg.OutputPaths, path)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, "", err
	}
	return logger, path, nil
}

// FileName is the per-run log file name for t.
func FileName(t time.Time) string {
	return "log_" + t.Format("2006-01-02_15-04-05") + ".log"
}
