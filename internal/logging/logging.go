package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zhouzirui/sphere-relay/backend/internal/config"
)

// Rotation defaults for LOG_FILE.
const (
	maxSizeMB  = 25
	maxBackups = 10
	maxAgeDays = 14
)

// Setup configures the global logrus logger. The returned closer flushes the
// rotating file, if one was opened.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	return configure(logrus.StandardLogger(), cfg, os.Stdout)
}

func configure(logger *logrus.Logger, cfg config.LogConfig, stdout io.Writer) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	}

	if cfg.File == "" {
		logger.SetOutput(stdout)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	logWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	logger.SetOutput(io.MultiWriter(stdout, logWriter))
	return logWriter, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
