package utils

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is text or json.
	Format string
	// File enables a rotating log file next to stdout.
	File string
	// Output overrides stdout, mostly for tests.
	Output io.Writer
	// ReportCaller adds file:line to each entry.
	ReportCaller bool
}

// InitLogger builds the application logger and installs it as the default.
func InitLogger(config ...LoggerConfig) *log.Logger {
	var cfg LoggerConfig
	if len(config) > 0 {
		cfg = config[0]
	}

	var writer io.Writer = os.Stdout
	if cfg.Output != nil {
		writer = cfg.Output
	}
	if cfg.File != "" {
		writer = io.MultiWriter(writer, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	if cfg.Format == "json" {
		formatter = log.JSONFormatter
	}

	logger := log.NewWithOptions(writer, log.Options{
		Prefix:          "benefit",
		Level:           level,
		ReportTimestamp: true,
		ReportCaller:    cfg.ReportCaller,
		Formatter:       formatter,
	})
	log.SetDefault(logger)

	return logger
}
