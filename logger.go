package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

var Logger = func() *logrus.Logger {
	if logger != nil {
		return logger
	}
	l := logrus.New()

	// stdout is reserved for the version line and the slowlog report
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	levelStr := "info"
	if cfg, err := GetConfig(); err == nil && cfg.LogLevel != "" {
		levelStr = cfg.LogLevel
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		l.Warnf("Invalid logLevel '%s', defaulting to info", levelStr)
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	logger = l
	return l
}()
