// Package logging configures the process-wide structured logger
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Configure sets the level ("debug", "info", "warn", ...) and the format
// ("text" or "json") of the shared logger
func Configure(level, format string) {
	if lvl, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		logger.SetLevel(lvl)
	} else if level != "" {
		logger.WithField("level", level).Warn("⚠️ Unknown log level, keeping info")
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects the shared logger
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Logger returns the shared logger
func Logger() *logrus.Logger {
	return logger
}

// For returns an entry tagged with the component name
func For(component string) *logrus.Entry {
	return logger.WithField("component", component)
}
