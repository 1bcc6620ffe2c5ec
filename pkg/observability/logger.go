package observability

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a logrus logger configured from the environment:
// GANTRY_LOG_LEVEL (debug, info, warn, error; default info) and
// GANTRY_LOG_FORMAT (text or json; default text).
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(ParseLevel(os.Getenv("GANTRY_LOG_LEVEL")))

	if strings.EqualFold(os.Getenv("GANTRY_LOG_FORMAT"), "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log
}

// ParseLevel parses a log level string, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
