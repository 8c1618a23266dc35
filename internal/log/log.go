// Package log provides the single shared logger used by every component
// of this module. It's a thin wrapper around logrus so that the rest of
// the tree can depend on a *logrus.Entry instead of threading a raw
// io.Writer or the standard library's log.Logger around.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger at the given level (a logrus level name, e.g.
// "debug", "info", "warn"). An unrecognized level falls back to Info and
// logs a warning about the fallback.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
		logger.Warnf("log: unrecognized level %q, defaulting to info", level)
		return logger
	}
	logger.SetLevel(parsed)
	return logger
}
