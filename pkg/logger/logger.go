// Package logger builds the JSON-structured logrus.Logger used across
// the core: stdout, one JSON object per line, so log aggregation never
// has to scrape free-text.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger at logLevel, falling back to Info on an
// unparseable level rather than failing startup over a typo in config.
func New(logLevel string) *logrus.Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
