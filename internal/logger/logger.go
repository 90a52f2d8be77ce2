// Package logger configures the structured logrus logger used by every
// component. JSON output on stdout keeps the logs machine-parseable in
// container environments.
package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus logger at the given level with JSON formatting.
func New(logLevel string) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	return log, nil
}
