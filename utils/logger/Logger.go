// Package logger constructs the loggers used throughout a run
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config configures a logger
type Config struct {
	Level  string `mapstructure:"level"`  // logrus level name
	Format string `mapstructure:"format"` // json or text
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

// DefaultConfig logs at info level as text to stderr
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text", Output: "stderr"}
}

// New returns a logger configured by c. The returned Closer closes the
// log file, if any, and must be called once logging has finished.
func New(c Config) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %v", err)
	}
	log.SetLevel(level)

	switch c.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return nil, nil, fmt.Errorf("logger: unknown format %q", c.Format)
	}

	var closer io.Closer = nopCloser{}
	switch c.Output {
	case "stdout":
		log.SetOutput(os.Stdout)
	case "stderr", "":
		log.SetOutput(os.Stderr)
	default:
		// Assume file path
		file, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0o666)
		if err != nil {
			return nil, nil, fmt.Errorf("logger: could not open log file: %v",
				err)
		}
		log.SetOutput(file)
		closer = file
	}

	return log, closer, nil
}

// Discard returns a logger which drops everything
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
