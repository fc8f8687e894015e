// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"storyloom/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init installs the global logger. With cfg.File set, output goes to a
// size-capped file instead of stdout; the returned closer flushes it at
// shutdown and is a no-op otherwise.
func Init(cfg config.LogConfig) io.Closer {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && cfg.Level != "" {
		level = parsed
	}

	var closer io.Closer = nopCloser{}
	var output io.Writer = os.Stdout
	if cfg.File != "" {
		if w, err := newCappedFileWriter(cfg.File, cfg.MaxMB); err == nil {
			output = w
			closer = w
		}
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	activeWriter = output
	return closer
}

var activeWriter io.Writer = os.Stdout

// Writer exposes the logger's destination so request-logging middleware can
// share it.
func Writer() io.Writer { return activeWriter }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
