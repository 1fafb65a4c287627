package logx

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the logger's output. The zero value is an info-level
// console logger on stdout.
type Options struct {
	Level  string    // zerolog level name, default "info"
	Format string    // "console" or "json"
	Out    io.Writer // default os.Stdout
}

// NewLogger returns a zerolog logger configured for console output.
func NewLogger() zerolog.Logger {
	log, _ := New(Options{})
	return log
}

// New builds a logger from opts. An unknown level is reported and info is
// used instead.
func New(opts Options) (zerolog.Logger, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	level := zerolog.InfoLevel
	var levelErr error
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			levelErr = fmt.Errorf("log level %q: %w", opts.Level, err)
		} else {
			level = parsed
		}
	}

	zerolog.CallerMarshalFunc = shortCaller

	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}
	logger := zerolog.New(out).Level(level).With().Timestamp().Caller().Logger()
	return logger, levelErr
}

// shortCaller keeps only the file name, padded to 28 characters for alignment.
func shortCaller(pc uintptr, file string, line int) string {
	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	return fmt.Sprintf("%-28s", fmt.Sprintf("%s:%d", short, line))
}
