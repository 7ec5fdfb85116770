// Package logging builds the charmbracelet/log logger used across the app.
// When the TUI owns the terminal, output goes to a rotating file instead.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options holds configuration for the logger.
type Options struct {
	Level  string // debug, info, warn, error
	File   string // when set, write to this file (rotated) instead of Out
	Out    io.Writer
	Prefix string
}

// New returns a logger and a closer for the underlying file, if any.
// An unknown level falls back to info.
func New(opts Options) (*log.Logger, io.Closer) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		level = log.InfoLevel
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "tada"
	}

	var (
		out    io.Writer = opts.Out
		closer io.Closer = nopCloser{}
	)
	var fileErr error
	if opts.File != "" {
		fileErr = os.MkdirAll(filepath.Dir(opts.File), 0o700)
	}
	if opts.File != "" && fileErr == nil {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    5, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		out, closer = lj, lj
	}
	if out == nil {
		out = os.Stderr
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: opts.File != "" && fileErr == nil,
		Formatter:       log.TextFormatter,
	})
	// An unusable log directory falls back to Out rather than losing logs.
	if fileErr != nil {
		logger.Warn("log file unavailable, logging to stderr", "file", opts.File, "err", fileErr)
	}
	return logger, closer
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
