// Package logging builds the service's structured JSON logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

type Options struct {
	Name    string
	Version string
	Level   slog.Level

	// Path, when set, receives a copy of every record. The file is opened for
	// appending and its directory is created.
	Path string

	// Console defaults to os.Stdout.
	Console io.Writer
}

// New returns a JSON logger tagged with the logger name and service version.
// The returned close function releases the log file, if any.
func New(opts Options) (*slog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	out := console
	closeFn := func() error { return nil }

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}

		out = io.MultiWriter(console, file)
		closeFn = file.Close
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level})).With(
		slog.String("logger", opts.Name),
		slog.String("version", opts.Version),
	)

	return logger, closeFn, nil
}
