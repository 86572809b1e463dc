// Package logging builds the process logger: tint-formatted text on a
// colorable stderr, or JSON, with a level that can be changed at runtime.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ErrInvalidLevel is returned for an unknown level name.
var ErrInvalidLevel = errors.New("invalid log level")

// Options configures New.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Color  string // auto, always or never
}

// Logger is a slog.Logger whose level can be changed after creation.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a logger writing to w. When w is a terminal, text output is
// colored unless Color says otherwise.
func New(w io.Writer, opts Options) (*Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	lv := &slog.LevelVar{}
	lv.Set(lvl)

	var h slog.Handler
	switch opts.Format {
	case "", FormatText:
		noColor := true
		if f, ok := w.(*os.File); ok {
			noColor = !isatty.IsTerminal(f.Fd())
			w = colorable.NewColorable(f)
		}
		switch opts.Color {
		case ColorAlways:
			noColor = false
		case ColorNever:
			noColor = true
		}
		h = tint.NewHandler(w, &tint.Options{
			Level:      lv,
			TimeFormat: time.TimeOnly,
			NoColor:    noColor,
		})
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}
	return &Logger{Logger: slog.New(h), level: lv}, nil
}

// Setup creates a stderr logger and installs it as the slog default.
func Setup(opts Options) (*Logger, error) {
	l, err := New(os.Stderr, opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l.Logger)
	return l, nil
}

// Level returns the current level.
func (l *Logger) Level() slog.Level { return l.level.Level() }

// SetLevel changes the level of this logger and every logger derived from
// it.
func (l *Logger) SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	l.level.Set(lvl)
	return nil
}

// ParseLevel parses a level name. The empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
}

// Discard returns a logger that drops everything. Intended for tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
