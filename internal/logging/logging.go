package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

var (
	once sync.Once
	base *slog.Logger
)

type Options struct {
	Service   string // tagged as "service" on every record
	File      string // rotated by lumberjack; empty disables the file sink
	Level     string
	Console   bool // tee to stdout; off for the interactive CLI
}

// Init configures the global logger exactly once.
func Init(o Options) *slog.Logger {
	once.Do(func() {
		var sinks []io.Writer
		if o.File != "" {
			_ = os.MkdirAll(filepath.Dir(o.File), 0o755)
			sinks = append(sinks, &lumberjack.Logger{
				Filename:   o.File,
				MaxSize:    10, // MB
				MaxBackups: 3,
				MaxAge:     14, // days
			})
		}
		if o.Console {
			sinks = append(sinks, os.Stdout)
		}
		var w io.Writer = io.Discard
		if len(sinks) > 0 {
			w = io.MultiWriter(sinks...)
		}
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(o.Level)})
		base = slog.New(h).With("service", o.Service)
	})
	return base
}

// Base returns the global logger; before Init it is a discarding logger so
// packages under test stay quiet.
func Base() *slog.Logger {
	if base == nil {
		return Discard()
	}
	return base
}

// New returns a child logger that shares the global handler, tagged with
// component.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}

func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func WithCtx(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromCtx fetches a logger from ctx or falls back to the global one.
func FromCtx(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return Base()
}
