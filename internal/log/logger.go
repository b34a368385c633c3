// Package log wraps slog with a component attribute so every line names
// the part of the system it came from.
package log

import (
	"log/slog"
	"os"
)

type Logger struct {
	*slog.Logger
	handler   slog.Handler
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: "cashflow",
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.Level,
		})
	}
	return &Logger{
		Logger:    slog.New(handler).With("component", config.Component),
		handler:   handler,
		component: config.Component,
	}
}

// WithComponent returns a logger tagged for a different component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    slog.New(l.handler).With("component", component),
		handler:   l.handler,
		component: component,
	}
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger process-wide so package-level slog calls
// inherit it.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
