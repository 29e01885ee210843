package logger

import (
	"io"
	"log/slog"
	"os"
)

type Config struct {
	Env              string
	Level            string
	AddSource        bool
	SourcePathLength int
	TimeFormat       string
	Output           io.Writer
}

// Logger is a wrapper around slog.Logger with additional methods
type Logger struct {
	*slog.Logger
}

func New(config Config) (*Logger, error) {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.TimeFormat == "" {
		config.TimeFormat = "15:04:05"
	}

	handler, err := createHandler(config)
	if err != nil {
		return nil, err
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &Logger{
		Logger: logger,
	}, nil
}
