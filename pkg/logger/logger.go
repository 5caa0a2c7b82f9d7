package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/yanqian/fishai-advisor/internal/infra/config"
)

// New constructs a JSON slog logger. When a log file is configured the
// records are fanned out to stdout and the file; the returned cleanup closes it.
func New(cfg *config.Config) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}
	stdout := slog.NewJSONHandler(os.Stdout, opts)

	path := strings.TrimSpace(cfg.Log.File)
	if path == "" {
		return slog.New(stdout).With("service", "fishai-advisor"), func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slogmulti.Fanout(stdout, slog.NewJSONHandler(file, opts))
	cleanup := func() {
		_ = file.Close()
	}
	return slog.New(handler).With("service", "fishai-advisor"), cleanup, nil
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
