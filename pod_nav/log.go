package pod_nav

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the JSON logger described by cfg. A disabled config
// discards everything; a File rotates through lumberjack, otherwise output
// goes to stderr.
func NewLogger(cfg LogConfig) (*slog.Logger, io.Closer, error) {
	if !cfg.Enabled {
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	}
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: 1,
		}
		if lvl == slog.LevelDebug {
			lj.MaxSize = 512
		}
		w, closer = lj, lj
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h), closer, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, &ConfigError{Field: "log.level", Reason: fmt.Sprintf("invalid log level %q", level)}
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
