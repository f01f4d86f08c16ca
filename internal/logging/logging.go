package logging

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/quantfolio/quantfolio/internal/config"
)

// New constructs a slog.Logger from the logging settings. An empty format
// falls back to JSON, the production default.
func New(cfg config.LoggingConfig) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	switch cfg.Format {
	case "json", "":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	return slog.New(handler), nil
}
