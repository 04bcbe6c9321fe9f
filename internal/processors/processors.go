// Package processors ships the built-in job processors the daemon can bind
// config-defined jobs to. Real deployments register their own Processor
// implementations; these exist for smoke tests and as wiring examples.
package processors

import (
	"context"
	"log/slog"
	"strings"

	"grist/internal/batch"
	"grist/internal/logging"
)

// Touch succeeds without doing anything, so items just get marked
// processed. Useful for exercising a chain end to end.
type Touch struct{}

func (Touch) Process(ctx context.Context, targetIDs []string) error {
	return nil
}

// Log records the ids it receives and succeeds.
type Log struct {
	Logger *slog.Logger
}

func (p Log) Process(ctx context.Context, targetIDs []string) error {
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Info("processing chunk",
		logging.Int(logging.FieldChunkSize, len(targetIDs)),
		logging.String("targets", strings.Join(targetIDs, ",")),
	)
	return nil
}

// Lookup resolves a built-in processor kind to a factory. The empty kind
// defaults to touch.
func Lookup(kind string, logger *slog.Logger) (batch.Factory, bool) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "touch":
		return func() batch.Processor { return Touch{} }, true
	case "log":
		return func() batch.Processor { return Log{Logger: logger} }, true
	default:
		return nil, false
	}
}
