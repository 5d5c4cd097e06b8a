package bootstrap

import (
	"context"
	"log/slog"

	"github.com/target/gatekeeper/config"
	"github.com/target/gatekeeper/internal/observability/statsd"
)

// BuildMetrics creates the StatsD client. A disabled configuration yields a client that drops every metric.
func BuildMetrics(ctx context.Context, cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (*statsd.Client, error) {
	client, err := statsd.NewClient(ctx, statsd.Config{
		Enabled:    cfg.IsEnabled(),
		Address:    cfg.StatsdAddress,
		Prefix:     cfg.Prefix,
		Logger:     logger,
		GlobalTags: cfg.GlobalTags(),
	})
	if err != nil {
		return nil, err
	}
	if logger != nil && client.Enabled() {
		logger.InfoContext(ctx, "statsd metrics enabled", "addr", cfg.StatsdAddress, "prefix", cfg.Prefix)
	}
	return client, nil
}
