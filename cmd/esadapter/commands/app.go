package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/opsworks/esadapter/config"
	"github.com/opsworks/esadapter/data/elasticsearch"
	"github.com/opsworks/esadapter/data/elasticsearch/client"
	"github.com/opsworks/esadapter/data/metrics"
	eshook "github.com/opsworks/esadapter/logging/hooks/elasticsearch"
	"github.com/opsworks/esadapter/logging/logger"
	"github.com/opsworks/esadapter/logging/observes"
	"github.com/opsworks/esadapter/version"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

// app holds everything a command needs, built from the config file.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	adapter   *elasticsearch.Adapter
	collector *metrics.SearchCollector
	cleanups  []func(ctx context.Context)
}

// newApp loads the config and connects to the cluster. The returned context
// carries a trace ID shared by every log entry of the command.
func newApp(cmd *cobra.Command) (context.Context, *app, error) {
	ctx, _ := logger.EnsureTraceID(cmd.Context())

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return ctx, nil, err
	}

	log, cleanupLog, err := logger.New(cfg.Logger)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	info := version.GetVersionInfo()
	log.SetVersion(info.Version)

	a := &app{cfg: cfg, log: log, collector: metrics.NewSearchCollector()}
	a.onClose(func(context.Context) { cleanupLog() })

	if flush, err := observes.NewSentry(cfg.Observes.Sentry, cfg.AppName); err != nil {
		log.WithError(ctx, err).Warn("Failed to initialize Sentry")
	} else {
		a.onClose(func(context.Context) { flush() })
		if cfg.Observes.Sentry.DSN != "" {
			log.AddHook(logger.NewSentryHook(sentry.CurrentHub()))
		}
	}

	if ic := cfg.Logger.Index; ic != nil && ic.Name != "" {
		if err := a.shipLogs(ctx, ic); err != nil {
			log.WithError(ctx, err).Warn("Failed to ship logs to Elasticsearch")
		}
	}

	opts := []elasticsearch.Option{elasticsearch.WithCollector(a.collector)}
	if tc := cfg.Observes.Tracer; tc.Endpoint != "" {
		tp, err := observes.NewTracer(ctx, tc, info.Version)
		if err != nil {
			log.WithError(ctx, err).Warn("Failed to initialize tracer")
		} else {
			a.onClose(func(ctx context.Context) {
				if err := tp.Shutdown(ctx); err != nil {
					log.WithError(ctx, err).Warn("Failed to shutdown tracer")
				}
			})
			opts = append(opts, elasticsearch.WithTracerProvider(tp, tc.CaptureSearchBody))
		}
	}

	a.adapter, err = elasticsearch.New(ctx, cfg.Elasticsearch, log, opts...)
	a.onClose(func(ctx context.Context) { _ = a.adapter.Close(ctx) })
	if err != nil {
		a.close(ctx)
		return ctx, nil, err
	}

	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		a.onClose(func(context.Context) {
			out, err := json.MarshalIndent(a.collector.GetStats(), "", "  ")
			if err == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), string(out))
			}
		})
	}

	return ctx, a, nil
}

// shipLogs adds a hook indexing log entries, over a connection of its own so
// entries logged while the adapter shuts down are still delivered.
func (a *app) shipLogs(ctx context.Context, ic *config.LogIndex) error {
	c, err := client.NewClient(a.cfg.Elasticsearch)
	if err != nil {
		return err
	}
	hook, err := eshook.NewHook(ctx, c, ic)
	if err != nil {
		_ = c.Close(ctx)
		return err
	}
	a.onClose(func(ctx context.Context) { _ = c.Close(ctx) })
	a.log.AddHook(hook)
	return nil
}

func (a *app) onClose(fn func(ctx context.Context)) {
	a.cleanups = append(a.cleanups, fn)
}

// close runs cleanups in reverse registration order.
func (a *app) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i](ctx)
	}
	a.cleanups = nil
}

// run wraps a command body with app setup and teardown.
func run(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close(ctx)
		return fn(ctx, cmd, a, args)
	}
}

func failed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFailed, fmt.Sprintf(format, args...))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
