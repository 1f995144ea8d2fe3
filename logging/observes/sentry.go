package observes

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/opsworks/esadapter/config"
)

// NewSentry initializes the global Sentry client.
// It returns a flush function to call before exit; a config without DSN is a no-op.
func NewSentry(cfg *config.Sentry, name string) (func(), error) {
	if cfg == nil || cfg.DSN == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		AttachStacktrace: true,
		SampleRate:       cfg.SampleRate,
		ServerName:       name,
		Release:          cfg.Release,
		Environment:      cfg.Environment,
	})
	if err != nil {
		return nil, err
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}
