package logger

import (
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// SentryHook forwards error level entries to Sentry.
type SentryHook struct {
	hub *sentry.Hub
}

// NewSentryHook creates a hook reporting through hub, or the current hub when nil.
func NewSentryHook(hub *sentry.Hub) *SentryHook {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentryHook{hub: hub}
}

// Levels returns the levels reported to Sentry
func (h *SentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

// Fire sends log entry to Sentry
func (h *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Level = sentryLevel(entry.Level)
	event.Message = entry.Message
	event.Timestamp = entry.Time

	for key, value := range entry.Data {
		if err, ok := value.(error); ok && key == logrus.ErrorKey {
			event.Exception = []sentry.Exception{{
				Type:  "error",
				Value: err.Error(),
			}}
			continue
		}
		event.Extra[key] = value
	}

	h.hub.CaptureEvent(event)
	return nil
}

func sentryLevel(level logrus.Level) sentry.Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return sentry.LevelFatal
	case logrus.ErrorLevel:
		return sentry.LevelError
	case logrus.WarnLevel:
		return sentry.LevelWarning
	case logrus.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
