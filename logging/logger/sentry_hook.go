package logger

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// SentryHook forwards error level entries to sentry.
// sentry must be initialised beforehand, see observes.NewSentry.
type SentryHook struct {
	hub     *sentry.Hub
	timeout time.Duration
}

// NewSentryHook creates a hook bound to the current sentry hub
func NewSentryHook() *SentryHook {
	return &SentryHook{hub: sentry.CurrentHub(), timeout: 2 * time.Second}
}

func (h *SentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	hub := h.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range entry.Data {
			if k == logrus.ErrorKey {
				continue
			}
			scope.SetExtra(k, v)
		}
		scope.SetLevel(sentry.LevelError)
	})

	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		hub.CaptureException(err)
	} else {
		hub.CaptureException(errors.New(entry.Message))
	}

	if entry.Level <= logrus.FatalLevel {
		hub.Flush(h.timeout)
	}
	return nil
}
