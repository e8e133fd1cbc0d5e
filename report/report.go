// Package report turns tool failures into log entries and, when a Sentry DSN
// is configured, Sentry events.
//
// Failures are always logged through logrus. A Reporter created without a
// DSN is a logging-only reporter; with a DSN every captured error is also sent
// through its own Sentry hub, so reporters do not share global state.
package report

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/opd-ai/toolsuniverse/config"
	"github.com/sirupsen/logrus"
)

// Reporter records failures.
type Reporter struct {
	hub *sentry.Hub // nil when Sentry is disabled
}

// New creates a reporter for the given settings.
//
// Parameters:
//   - cfg: Report settings; an empty SentryDSN disables Sentry
//
// Returns:
//   - *Reporter: Ready reporter
//   - error: Sentry client creation error (for example a malformed DSN)
func New(cfg config.ReportConfig) (*Reporter, error) {
	return newReporter(cfg, nil)
}

func newReporter(cfg config.ReportConfig, beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event) (*Reporter, error) {
	if cfg.SentryDSN == "" {
		logrus.WithFields(logrus.Fields{
			"function": "report.New",
		}).Debug("Sentry disabled, reporting to log only")
		return &Reporter{}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.Environment,
		SampleRate:  cfg.SampleRate,
		BeforeSend:  beforeSend,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "report.New",
			"error":    err.Error(),
		}).Error("Failed to create Sentry client")
		return nil, fmt.Errorf("failed to create sentry client: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "report.New",
		"environment": cfg.Environment,
		"sample_rate": cfg.SampleRate,
	}).Info("Sentry reporting enabled")

	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Enabled reports whether errors are sent to Sentry.
func (r *Reporter) Enabled() bool {
	return r.hub != nil
}

// Capture logs err with fields and sends it to Sentry when enabled. A "tool"
// field becomes a Sentry tag; every field is attached as event context.
func (r *Reporter) Capture(err error, fields logrus.Fields) {
	if err == nil {
		return
	}

	entry := logrus.WithFields(logrus.Fields{"function": "Reporter.Capture"}).WithFields(fields)
	entry.WithField("error", err.Error()).Error("Tool failure")

	if r.hub == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		if tool, ok := fields["tool"].(string); ok {
			scope.SetTag("tool", tool)
		}
		if len(fields) > 0 {
			scope.SetContext("details", sentry.Context(fields))
		}
		r.hub.CaptureException(err)
	})
}

// Flush waits up to timeout for queued Sentry events to be delivered. It
// returns true when nothing is pending.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if r.hub == nil {
		return true
	}
	return r.hub.Flush(timeout)
}
