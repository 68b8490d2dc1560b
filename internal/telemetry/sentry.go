package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryConfig holds configuration for Sentry error tracking. It mirrors
// internal.SentryConfig so this package does not import the config package.
type SentryConfig struct {
	DSN     string
	Enabled bool

	Environment string
	Release     string

	// SampleRate is the share of errors sent, 0 means 1.0
	SampleRate float64

	// TracesSampleRate of 0 disables performance monitoring
	TracesSampleRate float64

	Debug bool
}

const flushTimeout = 2 * time.Second

var enabled atomic.Bool

// InitSentry initializes the Sentry client. The returned func flushes
// buffered events and must run on shutdown. A disabled or DSN-less config
// leaves every helper in this file a no-op.
func InitSentry(cfg SentryConfig, logger *slog.Logger) (func(), error) {
	enabled.Store(false)
	noop := func() {}

	if !cfg.Enabled {
		logger.Info("Sentry disabled (SENTRY_ENABLED=false)")
		return noop, nil
	}
	if cfg.DSN == "" {
		logger.Warn("Sentry DSN not configured, disabling error tracking")
		return noop, nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	enabled.Store(true)

	logger.Info("Sentry initialized",
		"environment", cfg.Environment,
		"release", cfg.Release,
		"sample_rate", sampleRate,
	)

	return func() { sentry.Flush(flushTimeout) }, nil
}

// IsEnabled reports whether events are being sent.
func IsEnabled() bool {
	return enabled.Load()
}

// CaptureError reports err on the global hub with optional extras.
func CaptureError(err error, extras ...map[string]interface{}) {
	if !IsEnabled() || err == nil {
		return
	}
	capture(sentry.CurrentHub(), err, "", extras...)
}

// CaptureErrorFromContext reports err on the request hub so the principal
// set by SentryContextMiddleware is attached.
func CaptureErrorFromContext(ctx context.Context, err error, extras map[string]interface{}) {
	if !IsEnabled() || err == nil {
		return
	}
	capture(hubFromContext(ctx), err, "", extras)
}

// CaptureRenderFailure reports an invoice that could not be rendered. source
// is "request" or "reconciler" and becomes a tag, so both paths group
// together in Sentry while staying filterable.
func CaptureRenderFailure(ctx context.Context, err error, orderID int64, source string) {
	if !IsEnabled() || err == nil {
		return
	}
	capture(hubFromContext(ctx), err, source, map[string]interface{}{"order_id": orderID})
}

func capture(hub *sentry.Hub, err error, source string, extras ...map[string]interface{}) {
	hub.WithScope(func(scope *sentry.Scope) {
		if source != "" {
			scope.SetTag("render_source", source)
		}
		for _, m := range extras {
			for k, v := range m {
				scope.SetExtra(k, v)
			}
		}
		hub.CaptureException(err)
	})
}

func hubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// SentryMiddleware gives every request its own hub carrying the request.
// Panics are left to router.Recovery, which reports them through the hub.
func SentryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() {
				next.ServeHTTP(w, r)
				return
			}

			hub := sentry.CurrentHub().Clone()
			hub.Scope().SetRequest(r)
			next.ServeHTTP(w, r.WithContext(sentry.SetHubOnContext(r.Context(), hub)))
		})
	}
}

// UserInfo is the authenticated principal as Sentry sees it.
type UserInfo struct {
	ID       string
	Username string
	Role     string
}

// UserContextExtractor returns the principal for a request context, or nil.
type UserContextExtractor func(ctx context.Context) *UserInfo

// SentryContextMiddleware tags the request hub with the principal. Apply it
// after authentication.
func SentryContextMiddleware(userExtractor UserContextExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsEnabled() || userExtractor == nil {
				next.ServeHTTP(w, r)
				return
			}

			if user := userExtractor(r.Context()); user != nil {
				hubFromContext(r.Context()).ConfigureScope(func(scope *sentry.Scope) {
					scope.SetUser(sentry.User{ID: user.ID, Username: user.Username})
					scope.SetTag("role", user.Role)
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}
