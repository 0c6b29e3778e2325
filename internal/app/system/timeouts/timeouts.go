// Package timeouts provides the deadlines handlers put on outbound work.
//
//   - Ping: health checks against MongoDB and the backend API
//   - Action: one backend call or one store write (login, approve, submit)
//   - Refresh: a full dashboard aggregation (trials, matches, candidates)
//   - Extract: one document-extraction batch (PDF text and OCR)
//
// Values start at the defaults below and can be changed once at startup with
// Configure.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing    = 2 * time.Second
	DefaultAction  = 10 * time.Second
	DefaultRefresh = 30 * time.Second
	DefaultExtract = 2 * time.Minute
)

var mu sync.RWMutex

var (
	ping    = DefaultPing
	action  = DefaultAction
	refresh = DefaultRefresh
	extract = DefaultExtract
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Action returns the timeout for a single backend call or store write.
func Action() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return action
}

// Refresh returns the timeout for a full dashboard aggregation.
func Refresh() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return refresh
}

// Extract returns the timeout for one document-extraction batch.
func Extract() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return extract
}

// Config holds timeout values. Zero values keep the current setting.
type Config struct {
	Ping    time.Duration
	Action  time.Duration
	Refresh time.Duration
	Extract time.Duration
}

// Configure overrides the non-zero values in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Action > 0 {
		action = cfg.Action
	}
	if cfg.Refresh > 0 {
		refresh = cfg.Refresh
	}
	if cfg.Extract > 0 {
		extract = cfg.Extract
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, action, refresh, extract = DefaultPing, DefaultAction, DefaultRefresh, DefaultExtract
}

// Current returns the active values, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Action: action, Refresh: refresh, Extract: extract}
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Refresh(), h.Log, "dashboard refresh")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
