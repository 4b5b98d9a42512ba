// Package ratelimit implements a sliding-window request counter.
//
// Every admitted request records its timestamp under an identifier. On the
// next request, timestamps older than the window are pruned; the request is
// admitted while fewer than Max timestamps remain, otherwise the caller must
// wait until the oldest one leaves the window.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Store keeps the timestamp windows. Implementations must be safe for
// concurrent use.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Decision, error)
}

// Limiter applies one window/max policy on top of a Store.
type Limiter struct {
	store  Store
	scope  string
	window time.Duration
	max    int
	now    func() time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a limiter. scope namespaces identifiers so several limiters
// can share one store.
func New(store Store, scope string, window time.Duration, max int, opts ...Option) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	l := &Limiter{store: store, scope: scope, window: window, max: max, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Scope returns the namespace identifiers are stored under.
func (l *Limiter) Scope() string { return l.scope }

// Window returns the configured window.
func (l *Limiter) Window() time.Duration { return l.window }

// Allow records a request for identifier if admitted.
func (l *Limiter) Allow(ctx context.Context, identifier string) (Decision, error) {
	key := identifier
	if l.scope != "" {
		key = l.scope + ":" + identifier
	}
	d, err := l.store.Hit(ctx, key, l.now(), l.window, l.max)
	if err != nil {
		return Decision{Allowed: true}, err
	}
	if d.RetryAfter > l.window {
		d.RetryAfter = l.window
	}
	return d, nil
}

// retryAfter is the time until oldest falls out of the window.
func retryAfter(now, oldest time.Time, window time.Duration) time.Duration {
	wait := window - now.Sub(oldest)
	if wait < 0 {
		return 0
	}
	return wait
}
