package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLimiterAdmitsMaxThenRejects(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	limiter := New(NewMemoryStore(), "login", time.Hour, 5, WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		d, err := limiter.Allow(context.Background(), "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 4-i, d.Remaining)
		clock.Advance(time.Minute)
	}

	d, err := limiter.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 55*time.Minute, d.RetryAfter)
	assert.LessOrEqual(t, d.RetryAfter, limiter.Window())
}

func TestLimiterSlidesWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	limiter := New(NewMemoryStore(), "", 10*time.Second, 2, WithClock(clock.Now))
	ctx := context.Background()

	d, _ := limiter.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	clock.Advance(6 * time.Second)
	d, _ = limiter.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	d, _ = limiter.Allow(ctx, "a")
	assert.False(t, d.Allowed)
	assert.Equal(t, 4*time.Second, d.RetryAfter)

	clock.Advance(4*time.Second + time.Millisecond)
	d, _ = limiter.Allow(ctx, "a")
	assert.True(t, d.Allowed)
}

func TestLimiterIsolatesIdentifiersAndScopes(t *testing.T) {
	store := NewMemoryStore()
	login := New(store, "login", time.Hour, 1)
	register := New(store, "register", time.Hour, 1)
	ctx := context.Background()

	d, _ := login.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	d, _ = login.Allow(ctx, "b")
	assert.True(t, d.Allowed)
	d, _ = register.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	d, _ = login.Allow(ctx, "a")
	assert.False(t, d.Allowed)
	assert.Equal(t, 3, store.Len())
}

func TestLimiterConcurrentHits(t *testing.T) {
	limiter := New(NewMemoryStore(), "", time.Hour, 5)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Allow(context.Background(), "same")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Time, time.Duration, int) (Decision, error) {
	return Decision{}, errors.New("boom")
}

func TestLimiterFailsOpen(t *testing.T) {
	d, err := New(failingStore{}, "x", time.Minute, 1).Allow(context.Background(), "a")
	assert.Error(t, err)
	assert.True(t, d.Allowed)
}
