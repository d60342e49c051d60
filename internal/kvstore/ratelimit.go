package kvstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// HitResult is the outcome of one rate-limit check.
type HitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter counts hits per key over a fixed window. It follows the
// same durable-or-fallback pattern as Failover: the Redis counter is
// tried first, and on transport failure the in-process counter takes
// over with a single logged transition per outage.
//
// The window is fixed, not sliding: when it elapses the next hit opens a
// fresh window with count 1, which admits short bursts near window
// boundaries. That matches the intended abuse-guard semantics.
type RateLimiter struct {
	primary *Redis // nil when running without Redis
	log     *slog.Logger

	mu       sync.Mutex
	degraded bool

	local localCounter
}

func NewRateLimiter(primary *Redis, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		primary: primary,
		log:     log,
		local:   localCounter{windows: make(map[string]*window)},
	}
}

// Hit records one hit for key and reports whether it is within limit.
// Backend failures are absorbed; Hit never returns an error to the caller.
func (l *RateLimiter) Hit(ctx context.Context, key string, limit int, windowDur time.Duration) HitResult {
	if l.primary != nil {
		count, resetAt, err := l.primary.hit(ctx, key, windowDur)
		if err == nil {
			l.markRecovered()
			return result(int(count), limit, resetAt)
		}
		l.markDegraded(err)
	}
	count, resetAt := l.local.hit(key, windowDur)
	return result(count, limit, resetAt)
}

func result(count, limit int, resetAt time.Time) HitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return HitResult{Allowed: count <= limit, Remaining: remaining, ResetAt: resetAt}
}

func (l *RateLimiter) markDegraded(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.degraded {
		l.degraded = true
		l.log.Warn("rate-limit counter unavailable, switching to in-memory fallback", "error", err)
	}
}

func (l *RateLimiter) markRecovered() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.degraded {
		l.degraded = false
		l.log.Info("rate-limit counter reconnected, switching back")
	}
}

type window struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// localCounter is the in-process fixed-window counter. The map lock only
// covers entry lookup; the read-increment-write runs under the per-key
// lock so concurrent hits on the same key never under-count.
type localCounter struct {
	mu      sync.Mutex
	windows map[string]*window
}

func (c *localCounter) hit(key string, windowDur time.Duration) (int, time.Time) {
	c.mu.Lock()
	w, ok := c.windows[key]
	if !ok {
		w = &window{}
		c.windows[key] = w
	}
	// opportunistic sweep of elapsed windows to bound memory
	if len(c.windows) > 1024 {
		now := time.Now()
		for k, old := range c.windows {
			if old != w && now.After(old.resetAt) {
				delete(c.windows, k)
			}
		}
	}
	c.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if w.count == 0 || now.After(w.resetAt) {
		w.count = 1
		w.resetAt = now.Add(windowDur)
	} else {
		w.count++
	}
	return w.count, w.resetAt
}
