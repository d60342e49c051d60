package kvstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Failover wraps a durable primary with an in-process fallback. Every
// operation is attempted against the primary first, so recovery is
// observed naturally on the next call after Redis comes back. The
// degraded transition and the recovery are each logged exactly once per
// outage, not per failed call.
type Failover struct {
	primary  Store
	fallback *Memory
	log      *slog.Logger

	mu       sync.Mutex
	degraded bool
}

func NewFailover(primary Store, fallback *Memory, log *slog.Logger) *Failover {
	return &Failover{primary: primary, fallback: fallback, log: log}
}

func (f *Failover) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := f.primary.Get(ctx, key)
	if err != nil {
		f.markDegraded(err)
		return f.fallback.Get(ctx, key)
	}
	f.markRecovered()
	return val, ok, nil
}

func (f *Failover) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.primary.Set(ctx, key, value, ttl); err != nil {
		f.markDegraded(err)
		return f.fallback.Set(ctx, key, value, ttl)
	}
	f.markRecovered()
	return nil
}

func (f *Failover) Delete(ctx context.Context, key string) error {
	if err := f.primary.Delete(ctx, key); err != nil {
		f.markDegraded(err)
		return f.fallback.Delete(ctx, key)
	}
	f.markRecovered()
	return nil
}

func (f *Failover) markDegraded(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.degraded {
		f.degraded = true
		f.log.Warn("durable cache unavailable, switching to in-memory fallback", "error", err)
	}
}

func (f *Failover) markRecovered() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.degraded {
		f.degraded = false
		f.log.Info("durable cache reconnected, switching back")
	}
}
