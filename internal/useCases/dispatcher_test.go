package useCases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segundavia/boleto_bot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_SameUserStrictOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	d := NewDispatcher(func(ctx context.Context, msg domain.InboundMessage) {
		// simulate a slow external call so later messages would overtake
		// if ordering were not enforced
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		seen = append(seen, msg.Text)
		mu.Unlock()
	}, discardLogger())

	const n = 20
	for i := 0; i < n; i++ {
		d.Handle(domain.InboundMessage{From: "user-1", Text: fmt.Sprintf("m%02d", i)})
	}
	d.Wait()

	require.Len(t, seen, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, fmt.Sprintf("m%02d", i), seen[i])
	}
}

func TestDispatcher_DifferentUsersRunInParallel(t *testing.T) {
	bothRunning := make(chan struct{})
	var once sync.Once
	var inFlight sync.WaitGroup
	inFlight.Add(2)

	d := NewDispatcher(func(ctx context.Context, msg domain.InboundMessage) {
		inFlight.Done()
		inFlight.Wait() // deadlocks unless both users process concurrently
		once.Do(func() { close(bothRunning) })
	}, discardLogger())

	d.Handle(domain.InboundMessage{From: "user-a", Text: "oi"})
	d.Handle(domain.InboundMessage{From: "user-b", Text: "oi"})

	select {
	case <-bothRunning:
	case <-time.After(2 * time.Second):
		t.Fatal("messages for different users did not run in parallel")
	}
	d.Wait()
}

func TestDispatcher_ReleasesIdleUserEntries(t *testing.T) {
	d := NewDispatcher(func(ctx context.Context, msg domain.InboundMessage) {}, discardLogger())

	for i := 0; i < 10; i++ {
		d.Handle(domain.InboundMessage{From: fmt.Sprintf("user-%d", i), Text: "oi"})
	}
	d.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.tails)
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	calls := 0
	var mu sync.Mutex

	d := NewDispatcher(func(ctx context.Context, msg domain.InboundMessage) {
		mu.Lock()
		calls++
		mu.Unlock()
		if msg.Text == "boom" {
			panic("boom")
		}
	}, discardLogger())

	d.Handle(domain.InboundMessage{From: "u", Text: "boom"})
	d.Handle(domain.InboundMessage{From: "u", Text: "ok"})
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}
