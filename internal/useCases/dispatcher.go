package useCases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segundavia/boleto_bot/internal/domain"
)

const defaultMessageTimeout = 60 * time.Second

// Dispatcher serializes message processing per user. Each user has at
// most one chain of pending messages: a new message waits for the
// previous one (including all its external calls) before its own
// read-modify-write against session state begins. Different users run
// fully in parallel. The chain entry is dropped once the last message
// for a user finishes, so idle users cost nothing.
type Dispatcher struct {
	process func(ctx context.Context, msg domain.InboundMessage)
	log     *slog.Logger
	timeout time.Duration

	mu    sync.Mutex
	tails map[string]chan struct{}
	wg    sync.WaitGroup
}

func NewDispatcher(process func(ctx context.Context, msg domain.InboundMessage), log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		process: process,
		log:     log,
		timeout: defaultMessageTimeout,
		tails:   make(map[string]chan struct{}),
	}
}

// Handle enqueues msg behind any in-flight message for the same user
// and returns immediately; the webhook must not block on provider calls.
func (d *Dispatcher) Handle(msg domain.InboundMessage) {
	d.mu.Lock()
	prev := d.tails[msg.From]
	done := make(chan struct{})
	d.tails[msg.From] = done
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(done)
		defer func() {
			d.mu.Lock()
			if d.tails[msg.From] == done {
				delete(d.tails, msg.From)
			}
			d.mu.Unlock()
		}()

		if prev != nil {
			<-prev
		}

		// the inbound HTTP request is long gone by the time we run; the
		// message gets its own deadline instead
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				d.log.Error("panic while processing message",
					"user", msg.From,
					"request_id", msg.RequestID,
					"panic", r,
				)
			}
		}()
		d.process(ctx, msg)
	}()
}

// Wait blocks until every enqueued message has finished. Used on
// shutdown and in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
