package empire

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "empires-server/internal/shared/errors"

	"golang.org/x/time/rate"
)

// DefaultInboxCapacity is the number of outstanding commands an inbox holds.
const DefaultInboxCapacity = 128

// CommandInbox is a bounded FIFO of commands with many producers and a single
// consumer. It is synchronized independently of the Empire lock.
//
// Submit blocks while the inbox is full. A submit timeout or a context
// deadline turns that wait into ErrQueueFull; there is no drop policy.
type CommandInbox struct {
	queue     chan Command
	done      chan struct{}
	closeOnce sync.Once

	timeout time.Duration
	limiter *rate.Limiter
}

type InboxOption func(*CommandInbox)

// WithSubmitTimeout bounds how long Submit waits for space.
func WithSubmitTimeout(d time.Duration) InboxOption {
	return func(in *CommandInbox) { in.timeout = d }
}

// WithSubmitRate throttles producers to perSecond commands with the given burst.
func WithSubmitRate(perSecond float64, burst int) InboxOption {
	return func(in *CommandInbox) {
		if perSecond > 0 {
			in.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

func NewCommandInbox(capacity int, opts ...InboxOption) *CommandInbox {
	if capacity < 1 {
		capacity = DefaultInboxCapacity
	}
	in := &CommandInbox{
		queue: make(chan Command, capacity),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Submit enqueues cmd, waiting for space if the inbox is full.
func (in *CommandInbox) Submit(ctx context.Context, cmd Command) error {
	if in.Closed() {
		return unavailable()
	}

	if in.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.timeout)
		defer cancel()
	}

	if in.limiter != nil {
		if err := in.limiter.Wait(ctx); err != nil {
			return apperrors.WrapQueueFull("submit throttled", fmt.Errorf("%w: %w", ErrQueueFull, err))
		}
	}

	select {
	case in.queue <- cmd:
		return nil
	default:
	}

	select {
	case in.queue <- cmd:
		return nil
	case <-in.done:
		return unavailable()
	case <-ctx.Done():
		return apperrors.WrapQueueFull("submit gave up waiting", fmt.Errorf("%w: %w", ErrQueueFull, ctx.Err()))
	}
}

// TrySubmit enqueues cmd without waiting.
func (in *CommandInbox) TrySubmit(cmd Command) error {
	if in.Closed() {
		return unavailable()
	}
	if in.limiter != nil && !in.limiter.Allow() {
		return apperrors.WrapQueueFull("submit throttled", ErrQueueFull)
	}
	select {
	case in.queue <- cmd:
		return nil
	default:
		return apperrors.WrapQueueFull(fmt.Sprintf("inbox at capacity %d", cap(in.queue)), ErrQueueFull)
	}
}

// DrainAll removes and returns every command queued at the time of the call,
// in submission order. It never blocks. Only the simulation loop calls it.
func (in *CommandInbox) DrainAll() []Command {
	n := len(in.queue)
	if n == 0 {
		return nil
	}
	out := make([]Command, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, <-in.queue)
	}
	return out
}

func (in *CommandInbox) Len() int { return len(in.queue) }
func (in *CommandInbox) Cap() int { return cap(in.queue) }

// Close rejects further submissions and releases blocked producers. Commands
// already queued stay drainable.
func (in *CommandInbox) Close() {
	in.closeOnce.Do(func() { close(in.done) })
}

func (in *CommandInbox) Closed() bool {
	select {
	case <-in.done:
		return true
	default:
		return false
	}
}

func unavailable() error {
	return apperrors.WrapUnavailable("command rejected", ErrEmpireUnavailable)
}
