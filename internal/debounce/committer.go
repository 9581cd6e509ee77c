// Package debounce provides a debounced commit: values are saved once edits
// go quiet for a while, or immediately on Flush.
package debounce

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	StatusIdle   Status = "idle"
	StatusTyping Status = "typing"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

type SaveFunc[T any] func(ctx context.Context, v T) error

type Option[T any] func(c *Committer[T])

// WithStatusHook registers a callback for every status change. It runs while
// the committer is locked and must not call back into it.
func WithStatusHook[T any](hook func(Status)) Option[T] {
	return func(c *Committer[T]) {
		c.onStatus = hook
	}
}

// Committer holds the latest value and saves it delay after the last Touch.
// Saves never overlap and always write the newest value.
type Committer[T any] struct {
	ctx   context.Context
	delay time.Duration
	save  SaveFunc[T]

	// serializes saves
	saveMu sync.Mutex

	mu         sync.Mutex
	timer      *time.Timer
	pending    T
	hasPending bool
	gen        uint64
	status     Status
	lastErr    error
	stopped    bool
	onStatus   func(Status)
	inflight   sync.WaitGroup
}

// New returns an idle committer. Timer-triggered saves run with ctx.
func New[T any](ctx context.Context, delay time.Duration, save SaveFunc[T], opts ...Option[T]) *Committer[T] {
	c := &Committer[T]{
		ctx:    ctx,
		delay:  delay,
		save:   save,
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Touch records v as the newest value and restarts the idle timer.
func (c *Committer[T]) Touch(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = v
	c.hasPending = true
	c.gen++
	c.setStatus(StatusTyping)

	if c.timer != nil {
		c.timer.Stop()
	}
	if c.stopped {
		return
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
}

// Flush saves the pending value right away. Without a pending value it is a no-op.
func (c *Committer[T]) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	return c.commit(ctx)
}

// Status returns the current status and the last save error, if the last
// save failed.
func (c *Committer[T]) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.lastErr
}

// Stop cancels the idle timer and waits for a running timer-triggered save.
// A pending value is kept and can still be written with Flush.
func (c *Committer[T]) Stop() {
	c.mu.Lock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	c.inflight.Wait()
}

func (c *Committer[T]) fire() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	// the error stays visible through Status
	_ = c.commit(c.ctx)
}

func (c *Committer[T]) commit(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if !c.hasPending {
		c.mu.Unlock()
		return nil
	}
	v, gen := c.pending, c.gen
	c.hasPending = false
	c.setStatus(StatusSaving)
	c.mu.Unlock()

	err := c.save(ctx, v)

	c.mu.Lock()
	defer c.mu.Unlock()

	// a Touch during the save owns the status from here on
	newer := gen != c.gen
	if err != nil {
		c.lastErr = err
		if !newer {
			c.pending = v
			c.hasPending = true
			c.setStatus(StatusError)
		}
		return err
	}

	if !newer {
		c.lastErr = nil
		c.setStatus(StatusSaved)
	}
	return nil
}

func (c *Committer[T]) setStatus(s Status) {
	c.status = s
	if c.onStatus != nil {
		c.onStatus(s)
	}
}
