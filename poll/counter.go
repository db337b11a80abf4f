// Package poll re-fetches scalar counts on fixed intervals. Notification and
// friend-request counts are not pushed over the realtime channel, so they
// are polled, each consumer with its own interval.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Intervals for the two canonical consumers. Intentionally different.
const (
	NotificationInterval  = 30 * time.Second
	FriendRequestInterval = 10 * time.Second
)

// FetchFunc retrieves the current count
type FetchFunc func(ctx context.Context) (int, error)

// Counter polls one count on a fixed interval. Tick errors are logged and
// swallowed; the timer never stops on failure. No backoff, no jitter.
type Counter struct {
	name     string
	interval time.Duration
	fetch    FetchFunc
	cron     *cron.Cron

	mu         sync.Mutex
	count      int
	loading    bool
	lastErr    error
	started    bool
	registered bool
}

// New creates a counter poller. name only appears in logs.
func New(name string, interval time.Duration, fetch FetchFunc) *Counter {
	return &Counter{
		name:     name,
		interval: interval,
		fetch:    fetch,
		cron:     cron.New(),
	}
}

// Notifications creates the unread-notification count poller
func Notifications(fetch FetchFunc) *Counter {
	return New("notifications", NotificationInterval, fetch)
}

// FriendRequests creates the pending-friend-request count poller
func FriendRequests(fetch FetchFunc) *Counter {
	return New("friend-requests", FriendRequestInterval, fetch)
}

// Start fetches once immediately, then ticks every interval until Stop.
// Calling Start twice is a no-op.
func (c *Counter) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	registered := c.registered
	c.mu.Unlock()

	// the job survives Stop; registering again would double the tick rate
	if !registered {
		_, err := c.cron.AddFunc(fmt.Sprintf("@every %s", c.interval), c.tick)
		if err != nil {
			zap.S().Errorw("failed to register poll job", "poller", c.name, "error", err)
			c.mu.Lock()
			c.started = false
			c.mu.Unlock()
			return err
		}
		c.mu.Lock()
		c.registered = true
		c.mu.Unlock()
	}
	c.cron.Start()
	zap.S().Debugw("poller started", "poller", c.name, "interval", c.interval)

	go c.tick()
	return nil
}

// Stop halts the ticker. Pending fetches are allowed to finish.
func (c *Counter) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	c.mu.Unlock()

	ctx := c.cron.Stop()
	<-ctx.Done()
	zap.S().Debugw("poller stopped", "poller", c.name)
}

// Refetch runs one fetch immediately, regardless of the ticker
func (c *Counter) Refetch(ctx context.Context) error {
	count, err := c.fetch(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.lastErr = err
	if err != nil {
		return err
	}
	c.count = count
	return nil
}

// Count returns the last fetched count, zero before the first success
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Err returns the error from the most recent fetch, nil after a success
func (c *Counter) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Loading reports whether a tick fetch is in flight
func (c *Counter) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Counter) tick() {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	count, err := c.fetch(ctx)

	c.mu.Lock()
	c.loading = false
	c.lastErr = err
	if err == nil {
		c.count = count
	}
	c.mu.Unlock()

	if err != nil {
		zap.S().Debugw("poll tick failed", "poller", c.name, "error", err)
	}
}
