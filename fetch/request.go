// Package fetch provides the retrying read primitive every data view in the
// client is built on: run an operation, retry it silently on failure with a
// fixed delay, and re-run it when the owning view regains focus.
package fetch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the number of silent retries after the first attempt
	DefaultMaxRetries = 5
	// DefaultDelay is the fixed wait between attempts. Not exponential:
	// every retry waits the same configured delay.
	DefaultDelay = time.Second
	// settleDelay is the pause after a focus event before running, so a view
	// that mounts and focuses in the same instant only fetches once
	settleDelay = 100 * time.Millisecond
)

// Operation is the zero-argument read being wrapped
type Operation[T any] func(ctx context.Context) (T, error)

// Options configures a Request
type Options struct {
	// MaxRetries caps silent retries; <0 means DefaultMaxRetries
	MaxRetries int
	// Delay is the fixed inter-attempt wait; 0 means DefaultDelay
	Delay time.Duration
	// Enabled gates retrying entirely; when false the first failure is final
	Enabled bool
	// RequiresAuth marks operations that are meaningless without a signed-in
	// user. When set and Authenticated reports false, Run is skipped and
	// loading/error state is cleared without counting as a failure.
	RequiresAuth bool
	// Authenticated probes the current auth state; nil means always true
	Authenticated func() bool
	// OnRetry fires before each scheduled retry with the upcoming attempt
	// number and the error that caused it
	OnRetry func(attempt int, err error)
	// OnExhausted fires once when retries run out
	OnExhausted func(err error)
	// Notify fires after every state change, outside the request lock
	Notify func()
}

// State is a point-in-time snapshot of a request
type State[T any] struct {
	// Result is the last successful value, nil before the first success
	Result *T
	// Loading is true while an attempt is in flight
	Loading bool
	// Err is the terminal error message, empty during silent retries
	Err string
	// RetryCount is the number of retries consumed so far
	RetryCount int
	// Retrying is true while a retry timer is pending or a retry is running
	Retrying bool
}

// Request wraps one read operation with retry, cancellation and focus
// re-invocation. All methods are safe for concurrent use.
type Request[T any] struct {
	op   Operation[T]
	opts Options

	mu         sync.Mutex
	result     *T
	loading    bool
	errMsg     string
	retryCount int
	retrying   bool
	timer      *time.Timer
	closed     bool
	runSeq     uint64
}

// New creates a Request around op. Defaults: 5 retries, 1s fixed delay,
// retrying enabled.
func New[T any](op Operation[T], opts Options) *Request[T] {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	return &Request[T]{op: op, opts: opts}
}

// NewWithDefaults creates a Request with retrying enabled and default bounds
func NewWithDefaults[T any](op Operation[T]) *Request[T] {
	return New(op, Options{MaxRetries: DefaultMaxRetries, Delay: DefaultDelay, Enabled: true})
}

// State returns a snapshot of the request
func (r *Request[T]) State() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State[T]{
		Result:     r.result,
		Loading:    r.loading,
		Err:        r.errMsg,
		RetryCount: r.retryCount,
		Retrying:   r.retrying,
	}
}

// Run starts the operation from attempt zero. A run already in flight is
// superseded: its outcome is discarded.
func (r *Request[T]) Run(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if !r.authOK() {
		// not a failure: the call is meaningless signed out
		r.stopTimerLocked()
		r.loading = false
		r.errMsg = ""
		r.retrying = false
		r.retryCount = 0
		r.mu.Unlock()
		r.notify()
		return
	}
	r.stopTimerLocked()
	r.retryCount = 0
	r.retrying = false
	r.errMsg = ""
	r.loading = true
	r.runSeq++
	seq := r.runSeq
	r.mu.Unlock()
	r.notify()

	go r.attempt(ctx, seq)
}

// Refetch is the user-initiated restart: identical to Run, attempt counter
// back to zero
func (r *Request[T]) Refetch(ctx context.Context) {
	r.Run(ctx)
}

// OnFocus schedules a run after the settle delay. Used when the owning view
// regains focus.
func (r *Request[T]) OnFocus(ctx context.Context) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.stopTimerLocked()
	r.timer = time.AfterFunc(settleDelay, func() {
		r.Run(ctx)
	})
	r.mu.Unlock()
}

// Cancel clears any pending retry or focus timer without touching results.
// An attempt already in flight is superseded, so its outcome cannot restart
// the retry loop.
func (r *Request[T]) Cancel() {
	r.mu.Lock()
	r.stopTimerLocked()
	r.retrying = false
	r.loading = false
	r.runSeq++
	r.mu.Unlock()
	r.notify()
}

// Reset clears all state back to the initial blank
func (r *Request[T]) Reset() {
	r.mu.Lock()
	r.stopTimerLocked()
	r.result = nil
	r.loading = false
	r.errMsg = ""
	r.retryCount = 0
	r.retrying = false
	r.runSeq++
	r.mu.Unlock()
	r.notify()
}

// Close permanently stops the request. No state changes or callbacks happen
// after Close returns; pending timers are cancelled.
func (r *Request[T]) Close() {
	r.mu.Lock()
	r.closed = true
	r.stopTimerLocked()
	r.runSeq++
	r.mu.Unlock()
}

func (r *Request[T]) attempt(ctx context.Context, seq uint64) {
	result, err := r.op(ctx)

	r.mu.Lock()
	if r.closed || seq != r.runSeq {
		r.mu.Unlock()
		return
	}
	if err == nil {
		r.result = &result
		r.loading = false
		r.errMsg = ""
		r.retryCount = 0
		r.retrying = false
		r.mu.Unlock()
		r.notify()
		return
	}

	retriesLeft := r.retryCount < r.opts.MaxRetries
	if !r.opts.Enabled || !retriesLeft || ctx.Err() != nil {
		// terminal: this is the first time the caller sees the error
		r.loading = false
		r.errMsg = err.Error()
		r.retrying = false
		onExhausted := r.opts.OnExhausted
		r.mu.Unlock()
		zap.S().Debugw("fetch exhausted retries", "error", err)
		if onExhausted != nil {
			onExhausted(err)
		}
		r.notify()
		return
	}

	r.retryCount++
	attempt := r.retryCount
	r.retrying = true
	r.errMsg = ""
	r.stopTimerLocked()
	r.timer = time.AfterFunc(r.opts.Delay, func() {
		r.runRetry(ctx, seq)
	})
	onRetry := r.opts.OnRetry
	r.mu.Unlock()
	zap.S().Debugw("fetch retrying", "attempt", attempt, "error", err)
	if onRetry != nil {
		onRetry(attempt, err)
	}
	r.notify()
}

func (r *Request[T]) runRetry(ctx context.Context, seq uint64) {
	r.mu.Lock()
	if r.closed || seq != r.runSeq {
		r.mu.Unlock()
		return
	}
	if !r.authOK() {
		r.loading = false
		r.errMsg = ""
		r.retrying = false
		r.mu.Unlock()
		r.notify()
		return
	}
	r.loading = true
	r.mu.Unlock()
	r.attempt(ctx, seq)
}

// authOK must be called with the lock held
func (r *Request[T]) authOK() bool {
	if !r.opts.RequiresAuth {
		return true
	}
	if r.opts.Authenticated == nil {
		return true
	}
	return r.opts.Authenticated()
}

func (r *Request[T]) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Request[T]) notify() {
	r.mu.Lock()
	closed := r.closed
	notify := r.opts.Notify
	r.mu.Unlock()
	if !closed && notify != nil {
		notify()
	}
}
