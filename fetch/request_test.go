package fetch_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint-go/fetch"
)

const testDelay = 10 * time.Millisecond

func TestRequest_SucceedsFirstAttempt(t *testing.T) {
	var calls int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}, fetch.Options{Enabled: true, Delay: testDelay})
	defer req.Close()

	req.Run(context.Background())

	require.Eventually(t, func() bool {
		s := req.State()
		return s.Result != nil && !s.Loading
	}, time.Second, 5*time.Millisecond)

	s := req.State()
	assert.Equal(t, 42, *s.Result)
	assert.Empty(t, s.Err)
	assert.Equal(t, 0, s.RetryCount)
	assert.False(t, s.Retrying)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRequest_FailsThenSucceeds(t *testing.T) {
	const failures = 3
	var calls int32
	req := fetch.New(func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		if n <= failures {
			return "", errors.New("mocked-error")
		}
		return "ok", nil
	}, fetch.Options{Enabled: true, MaxRetries: 5, Delay: testDelay})
	defer req.Close()

	req.Run(context.Background())

	require.Eventually(t, func() bool {
		return req.State().Result != nil
	}, 2*time.Second, 5*time.Millisecond)

	s := req.State()
	assert.Equal(t, "ok", *s.Result)
	// success resets the counter
	assert.Equal(t, 0, s.RetryCount)
	assert.Empty(t, s.Err)
	assert.False(t, s.Retrying)
	assert.Equal(t, int32(failures+1), atomic.LoadInt32(&calls))
}

func TestRequest_ErrStaysEmptyDuringRetries(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return 0, errors.New("mocked-error")
		}
		<-release
		return 1, nil
	}, fetch.Options{Enabled: true, MaxRetries: 5, Delay: 50 * time.Millisecond})
	defer req.Close()
	defer close(release)

	req.Run(context.Background())

	require.Eventually(t, func() bool {
		return req.State().Retrying
	}, time.Second, time.Millisecond)

	s := req.State()
	assert.Empty(t, s.Err, "errors stay hidden while retries remain")
	assert.Equal(t, 1, s.RetryCount)
}

func TestRequest_ExhaustsRetries(t *testing.T) {
	const maxRetries = 3
	var calls int32
	var exhausted int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("mocked-error")
	}, fetch.Options{
		Enabled:     true,
		MaxRetries:  maxRetries,
		Delay:       testDelay,
		OnExhausted: func(err error) { atomic.AddInt32(&exhausted, 1) },
	})
	defer req.Close()

	req.Run(context.Background())

	require.Eventually(t, func() bool {
		return req.State().Err != ""
	}, 2*time.Second, 5*time.Millisecond)

	s := req.State()
	assert.Equal(t, "mocked-error", s.Err)
	assert.Equal(t, maxRetries, s.RetryCount)
	assert.False(t, s.Retrying)
	assert.Nil(t, s.Result)
	// initial attempt plus each retry
	assert.Equal(t, int32(maxRetries+1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&exhausted))
}

func TestRequest_DisabledFailsImmediately(t *testing.T) {
	var calls int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("mocked-error")
	}, fetch.Options{Enabled: false, MaxRetries: 5, Delay: testDelay})
	defer req.Close()

	req.Run(context.Background())

	require.Eventually(t, func() bool {
		return req.State().Err != ""
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, req.State().RetryCount)
}

func TestRequest_OnRetryReportsAttemptNumbers(t *testing.T) {
	var mu []int
	done := make(chan struct{})
	req := fetch.New(func(ctx context.Context) (int, error) {
		return 0, errors.New("mocked-error")
	}, fetch.Options{
		Enabled:    true,
		MaxRetries: 2,
		Delay:      testDelay,
		OnRetry: func(attempt int, err error) {
			mu = append(mu, attempt)
		},
		OnExhausted: func(err error) { close(done) },
	})
	defer req.Close()

	req.Run(context.Background())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retries never exhausted")
	}
	assert.Equal(t, []int{1, 2}, mu)
}

func TestRequest_CloseWhileRetryPending(t *testing.T) {
	var calls int32
	var notified int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("mocked-error")
	}, fetch.Options{
		Enabled:    true,
		MaxRetries: 5,
		Delay:      100 * time.Millisecond,
		Notify:     func() { atomic.AddInt32(&notified, 1) },
	})

	req.Run(context.Background())
	require.Eventually(t, func() bool {
		return req.State().Retrying
	}, time.Second, time.Millisecond)

	req.Close()
	callsAtClose := atomic.LoadInt32(&calls)
	notifiedAtClose := atomic.LoadInt32(&notified)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, callsAtClose, atomic.LoadInt32(&calls), "no attempts after Close")
	assert.Equal(t, notifiedAtClose, atomic.LoadInt32(&notified), "no callbacks after Close")
}

func TestRequest_RefetchResetsCounter(t *testing.T) {
	var fail int32 = 1
	var calls int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		if atomic.LoadInt32(&fail) == 1 {
			return 0, errors.New("mocked-error")
		}
		return 7, nil
	}, fetch.Options{Enabled: true, MaxRetries: 2, Delay: testDelay})
	defer req.Close()

	req.Run(context.Background())
	require.Eventually(t, func() bool {
		return req.State().Err != ""
	}, 2*time.Second, 5*time.Millisecond)

	atomic.StoreInt32(&fail, 0)
	req.Refetch(context.Background())

	require.Eventually(t, func() bool {
		return req.State().Result != nil
	}, time.Second, 5*time.Millisecond)

	s := req.State()
	assert.Equal(t, 7, *s.Result)
	assert.Empty(t, s.Err)
	assert.Equal(t, 0, s.RetryCount)
}

func TestRequest_RunSupersedesInFlightAttempt(t *testing.T) {
	release := make(chan struct{})
	var started int32
	var block int32 = 1
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&started, 1)
		if atomic.LoadInt32(&block) == 1 {
			<-release
			return 1, nil
		}
		return 2, nil
	}, fetch.Options{Enabled: true, Delay: testDelay})
	defer req.Close()

	req.Run(context.Background())
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&started) == 1
	}, time.Second, time.Millisecond)

	atomic.StoreInt32(&block, 0)
	req.Run(context.Background())

	require.Eventually(t, func() bool {
		return req.State().Result != nil
	}, time.Second, 5*time.Millisecond)

	// let the superseded attempt finish and be discarded
	close(release)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, *req.State().Result)
}

func TestRequest_RequiresAuthSkipsWhenSignedOut(t *testing.T) {
	var calls int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	}, fetch.Options{
		Enabled:       true,
		Delay:         testDelay,
		RequiresAuth:  true,
		Authenticated: func() bool { return false },
	})
	defer req.Close()

	req.Run(context.Background())
	time.Sleep(50 * time.Millisecond)

	s := req.State()
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	assert.False(t, s.Loading)
	assert.Empty(t, s.Err)
}

func TestRequest_OnFocusRunsAfterSettleDelay(t *testing.T) {
	var calls int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	}, fetch.Options{Enabled: true, Delay: testDelay})
	defer req.Close()

	req.OnFocus(context.Background())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "settle delay not elapsed yet")

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRequest_ResetClearsEverything(t *testing.T) {
	req := fetch.NewWithDefaults(func(ctx context.Context) (int, error) {
		return 9, nil
	})
	defer req.Close()

	req.Run(context.Background())
	require.Eventually(t, func() bool {
		return req.State().Result != nil
	}, time.Second, 5*time.Millisecond)

	req.Reset()

	s := req.State()
	assert.Nil(t, s.Result)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Err)
	assert.Equal(t, 0, s.RetryCount)
}

func TestRequest_CancelSupersedesInFlightAttempt(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 0, errors.New("mocked-error")
	}, fetch.Options{Enabled: true, MaxRetries: 5, Delay: 50 * time.Millisecond})
	defer req.Close()

	req.Run(context.Background())
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, time.Millisecond)

	req.Cancel()
	// the attempt fails after the cancel; it must not restart the loop
	close(release)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	s := req.State()
	assert.False(t, s.Retrying)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Err)
}

func TestRequest_CancelStopsPendingRetry(t *testing.T) {
	var calls int32
	req := fetch.New(func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("mocked-error")
	}, fetch.Options{Enabled: true, MaxRetries: 5, Delay: 100 * time.Millisecond})
	defer req.Close()

	req.Run(context.Background())
	require.Eventually(t, func() bool {
		return req.State().Retrying
	}, time.Second, time.Millisecond)

	req.Cancel()
	callsAtCancel := atomic.LoadInt32(&calls)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, callsAtCancel, atomic.LoadInt32(&calls))
	assert.False(t, req.State().Retrying)
}
