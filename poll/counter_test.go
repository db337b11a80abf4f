package poll_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint-go/poll"
)

func TestCounter_StartFetchesImmediately(t *testing.T) {
	var calls int32
	counter := poll.New("test", time.Minute, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 7, nil
	})
	require.NoError(t, counter.Start())
	defer counter.Stop()

	require.Eventually(t, func() bool {
		return counter.Count() == 7
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, counter.Err())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no interval ticks yet")
}

func TestCounter_TicksOnInterval(t *testing.T) {
	var calls int32
	counter := poll.New("test", time.Second, func(ctx context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	})
	require.NoError(t, counter.Start())
	defer counter.Stop()

	// the immediate fetch plus at least one interval tick
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, 3*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, counter.Count(), 2)
}

func TestCounter_StopHaltsTicker(t *testing.T) {
	var calls int32
	counter := poll.New("test", time.Second, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})
	require.NoError(t, counter.Start())

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, time.Second, 5*time.Millisecond)
	counter.Stop()
	after := atomic.LoadInt32(&calls)

	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&calls), "no ticks after Stop")
}

func TestCounter_TickErrorKeepsLastCount(t *testing.T) {
	var fail int32
	counter := poll.New("test", time.Minute, func(ctx context.Context) (int, error) {
		if atomic.LoadInt32(&fail) == 1 {
			return 0, errors.New("mocked-error")
		}
		return 5, nil
	})

	require.NoError(t, counter.Refetch(context.Background()))
	assert.Equal(t, 5, counter.Count())

	atomic.StoreInt32(&fail, 1)
	err := counter.Refetch(context.Background())
	assert.Error(t, err)
	assert.Error(t, counter.Err())
	// a failed tick never clobbers the last good value
	assert.Equal(t, 5, counter.Count())

	atomic.StoreInt32(&fail, 0)
	require.NoError(t, counter.Refetch(context.Background()))
	assert.NoError(t, counter.Err())
}

func TestCounter_RestartDoesNotDoubleTicks(t *testing.T) {
	var calls int32
	counter := poll.New("test", time.Second, func(ctx context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	})
	require.NoError(t, counter.Start())
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, time.Second, 5*time.Millisecond)
	counter.Stop()
	base := atomic.LoadInt32(&calls)

	require.NoError(t, counter.Start())
	defer counter.Stop()

	// immediate fetch plus exactly one tick for the first interval; a
	// re-registered job would fire a second tick in the same second
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= base+2
	}, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, base+2, atomic.LoadInt32(&calls))
}

func TestCounter_StartTwiceIsNoop(t *testing.T) {
	var calls int32
	counter := poll.New("test", time.Minute, func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})
	require.NoError(t, counter.Start())
	require.NoError(t, counter.Start())
	defer counter.Stop()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCounter_CanonicalIntervals(t *testing.T) {
	assert.Equal(t, 30*time.Second, poll.NotificationInterval)
	assert.Equal(t, 10*time.Second, poll.FriendRequestInterval)
}
