package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateLimited struct {
	retryAfter time.Duration
}

func (r rateLimited) Error() string { return "rate limited" }

func testClassifier(err error) (time.Duration, bool) {
	var rl rateLimited
	if errors.As(err, &rl) {
		return rl.retryAfter, true
	}
	return 0, false
}

func newTestQueue(t *testing.T, opts ...Option) *TaskQueue {
	t.Helper()
	opts = append([]Option{
		WithBackoff(2*time.Millisecond, 16*time.Millisecond),
		WithInterTaskDelay(0),
		WithClassifier(testClassifier),
	}, opts...)
	q := New(opts...)
	t.Cleanup(q.Close)
	return q
}

func waitAll(t *testing.T, futures ...*Future) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, f := range futures {
		select {
		case <-f.Done():
		case <-ctx.Done():
			t.Fatal("timed out waiting for queued tasks")
		}
	}
}

// recorder collects the order in which tasks ran.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestTaskQueueRetriesRateLimitedTaskInOrder(t *testing.T) {
	q := newTestQueue(t)
	rec := &recorder{}

	// hold the consumer so all three tasks are queued before any runs
	gate := make(chan struct{})
	first := q.Enqueue("first", func(ctx context.Context) (any, error) {
		<-gate
		rec.add("first")
		return "first", nil
	})

	failedOnce := false
	second := q.Enqueue("second", func(ctx context.Context) (any, error) {
		if !failedOnce {
			failedOnce = true
			rec.add("second:limited")
			return nil, rateLimited{}
		}
		rec.add("second")
		return "second", nil
	})
	third := q.Enqueue("third", func(ctx context.Context) (any, error) {
		rec.add("third")
		return "third", nil
	})
	close(gate)

	waitAll(t, first, second, third)
	assert.Equal(t, []string{"first", "second:limited", "second", "third"}, rec.get())

	v, err := second.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestTaskQueueDropsFailedTask(t *testing.T) {
	q := newTestQueue(t)
	boom := errors.New("boom")

	calls := 0
	failed := q.Enqueue("fails", func(ctx context.Context) (any, error) {
		calls++
		return nil, boom
	})
	ok := q.Enqueue("ok", func(ctx context.Context) (any, error) {
		return 1, nil
	})
	waitAll(t, failed, ok)

	_, err := failed.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	v, err := ok.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestTaskQueueBackoffDoublesAndResets(t *testing.T) {
	q := newTestQueue(t)

	attempts := 0
	var seen []time.Duration
	f := q.Enqueue("flaky", func(ctx context.Context) (any, error) {
		seen = append(seen, q.Backoff())
		attempts++
		if attempts <= 4 {
			return nil, rateLimited{}
		}
		return nil, nil
	})
	waitAll(t, f)

	assert.Equal(t, 5, attempts)
	assert.Equal(t, []time.Duration{
		2 * time.Millisecond,
		4 * time.Millisecond,
		8 * time.Millisecond,
		16 * time.Millisecond,
		16 * time.Millisecond, // capped
	}, seen)
	assert.Equal(t, 2*time.Millisecond, q.Backoff())
}

func TestTaskQueueHonorsRetryAfter(t *testing.T) {
	q := newTestQueue(t, WithBackoff(time.Hour, time.Hour))

	attempts := 0
	start := time.Now()
	f := q.Enqueue("hinted", func(ctx context.Context) (any, error) {
		attempts++
		if attempts == 1 {
			return nil, rateLimited{retryAfter: 5 * time.Millisecond}
		}
		return nil, nil
	})
	waitAll(t, f)

	assert.Equal(t, 2, attempts)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestTaskQueueRestartsAfterIdle(t *testing.T) {
	q := newTestQueue(t)

	f1 := q.Enqueue("a", func(ctx context.Context) (any, error) { return "a", nil })
	waitAll(t, f1)

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return !q.running
	}, time.Second, time.Millisecond)

	f2 := q.Enqueue("b", func(ctx context.Context) (any, error) { return "b", nil })
	v, err := f2.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestTaskQueueClose(t *testing.T) {
	q := New(WithInterTaskDelay(0))

	gate := make(chan struct{})
	started := make(chan struct{})
	running := q.Enqueue("running", func(ctx context.Context) (any, error) {
		close(started)
		<-gate
		return "done", nil
	})
	pending := q.Enqueue("pending", func(ctx context.Context) (any, error) {
		return "never", nil
	})

	<-started
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(gate)
	}()
	q.Close()

	v, err := running.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)

	_, err = pending.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, err = q.Enqueue("late", func(ctx context.Context) (any, error) { return nil, nil }).Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFutureWaitContext(t *testing.T) {
	q := newTestQueue(t)
	gate := make(chan struct{})
	defer close(gate)

	f := q.Enqueue("blocked", func(ctx context.Context) (any, error) {
		<-gate
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
