// Package queue serializes rate-limited platform operations.
//
// A single consumer goroutine runs tasks one at a time in submission order.
// A task that fails with a rate-limit signal goes back to the head of the
// queue and is retried after the server-suggested delay or an exponential
// backoff. Any other failure drops the task and resolves its Future with the
// error.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"intro-bot/metrics"

	"golang.org/x/time/rate"
)

// ErrClosed is returned for tasks submitted to, or left in, a closed queue.
var ErrClosed = errors.New("queue: closed")

const (
	DefaultBackoffFloor   = time.Second
	DefaultBackoffCeiling = time.Minute
	DefaultInterTaskDelay = 250 * time.Millisecond
)

// Task is a side-effecting operation. Its result is delivered through the
// Future returned by Enqueue.
type Task func(ctx context.Context) (any, error)

// RateLimitClassifier reports whether err is a rate-limit signal, along with
// the delay the server asked for (zero when none was given).
type RateLimitClassifier func(err error) (retryAfter time.Duration, limited bool)

// Future resolves once its task succeeds or is dropped.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(value any, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done is closed when the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or ctx is done.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type item struct {
	name   string
	task   Task
	future *Future
}

// TaskQueue is a single-consumer FIFO with rate-limit backoff.
type TaskQueue struct {
	mu      sync.Mutex
	items   []*item
	running bool
	closed  bool
	backoff time.Duration

	floor    time.Duration
	ceiling  time.Duration
	limiter  *rate.Limiter
	classify RateLimitClassifier
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a TaskQueue.
type Option func(*TaskQueue)

// WithBackoff sets the backoff floor and ceiling.
func WithBackoff(floor, ceiling time.Duration) Option {
	return func(q *TaskQueue) {
		q.floor = floor
		q.ceiling = ceiling
	}
}

// WithInterTaskDelay sets the minimum spacing between task executions.
func WithInterTaskDelay(d time.Duration) Option {
	return func(q *TaskQueue) {
		q.limiter = newLimiter(d)
	}
}

// WithClassifier sets how rate-limit errors are recognized.
func WithClassifier(c RateLimitClassifier) Option {
	return func(q *TaskQueue) {
		q.classify = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *TaskQueue) {
		q.logger = l
	}
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// New creates an idle queue. The consumer starts on the first Enqueue.
func New(opts ...Option) *TaskQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &TaskQueue{
		floor:    DefaultBackoffFloor,
		ceiling:  DefaultBackoffCeiling,
		limiter:  newLimiter(DefaultInterTaskDelay),
		classify: func(error) (time.Duration, bool) { return 0, false },
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.ceiling < q.floor {
		q.ceiling = q.floor
	}
	q.backoff = q.floor
	return q
}

// Enqueue appends task and starts the consumer if it is idle. It never blocks
// on the task itself.
func (q *TaskQueue) Enqueue(name string, task Task) *Future {
	f := newFuture()

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		f.resolve(nil, ErrClosed)
		return f
	}
	q.items = append(q.items, &item{name: name, task: task, future: f})
	metrics.QueueDepth.Set(float64(len(q.items)))
	if !q.running {
		q.running = true
		q.wg.Add(1)
		go q.run()
	}
	q.mu.Unlock()

	return f
}

// Len returns the number of tasks waiting to run.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Backoff returns the delay the next rate-limited retry will use when the
// server gives no hint.
func (q *TaskQueue) Backoff() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.backoff
}

func (q *TaskQueue) next() *item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || len(q.items) == 0 {
		q.running = false
		return nil
	}
	it := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	metrics.QueueDepth.Set(float64(len(q.items)))
	return it
}

func (q *TaskQueue) run() {
	defer q.wg.Done()

	for {
		it := q.next()
		if it == nil {
			return
		}

		if err := q.limiter.Wait(q.ctx); err != nil {
			it.future.resolve(nil, ErrClosed)
			return
		}

		value, err := it.task(q.ctx)
		if err == nil {
			q.mu.Lock()
			q.backoff = q.floor
			q.mu.Unlock()
			metrics.QueueTasks.WithLabelValues(it.name, "ok").Inc()
			it.future.resolve(value, nil)
			continue
		}

		if retryAfter, limited := q.classify(err); limited {
			q.mu.Lock()
			delay := retryAfter
			if delay <= 0 {
				delay = q.backoff
			}
			q.backoff = min(q.backoff*2, q.ceiling)
			q.items = append([]*item{it}, q.items...)
			metrics.QueueDepth.Set(float64(len(q.items)))
			q.mu.Unlock()

			metrics.QueueTasks.WithLabelValues(it.name, "rate_limited").Inc()
			metrics.QueueBackoffSeconds.Observe(delay.Seconds())
			q.logger.Warn("task rate limited, retrying", "task", it.name, "delay", delay)

			if !sleep(q.ctx, delay) {
				return
			}
			continue
		}

		metrics.QueueTasks.WithLabelValues(it.name, "failed").Inc()
		q.logger.Error("task failed, dropping", "task", it.name, "error", err)
		it.future.resolve(nil, err)
	}
}

// Close stops the consumer and resolves every pending task with ErrClosed.
// A task that is already running is allowed to finish.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()

	q.mu.Lock()
	pending := q.items
	q.items = nil
	metrics.QueueDepth.Set(0)
	q.mu.Unlock()

	for _, it := range pending {
		it.future.resolve(nil, ErrClosed)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
