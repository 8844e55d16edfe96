// Package taskqueue runs background refresh chains (status warmups,
// bookmark reconciliation) on worker goroutines partitioned by a stable
// hash of a task key. FIFO order is guaranteed per key; tasks with
// different keys may run in parallel.
//
// Contract: callers must not invoke Submit concurrently for the same key —
// per-key FIFO ordering relies on that external serialisation.
package taskqueue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	oerr "github.com/opennow/opennow-go/internal/errors"
)

// Task is a unit of background work.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a closure to a Task.
type TaskFunc func(ctx context.Context) error

// Run implements Task.
func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }

type queuedTask struct {
	ctx  context.Context
	task Task
}

// Executor owns the worker pool. Construct with NewExecutor, stop with
// Stop or Close.
type Executor struct {
	cfg    Config
	queues []chan queuedTask
	log    zerolog.Logger

	done   chan struct{}
	closed uint32

	wg sync.WaitGroup
}

// NewExecutor constructs the executor and starts its workers.
func NewExecutor(cfg Config, log zerolog.Logger) *Executor {
	cfg.applyDefaults()
	e := &Executor{
		cfg:    cfg,
		queues: make([]chan queuedTask, cfg.Shards),
		log:    log,
		done:   make(chan struct{}),
	}
	for i := 0; i < cfg.Shards; i++ {
		ch := make(chan queuedTask, cfg.QueueSize)
		e.queues[i] = ch
		e.wg.Add(1)
		go e.runWorker(i, ch)
	}
	return e
}

// Submit enqueues task for the shard derived from key.
//
//   - Returns nil on success.
//   - Returns ErrExecutorClosed once Stop has been called.
//   - Returns *QueueFullError when the shard stays full past
//     EnqueueTimeout.
//   - Returns ctx.Err() if the caller's context is cancelled first.
func (e *Executor) Submit(ctx context.Context, key string, task Task) error {
	if atomic.LoadUint32(&e.closed) == 1 {
		return ErrExecutorClosed
	}
	select {
	case <-e.done:
		return ErrExecutorClosed
	default:
	}

	shard := e.shardFor(key)
	ch := e.queues[shard]

	timer := time.NewTimer(e.cfg.EnqueueTimeout)
	defer timer.Stop()

	select {
	case ch <- queuedTask{ctx: ctx, task: task}:
		submissionsTotal.WithLabelValues(labelFor(shard)).Inc()
		return nil
	case <-e.done:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		queueFullTotal.WithLabelValues(labelFor(shard)).Inc()
		return &QueueFullError{Shard: shard, Length: len(ch), Capacity: cap(ch)}
	}
}

// Barrier enqueues a no-op task on the shard for key and waits until it
// runs, guaranteeing everything previously submitted for that key has
// completed.
func (e *Executor) Barrier(ctx context.Context, key string) error {
	ran := make(chan struct{})
	t := TaskFunc(func(context.Context) error {
		close(ran)
		return nil
	})
	if err := e.Submit(ctx, key, t); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ran:
		return nil
	}
}

// Stop drains every queue and waits for the workers to exit. Idempotent
// and safe for concurrent use.
func (e *Executor) Stop() {
	if !atomic.CompareAndSwapUint32(&e.closed, 0, 1) {
		return
	}
	e.log.Debug().Int("shards", e.cfg.Shards).Msg("taskqueue: stopping, draining shards")
	close(e.done)
	e.wg.Wait()
	e.log.Debug().Msg("taskqueue: stopped, all queues drained")
}

// Close lets Executor satisfy io.Closer.
func (e *Executor) Close() error {
	e.Stop()
	return nil
}

// ------------------------- internals -------------------------

func (e *Executor) runWorker(idx int, ch <-chan queuedTask) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Int("worker", idx).Interface("panic", r).Msg("taskqueue: worker panic")
		}
	}()

	label := labelFor(idx)

	for {
		select {
		case qt := <-ch:
			if qt.task == nil {
				continue
			}
			select {
			case <-qt.ctx.Done():
				// Cancelled before it ran; don't stall the shard.
				e.safeHandleError(qt.ctx.Err())
			default:
				e.runWithRetry(qt, label)
			}
			queueDepth.WithLabelValues(label).Set(float64(len(ch)))

		case <-e.done:
			// Drain remaining tasks in FIFO order, then exit.
			for {
				select {
				case qt := <-ch:
					if qt.task != nil {
						_ = qt.task.Run(qt.ctx)
					}
				default:
					queueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

// runWithRetry executes one task, retrying transient failures with
// exponential backoff. Permanent failures (4xx, validation) fail fast.
func (e *Executor) runWithRetry(qt queuedTask, label string) {
	attempts := 0
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = e.cfg.MaxInterval
	exp.Reset()

	for {
		start := time.Now()
		err := qt.task.Run(qt.ctx)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

		if err == nil {
			return
		}
		if oerr.IsPermanent(err) {
			e.safeHandleError(err)
			return
		}
		if attempts >= e.cfg.MaxAttempts-1 {
			e.safeHandleError(err)
			return
		}
		attempts++
		select {
		case <-time.After(exp.NextBackOff()):
		case <-e.done:
			return
		case <-qt.ctx.Done():
			e.safeHandleError(qt.ctx.Err())
			return
		}
	}
}

func (e *Executor) safeHandleError(err error) {
	if err == nil || e.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("taskqueue: error handler panic")
		}
	}()
	e.cfg.ErrorHandler(err)
}

func (e *Executor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % e.cfg.Shards
}
