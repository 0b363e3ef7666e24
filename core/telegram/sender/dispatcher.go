// Package sender runs outbound Telegram calls on a small worker pool so that
// update handlers never wait on the network.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/schoolbot/core/logger"
	"github.com/m3rciful/schoolbot/core/metrics"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when no slot is free; callers may send inline instead.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the outbound queue. Zero values select defaults.
type Options struct {
	QueueSize int
	Workers   int
	// Retries is how often a transient failure is repeated; 0 logs and drops.
	Retries      int
	RetryBackoff time.Duration
	// JobTimeout bounds one job including its retries.
	JobTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	if o.JobTimeout <= 0 {
		o.JobTimeout = 15 * time.Second
	}
	return o
}

type job struct {
	ctx    context.Context
	action string
	run    func() error
}

// Dispatcher drains queued send jobs with a fixed number of workers.
type Dispatcher struct {
	opts Options

	mu     sync.RWMutex
	closed bool
	queue  chan job

	wg     sync.WaitGroup
	failed atomic.Uint64
}

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts:  opts,
		queue: make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go func() {
			defer d.wg.Done()
			for j := range d.queue {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run without blocking. action names the call in logs.
func (d *Dispatcher) Enqueue(ctx context.Context, action string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.queue <- job{ctx: ctx, action: action, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Failed returns how many jobs ended in an error.
func (d *Dispatcher) Failed() uint64 {
	return d.failed.Load()
}

// Close rejects new jobs, finishes the queued ones and waits for the workers.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	attempts := 0
	var err error
	for {
		attempts++
		err = j.run()
		if err == nil || attempts > d.opts.Retries || !Transient(err) {
			break
		}
		if !sleep(ctx, d.opts.RetryBackoff*time.Duration(attempts)) {
			err = errors.Join(err, ctx.Err())
			break
		}
	}
	d.report(j, err, attempts, logger.Took(start))
}

func (d *Dispatcher) report(j job, err error, attempts int, took time.Duration) {
	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.Int("attempts", attempts),
		slog.Duration("duration", took),
	}
	if err == nil {
		logger.Debug(j.ctx, "tg.sender", "send.ok", attrs...)
		return
	}
	d.failed.Add(1)
	kind := Classify(err)
	metrics.RecordSendFailure(kind)
	attrs = append(attrs,
		slog.String("status", "fail"),
		slog.String("error_kind", kind),
		slog.String("err", Redact(err)),
	)
	logger.Warn(j.ctx, "tg.sender", "send.fail", attrs...)
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
