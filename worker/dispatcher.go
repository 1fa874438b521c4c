// Package worker runs translations off the caller's goroutine and hands the
// results back on a channel, so a UI loop can stay responsive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ZaguanLabs/seltra"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/xid"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatcher closed")

// ErrBusy is returned by Submit when every worker is occupied.
var ErrBusy = errors.New("dispatcher busy")

// Outcome is a finished job.
type Outcome struct {
	JobID    string
	Input    string
	Provider string // Provider that produced Result
	Result   seltra.Result
	Elapsed  time.Duration
}

// Dispatcher runs translation jobs on a bounded goroutine pool.
type Dispatcher struct {
	engine  *seltra.Engine
	pool    *ants.Pool
	results chan Outcome
	retry   seltra.RetryConfig
	timeout time.Duration
	logger  *slog.Logger

	size   int
	buffer int

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency sets the number of jobs that may run at once (default 2).
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.size = n
		}
	}
}

// WithBuffer sets the capacity of the results channel (default 16).
func WithBuffer(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.buffer = n
		}
	}
}

// WithRetry sets the retry policy applied to each job.
func WithRetry(cfg seltra.RetryConfig) Option {
	return func(d *Dispatcher) {
		d.retry = cfg
	}
}

// WithTimeout bounds each job including retries. 0 disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Dispatcher translating through engine.
func New(engine *seltra.Engine, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		engine: engine,
		retry:  seltra.DefaultRetryConfig(),
		logger: slog.Default(),
		size:   2,
		buffer: 16,
	}
	for _, opt := range opts {
		opt(d)
	}

	pool, err := ants.NewPool(d.size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			d.logger.Error("translation job panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	d.pool = pool
	d.results = make(chan Outcome, d.buffer)
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

// Results delivers finished jobs. It is closed by Close.
func (d *Dispatcher) Results() <-chan Outcome {
	return d.results
}

// Submit queues text for translation and returns the job ID.
func (d *Dispatcher) Submit(text string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}

	id := xid.New().String()
	d.wg.Add(1)
	err := d.pool.Submit(func() {
		defer d.wg.Done()
		d.run(id, text)
	})
	if err != nil {
		d.wg.Done()
		if errors.Is(err, ants.ErrPoolOverload) {
			return "", ErrBusy
		}
		return "", fmt.Errorf("submitting job: %w", err)
	}

	d.logger.Debug("translation job queued", "job", id, "chars", len(text))
	return id, nil
}

func (d *Dispatcher) run(id, text string) {
	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	result, provider := seltra.TranslateWithRetryProvider(ctx, d.engine, d.retry, text)
	out := Outcome{
		JobID:    id,
		Input:    text,
		Provider: provider,
		Result:   result,
		Elapsed:  time.Since(start),
	}

	if result.OK() {
		d.logger.Debug("translation job finished", "job", id, "provider", provider, "elapsed", out.Elapsed)
	} else {
		d.logger.Warn("translation job failed", "job", id, "provider", provider, "reason", result.Reason(), "message", result.Message())
	}

	select {
	case d.results <- out:
	case <-d.ctx.Done():
		d.logger.Debug("dropping result after close", "job", id)
	}
}

// Running returns the number of jobs currently executing.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Close stops accepting jobs, cancels the ones in flight, waits for them
// and closes Results. Results not yet received may be dropped.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	d.pool.Release()
	close(d.results)
}
