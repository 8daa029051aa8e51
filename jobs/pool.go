// Package jobs runs value-typed job descriptors on a fixed set of workers,
// each under a wall-clock limit.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

var (
	ErrClosed    = errors.New("jobs: 队列已关闭")
	ErrQueueFull = errors.New("jobs: 队列已满")
	// ErrTimeout 包装 context.DeadlineExceeded，超时任务的迟到结果被丢弃。
	ErrTimeout = fmt.Errorf("jobs: 任务超时: %w", context.DeadlineExceeded)
)

const DefaultTimeout = 10 * time.Minute

// Job describes one unit of work. Run must honour ctx; a job that ignores it
// keeps its goroutine until it returns but its result is no longer observed.
type Job struct {
	ID      string
	Timeout time.Duration // 为 0 时使用 Options.DefaultTimeout
	Run     func(ctx context.Context) error
}

// Options configures a Pool. The zero value is usable.
type Options struct {
	Workers        int // <=0 时为 GOMAXPROCS
	QueueSize      int // <=0 时为 Workers*4
	DefaultTimeout time.Duration
	Logger         *slog.Logger
	OnDone         func(job Job, err error)
}

// Pool is a fixed-size worker pool. Safe for concurrent use.
type Pool struct {
	opts  Options
	log   *slog.Logger
	queue chan Job
	base  context.Context
	stop  context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool starts the workers immediately.
func NewPool(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 4
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	base, stop := context.WithCancel(context.Background())
	p := &Pool{
		opts:  opts,
		log:   log,
		queue: make(chan Job, opts.QueueSize),
		base:  base,
		stop:  stop,
	}
	p.wg.Add(opts.Workers)
	for range opts.Workers {
		go p.worker()
	}
	return p
}

// Submit enqueues a job without blocking.
func (p *Pool) Submit(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("jobs: 任务 %q 缺少 Run", job.ID)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- job:
		p.log.Debug("job queued", "id", job.ID, "pending", len(p.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs, runs what is already queued and waits for the
// workers to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
	p.stop()
}

// Shutdown is Close with a deadline: when ctx ends first, running jobs are
// cancelled and Shutdown returns ctx.Err() once the workers exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.stop()
		<-done
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.queue {
		err := p.run(job)
		if p.opts.OnDone != nil {
			p.opts.OnDone(job, err)
		}
	}
}

func (p *Pool) run(job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = p.opts.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(p.base, timeout)
	defer cancel()

	start := time.Now()
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("jobs: 任务 %q panic: %v", job.ID, r)
			}
		}()
		result <- job.Run(ctx)
	}()

	var err error
	select {
	case err = <-result:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		} else {
			err = ctx.Err()
		}
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = ErrTimeout
	}

	elapsed := time.Since(start)
	switch {
	case err == nil:
		p.log.Info("job finished", "id", job.ID, "elapsed", elapsed)
	case errors.Is(err, ErrTimeout):
		p.log.Warn("job timed out", "id", job.ID, "timeout", timeout)
	default:
		p.log.Error("job failed", "id", job.ID, "elapsed", elapsed, "err", err)
	}
	return err
}
