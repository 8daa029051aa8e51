package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type result struct {
	id  string
	err error
}

func collect() (func(Job, error), func() []result) {
	var mu sync.Mutex
	var out []result
	return func(j Job, err error) {
			mu.Lock()
			out = append(out, result{j.ID, err})
			mu.Unlock()
		}, func() []result {
			mu.Lock()
			defer mu.Unlock()
			return append([]result(nil), out...)
		}
}

func TestPoolRunsJobs(t *testing.T) {
	onDone, results := collect()
	p := NewPool(Options{Workers: 3, QueueSize: 16, OnDone: onDone})
	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		if err := p.Submit(Job{ID: "ok", Run: func(ctx context.Context) error {
			ran.Add(1)
			return nil
		}}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	p.Close()
	if ran.Load() != 10 {
		t.Fatalf("ran %d jobs, want 10", ran.Load())
	}
	for _, r := range results() {
		if r.err != nil {
			t.Fatalf("job %s: %v", r.id, r.err)
		}
	}
}

func TestPoolTimeoutDiscardsLateResult(t *testing.T) {
	onDone, results := collect()
	p := NewPool(Options{Workers: 1, OnDone: onDone})
	release := make(chan struct{})
	err := p.Submit(Job{ID: "slow", Timeout: 20 * time.Millisecond, Run: func(ctx context.Context) error {
		<-release // 忽略 ctx
		return nil
	}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	p.Close()
	close(release)
	got := results()
	if len(got) != 1 || !errors.Is(got[0].err, ErrTimeout) {
		t.Fatalf("expected timeout, got %+v", got)
	}
	if !errors.Is(got[0].err, context.DeadlineExceeded) {
		t.Fatalf("ErrTimeout must wrap DeadlineExceeded")
	}
}

func TestPoolTimeoutHonouredByJob(t *testing.T) {
	onDone, results := collect()
	p := NewPool(Options{Workers: 1, DefaultTimeout: 10 * time.Millisecond, OnDone: onDone})
	_ = p.Submit(Job{ID: "ctx", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	p.Close()
	if got := results(); len(got) != 1 || !errors.Is(got[0].err, ErrTimeout) {
		t.Fatalf("expected timeout, got %+v", got)
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	onDone, results := collect()
	p := NewPool(Options{Workers: 1, OnDone: onDone})
	_ = p.Submit(Job{ID: "boom", Run: func(ctx context.Context) error { panic("boom") }})
	_ = p.Submit(Job{ID: "after", Run: func(ctx context.Context) error { return nil }})
	p.Close()
	got := results()
	if len(got) != 2 || got[0].err == nil || got[1].err != nil {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestPoolQueueFullAndClosed(t *testing.T) {
	p := NewPool(Options{Workers: 1, QueueSize: 1})
	started := make(chan struct{})
	release := make(chan struct{})
	block := Job{ID: "block", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}
	if err := p.Submit(block); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started
	noop := Job{ID: "noop", Run: func(ctx context.Context) error { return nil }}
	if err := p.Submit(noop); err != nil {
		t.Fatalf("Submit into free slot: %v", err)
	}
	if err := p.Submit(noop); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(release)
	p.Close()
	if err := p.Submit(noop); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	p.Close() // 重复关闭无副作用
	if err := p.Submit(Job{ID: "nil"}); err == nil {
		t.Fatalf("expected error for job without Run")
	}
}

func TestPoolShutdownCancelsRunningJobs(t *testing.T) {
	onDone, results := collect()
	p := NewPool(Options{Workers: 1, DefaultTimeout: time.Hour, OnDone: onDone})
	started := make(chan struct{})
	_ = p.Submit(Job{ID: "long", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}})
	<-started
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Shutdown = %v", err)
	}
	if got := results(); len(got) != 1 || !errors.Is(got[0].err, context.Canceled) {
		t.Fatalf("expected cancelled job, got %+v", got)
	}
}
