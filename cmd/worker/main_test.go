package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type scriptedQueue struct {
	mu      sync.Mutex
	results []bool
	calls   int
	cancel  context.CancelFunc
}

func (q *scriptedQueue) ProcessNext(context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if len(q.results) == 0 {
		q.cancel()
		return false, nil
	}
	next := q.results[0]
	q.results = q.results[1:]
	if !next {
		return false, errors.New("claim bill: connection reset")
	}
	return true, nil
}

type countingImpact struct {
	calls atomic.Int32
}

func (c *countingImpact) BuildPreviousWeek(context.Context) (int, error) {
	c.calls.Add(1)
	return 2, nil
}

func TestRunDrainsQueueUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue := &scriptedQueue{results: []bool{true, true, false, true}, cancel: cancel}
	w := &billWorker{queue: queue, logger: zerolog.Nop(), pollInterval: time.Millisecond}

	err := w.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if queue.calls != 5 {
		t.Fatalf("ProcessNext calls = %d, want 5", queue.calls)
	}
}

func TestRunBuildsImpactOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	impact := &countingImpact{}
	w := &billWorker{
		queue:        &scriptedQueue{cancel: func() {}},
		impact:       impact,
		logger:       zerolog.Nop(),
		pollInterval: time.Millisecond,
		impactEvery:  time.Hour,
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for impact.calls.Load() == 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatal("impact reports never built")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
}
