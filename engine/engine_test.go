package engine

import (
	"context"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/Tangerg/ivm/graph"
)

type countingJob struct {
	starts atomic.Int64
	stops  atomic.Int64
}

func (j *countingJob) Start(ctx context.Context) error {
	j.starts.Add(1)
	return nil
}

func (j *countingJob) Stop() error {
	j.stops.Add(1)
	return nil
}

func TestEngineRunStartsAndStopsJobsOnSignal(t *testing.T) {
	g := graph.NewGraph()
	if err := g.Finalize(); err != nil {
		t.Fatal(err)
	}
	job := &countingJob{}
	e := New(&Options{Graph: g, Jobs: []Job{job}})

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	if job.starts.Load() != 1 {
		t.Fatalf("expected Start called once, got %d", job.starts.Load())
	}

	e.stopChan <- syscall.SIGINT
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("engine did not stop after signal")
	}
	if job.stops.Load() != 1 {
		t.Fatalf("expected Stop called once, got %d", job.stops.Load())
	}
}

func TestNewJobWrapsCancellableFunc(t *testing.T) {
	started := make(chan struct{})
	j := NewJob(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	})
	if err := j.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := j.Stop(); err != nil {
		t.Fatal(err)
	}
}
