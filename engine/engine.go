package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tangerg/ivm/graph"
)

// Options configures an Engine.
type Options struct {
	Graph *graph.Graph
	Jobs  []Job
}

// Engine owns a graph.Graph plus the Jobs (schedule.Drivers, ingest.Sources)
// that feed and step it, and runs them until asked to stop.
type Engine struct {
	graph    *graph.Graph
	jobs     []Job
	stopChan chan os.Signal
}

// New builds an Engine from opt. opt.Graph must already be finalised
// (graph.Graph.Finalize) before Start is called.
func New(opt *Options) *Engine {
	return &Engine{
		graph:    opt.Graph,
		jobs:     opt.Jobs,
		stopChan: make(chan os.Signal, 1),
	}
}

// Graph returns the engine's graph, for callers that need to send data or
// drain readers directly.
func (e *Engine) Graph() *graph.Graph { return e.graph }

func (e *Engine) start(ctx context.Context) error {
	slog.Info("engine starting")
	errs := make([]error, 0, len(e.jobs))
	for _, j := range e.jobs {
		errs = append(errs, j.Start(ctx))
	}
	return errors.Join(errs...)
}

// wait blocks until a termination signal arrives.
func (e *Engine) wait() {
	signal.Notify(e.stopChan, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	<-e.stopChan
	close(e.stopChan)
}

func (e *Engine) stop() error {
	slog.Info("engine stopping")
	errs := make([]error, 0, len(e.jobs))
	for _, j := range e.jobs {
		errs = append(errs, j.Stop())
	}
	return errors.Join(errs...)
}

// Run starts every job, blocks until a termination signal arrives, then
// stops every job in turn.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.start(ctx); err != nil {
		return err
	}
	e.wait()
	return e.stop()
}
