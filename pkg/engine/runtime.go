package engine

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/chazu/vellum/pkg/appio"
	"github.com/chazu/vellum/pkg/logging"
)

var (
	// ErrRuntimeClosed is delivered for requests made after Close.
	ErrRuntimeClosed = errors.New("runtime closed")
	// ErrSuperseded is delivered for a request overtaken by a newer one.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// Update is the outcome of a request to a Runtime.
type Update struct {
	Generation uint64
	Result     *Result
	Err        error
}

type job struct {
	ctx   context.Context
	gen   uint64
	proto *ProtoNetwork
	req   Request
	out   chan Update
}

// Runtime owns an executor and the execution environment and runs passes
// on a single worker goroutine. Evaluate never blocks the caller: only
// the newest pending request is run, and results of requests overtaken by
// a newer one are discarded with ErrSuperseded. ReplaceEnvironment is the
// one call that waits, for the pass in flight to finish.
type Runtime struct {
	exec *Executor
	sem  *semaphore.Weighted

	mu         sync.Mutex
	env        *appio.Environment
	generation uint64
	pending    *job
	closed     bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// NewRuntime starts a runtime. A nil env is replaced with
// appio.NewEnvironment().
func NewRuntime(exec *Executor, env *appio.Environment) *Runtime {
	if env == nil {
		env = appio.NewEnvironment()
	}
	r := &Runtime{
		exec: exec,
		sem:  semaphore.NewWeighted(1),
		env:  env,
		wake: make(chan struct{}, 1),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

// Environment returns the current execution environment.
func (r *Runtime) Environment() *appio.Environment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.env
}

// Executor returns the executor the runtime drives.
func (r *Runtime) Executor() *Executor { return r.exec }

// Evaluate queues a pass of p and returns a channel that receives exactly
// one Update.
func (r *Runtime) Evaluate(ctx context.Context, p *ProtoNetwork, req Request) <-chan Update {
	out := make(chan Update, 1)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		out <- Update{Err: ErrRuntimeClosed}
		close(out)
		return out
	}
	r.generation++
	j := &job{ctx: ctx, gen: r.generation, proto: p, req: req, out: out}
	stale := r.pending
	r.pending = j
	r.mu.Unlock()

	if stale != nil {
		logging.Logger().Warn("stale evaluation discarded", "generation", stale.gen)
		stale.finish(Update{Generation: stale.gen, Err: ErrSuperseded})
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}
	return out
}

// ReplaceEnvironment waits for the pass in flight, swaps the environment
// and clears the memo cache so no result computed against the old
// environment is reused.
func (r *Runtime) ReplaceEnvironment(ctx context.Context, env *appio.Environment) error {
	if env == nil {
		return errors.New("replace environment: nil environment")
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)

	r.mu.Lock()
	r.env = env
	r.mu.Unlock()
	r.exec.Cache().Clear()
	io := "none"
	if env.IO != nil {
		io = env.IO.Name()
	}
	logging.Logger().Info("environment replaced", "io", io, "gpu", env.HasGPU())
	return nil
}

// Close stops the worker. Pending requests receive ErrRuntimeClosed.
func (r *Runtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	pending := r.pending
	r.pending = nil
	r.mu.Unlock()

	if pending != nil {
		pending.finish(Update{Generation: pending.gen, Err: ErrRuntimeClosed})
	}
	close(r.quit)
	<-r.done
}

func (r *Runtime) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			return
		case <-r.wake:
		}

		r.mu.Lock()
		j := r.pending
		r.pending = nil
		r.mu.Unlock()
		if j != nil {
			r.run(j)
		}
	}
}

func (r *Runtime) run(j *job) {
	if err := r.sem.Acquire(j.ctx, 1); err != nil {
		j.finish(Update{Generation: j.gen, Err: err})
		return
	}
	env := r.Environment()
	res, err := r.exec.Evaluate(j.ctx, env, j.proto, j.req)
	r.sem.Release(1)

	r.mu.Lock()
	current := r.generation
	r.mu.Unlock()
	if j.gen != current {
		logging.Logger().Warn("stale evaluation result discarded", "generation", j.gen, "current", current)
		j.finish(Update{Generation: j.gen, Err: ErrSuperseded})
		return
	}
	j.finish(Update{Generation: j.gen, Result: res, Err: err})
}

func (j *job) finish(u Update) {
	j.out <- u
	close(j.out)
}
