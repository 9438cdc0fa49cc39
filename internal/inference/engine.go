// README: Inference engine lifecycle (unloaded -> ready -> closed) around a model runtime.
package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// Value is a native tensor handle owned by the caller that created it.
type Value interface {
	Destroy() error
}

// Backend is a loaded model plus the runtime able to execute it.
type Backend interface {
	NewStringTensor(shape []int64, data []string) (Value, error)
	NewFloatTensor(shape []int64, data []float32) (Value, error)
	// Run executes the graph with inputs ordered as Options.Inputs and
	// returns the first element of the first output.
	Run(inputs []Value) (float64, error)
	// Inputs and Outputs are the names declared by the model artifact.
	Inputs() []string
	Outputs() []string
	Close() error
}

// Loader opens a Backend for the given options.
type Loader func(opts Options) (Backend, error)

type Options struct {
	Path           string
	RuntimeLibrary string
	// Inputs lists the inputs the caller feeds, in graph order.
	Inputs []string
	// ModelType is a label reported by Info.
	ModelType string
	// MaxConcurrentRuns caps in-flight runs; zero means unbounded.
	MaxConcurrentRuns int64
}

type State int32

const (
	StateUnloaded State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ModelInfo describes the loaded artifact.
type ModelInfo struct {
	Loaded  bool
	Path    string
	Type    string
	Inputs  []string
	Outputs []string
}

// Engine is safe for concurrent use once Open has returned. Runs share a read
// lock; Close takes the write lock and then waits until every batch handed
// out by NewBatch has been released.
type Engine struct {
	mu      sync.RWMutex
	state   State
	backend Backend
	opts    Options
	sem     *semaphore.Weighted

	// live counts unreleased batches. idle is signalled, with mu read-held,
	// when it drops to zero.
	live atomic.Int64
	idle *sync.Cond
}

// Open loads the model and returns a ready engine. Any error here means the
// service must not start.
func Open(opts Options, load Loader) (*Engine, error) {
	if opts.Path == "" {
		return nil, errors.New("inference: model path is required")
	}
	if len(opts.Inputs) == 0 {
		return nil, errors.New("inference: no model inputs configured")
	}
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelNotFound, opts.Path, err)
	}

	backend, err := load(opts)
	if err != nil {
		return nil, fmt.Errorf("inference: load %s: %w", opts.Path, err)
	}
	if err := checkSignature(opts.Inputs, backend.Inputs(), backend.Outputs()); err != nil {
		if cerr := backend.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("closing rejected model backend")
		}
		return nil, fmt.Errorf("inference: %s: %w", opts.Path, err)
	}

	e := &Engine{state: StateReady, backend: backend, opts: opts}
	e.idle = sync.NewCond(&e.mu)
	if opts.MaxConcurrentRuns > 0 {
		e.sem = semaphore.NewWeighted(opts.MaxConcurrentRuns)
	}
	log.Info().
		Str("path", opts.Path).
		Strs("inputs", backend.Inputs()).
		Strs("outputs", backend.Outputs()).
		Msg("model loaded")
	return e, nil
}

// checkSignature verifies the artifact declares every input we feed and at
// least one output.
func checkSignature(required, declared, outputs []string) error {
	var missing []string
	for _, name := range required {
		if !slices.Contains(declared, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: inputs %v not declared by model", ErrSignature, missing)
	}
	if len(outputs) == 0 {
		return fmt.Errorf("%w: model declares no outputs", ErrSignature)
	}
	return nil
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) Ready() bool {
	return e.State() == StateReady
}

func (e *Engine) Info() ModelInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	info := ModelInfo{
		Loaded: e.state == StateReady,
		Path:   e.opts.Path,
		Type:   e.opts.ModelType,
		Inputs: slices.Clone(e.opts.Inputs),
	}
	if e.backend != nil {
		info.Outputs = slices.Clone(e.backend.Outputs())
	}
	return info
}

// NewBatch returns an empty batch bound to this engine.
func (e *Engine) NewBatch() *Batch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.mustBeReady("new batch")
	e.live.Add(1)
	return &Batch{engine: e, values: make(map[string]Value, len(e.opts.Inputs))}
}

// batchReleased is called once per batch by Batch.Release.
func (e *Engine) batchReleased() {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.live.Add(-1) == 0 {
		e.idle.Broadcast()
	}
}

// Run executes one forward pass. The batch stays owned by the caller.
func (e *Engine) Run(ctx context.Context, b *Batch) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.mustBeReady("run")

	if b.engine != e {
		return 0, &RunError{Err: errors.New("batch belongs to another engine")}
	}
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return 0, &RunError{Err: err}
		}
		defer e.sem.Release(1)
	}

	inputs, err := b.ordered(e.opts.Inputs)
	if err != nil {
		return 0, &RunError{Err: err}
	}
	out, err := e.backend.Run(inputs)
	if err != nil {
		return 0, &RunError{Err: err}
	}
	return out, nil
}

// Close releases the session and runtime environment once no batch is live.
// Batches may still be created and run while it waits. Later calls are no-ops.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.state == StateReady && e.live.Load() > 0 {
		e.idle.Wait()
	}
	if e.state != StateReady {
		return nil
	}
	e.state = StateClosed
	if err := e.backend.Close(); err != nil {
		return fmt.Errorf("inference: close: %w", err)
	}
	log.Info().Str("path", e.opts.Path).Msg("model unloaded")
	return nil
}

// mustBeReady panics outside the ready state: using an engine that is not
// open, or already closed, is a programming error. Callers hold e.mu.
func (e *Engine) mustBeReady(op string) {
	if e.state != StateReady {
		panic(fmt.Sprintf("inference: %s on %s engine", op, e.state))
	}
}
