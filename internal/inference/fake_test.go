package inference

import (
	"errors"
	"sync"
)

type fakeTensor struct {
	backend *fakeBackend
	name    string
}

func (t *fakeTensor) Destroy() error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	t.backend.released++
	return nil
}

// fakeBackend counts tensor allocations and releases.
type fakeBackend struct {
	mu        sync.Mutex
	inputs    []string
	outputs   []string
	result    float64
	runErr    error
	failAfter int // fail the n-th allocation (1-based), 0 never
	allocated int
	released  int
	runs      int
	closed    bool
}

func newFakeBackend(inputs ...string) *fakeBackend {
	return &fakeBackend{inputs: inputs, outputs: []string{"variable"}, result: 2346}
}

func (b *fakeBackend) alloc(name string) (Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAfter > 0 && b.allocated+1 == b.failAfter {
		return nil, errors.New("out of memory")
	}
	b.allocated++
	return &fakeTensor{backend: b, name: name}, nil
}

func (b *fakeBackend) NewStringTensor(shape []int64, data []string) (Value, error) {
	return b.alloc(data[0])
}

func (b *fakeBackend) NewFloatTensor(shape []int64, data []float32) (Value, error) {
	return b.alloc("float")
}

func (b *fakeBackend) Run(inputs []Value) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runs++
	if b.runErr != nil {
		return 0, b.runErr
	}
	return b.result, nil
}

func (b *fakeBackend) Inputs() []string  { return b.inputs }
func (b *fakeBackend) Outputs() []string { return b.outputs }

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBackend) counts() (allocated, released int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allocated, b.released
}

func (b *fakeBackend) loader() Loader {
	return func(Options) (Backend, error) { return b, nil }
}
