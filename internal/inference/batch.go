package inference

import (
	"errors"
	"fmt"
)

// rowShape is the shape of every input: one row, one column.
var rowShape = []int64{1, 1}

// Batch owns the input tensors of a single Run. Callers must Release it,
// usually with defer, whatever the outcome of the call.
type Batch struct {
	engine    *Engine
	values    map[string]Value
	allocated int
	released  int
	done      bool
}

func (b *Batch) AddString(name, value string) error {
	return b.add(name, func(rt Backend) (Value, error) {
		return rt.NewStringTensor(rowShape, []string{value})
	})
}

func (b *Batch) AddFloat(name string, value float32) error {
	return b.add(name, func(rt Backend) (Value, error) {
		return rt.NewFloatTensor(rowShape, []float32{value})
	})
}

func (b *Batch) add(name string, alloc func(Backend) (Value, error)) error {
	if b.done {
		return ErrBatchReleased
	}
	if _, ok := b.values[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateInput, name)
	}
	b.engine.mu.RLock()
	defer b.engine.mu.RUnlock()
	b.engine.mustBeReady("allocate tensor")

	v, err := alloc(b.engine.backend)
	if err != nil {
		return err
	}
	b.values[name] = v
	b.allocated++
	return nil
}

// Len returns the number of tensors currently held.
func (b *Batch) Len() int {
	return len(b.values)
}

// Stats reports how many tensors were allocated and released so far.
func (b *Batch) Stats() (allocated, released int) {
	return b.allocated, b.released
}

// ordered returns the held tensors in the order of names.
func (b *Batch) ordered(names []string) ([]Value, error) {
	if b.done {
		return nil, ErrBatchReleased
	}
	out := make([]Value, len(names))
	for i, name := range names {
		v, ok := b.values[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, name)
		}
		out[i] = v
	}
	return out, nil
}

// Release destroys every tensor in the batch. It is safe to call more than
// once; only the first call does any work.
func (b *Batch) Release() error {
	if b.done {
		return nil
	}
	b.done = true
	defer b.engine.batchReleased()
	var errs []error
	for name, v := range b.values {
		if err := v.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy %s: %w", name, err))
		}
		b.released++
		delete(b.values, name)
	}
	return errors.Join(errs...)
}
