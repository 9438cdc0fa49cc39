package inference

import (
	"errors"
	"fmt"
)

var (
	ErrModelNotFound  = errors.New("model artifact not found")
	ErrSignature      = errors.New("model signature mismatch")
	ErrDuplicateInput = errors.New("duplicate input")
	ErrMissingInput   = errors.New("missing input")
	ErrBatchReleased  = errors.New("batch already released")
	ErrEmptyOutput    = errors.New("model returned an empty output")
)

// RunError wraps any failure of a single forward pass.
type RunError struct {
	Err error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("inference run: %v", e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
