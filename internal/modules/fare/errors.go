package fare

import "fmt"

// NormalizationError reports a client value that cannot be mapped onto the
// trained vocabulary.
type NormalizationError struct {
	Field string
	Value string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// EncodingError reports a failure to allocate one of the model input tensors.
type EncodingError struct {
	Input string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode input %s: %v", e.Input, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
