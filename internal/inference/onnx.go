package inference

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

// onnxBackend runs an exported model through ONNX Runtime. A
// DynamicAdvancedSession accepts per-call inputs and outputs, so one session
// serves concurrent runs.
type onnxBackend struct {
	session *ort.DynamicAdvancedSession
	inputs  []string
	outputs []string
}

// LoadONNX initializes the ONNX Runtime environment and opens a session on
// opts.Path. It is the production Loader.
func LoadONNX(opts Options) (Backend, error) {
	if opts.RuntimeLibrary != "" {
		ort.SetSharedLibraryPath(opts.RuntimeLibrary)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	inInfo, outInfo, err := ort.GetInputOutputInfo(opts.Path)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("read model metadata: %w", err), ort.DestroyEnvironment())
	}
	inputs := make([]string, len(inInfo))
	for i, info := range inInfo {
		inputs[i] = info.Name
	}
	outputs := make([]string, len(outInfo))
	for i, info := range outInfo {
		outputs[i] = info.Name
	}
	if err := checkSignature(opts.Inputs, inputs, outputs); err != nil {
		return nil, errors.Join(err, ort.DestroyEnvironment())
	}

	// Only the first output carries the estimate; skip allocating the rest.
	session, err := ort.NewDynamicAdvancedSession(opts.Path, opts.Inputs, outputs[:1], nil)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create session: %w", err), ort.DestroyEnvironment())
	}
	return &onnxBackend{session: session, inputs: inputs, outputs: outputs}, nil
}

func (b *onnxBackend) Inputs() []string  { return b.inputs }
func (b *onnxBackend) Outputs() []string { return b.outputs }

func (b *onnxBackend) NewStringTensor(shape []int64, data []string) (Value, error) {
	t, err := ort.NewStringTensor(ort.NewShape(shape...))
	if err != nil {
		return nil, err
	}
	if err := t.SetContents(data); err != nil {
		return nil, errors.Join(err, t.Destroy())
	}
	return t, nil
}

func (b *onnxBackend) NewFloatTensor(shape []int64, data []float32) (Value, error) {
	t, err := ort.NewTensor(ort.NewShape(shape...), data)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (b *onnxBackend) Run(inputs []Value) (float64, error) {
	values := make([]ort.Value, len(inputs))
	for i, in := range inputs {
		v, ok := in.(ort.Value)
		if !ok {
			return 0, fmt.Errorf("input %d is %T, not an onnxruntime value", i, in)
		}
		values[i] = v
	}

	// A nil output is allocated by the runtime and must be destroyed here.
	outputs := []ort.Value{nil}
	defer destroyValues(outputs)
	if err := b.session.Run(values, outputs); err != nil {
		return 0, err
	}
	return firstElement(outputs[0])
}

func (b *onnxBackend) Close() error {
	return errors.Join(b.session.Destroy(), ort.DestroyEnvironment())
}

func firstElement(v ort.Value) (float64, error) {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		if data := t.GetData(); len(data) > 0 {
			return float64(data[0]), nil
		}
	case *ort.Tensor[float64]:
		if data := t.GetData(); len(data) > 0 {
			return data[0], nil
		}
	case *ort.Tensor[int64]:
		if data := t.GetData(); len(data) > 0 {
			return float64(data[0]), nil
		}
	default:
		return 0, fmt.Errorf("unsupported output type %T", v)
	}
	return 0, ErrEmptyOutput
}

func destroyValues(values []ort.Value) {
	for i, v := range values {
		if v == nil {
			continue
		}
		if err := v.Destroy(); err != nil {
			log.Error().Err(err).Int("output", i).Msg("releasing output tensor")
		}
	}
}
