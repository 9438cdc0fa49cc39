package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farcal/internal/inference"
	"farcal/internal/modules/fare"
)

type closeTracker struct {
	closed bool
}

func (c *closeTracker) NewStringTensor([]int64, []string) (inference.Value, error) {
	return nil, errors.New("unused")
}

func (c *closeTracker) NewFloatTensor([]int64, []float32) (inference.Value, error) {
	return nil, errors.New("unused")
}

func (c *closeTracker) Run([]inference.Value) (float64, error) { return 0, errors.New("unused") }
func (c *closeTracker) Inputs() []string                       { return fare.InputNames }
func (c *closeTracker) Outputs() []string                      { return []string{"variable"} }

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func modelPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fare.onnx")
	require.NoError(t, os.WriteFile(path, []byte("onnx"), 0o600))
	return path
}

func TestRun_MissingModel(t *testing.T) {
	t.Setenv("FARCAL_MODEL_PATH", filepath.Join(t.TempDir(), "missing.onnx"))

	err := run(func(inference.Options) (inference.Backend, error) {
		t.Fatal("loader must not run without an artifact")
		return nil, nil
	})
	assert.ErrorIs(t, err, inference.ErrModelNotFound)
}

func TestRun_ClosesModelWhenStartupFailsLater(t *testing.T) {
	t.Setenv("FARCAL_MODEL_PATH", modelPath(t))
	t.Setenv("FARCAL_HTTP_TRUSTED_PROXIES", "not-an-ip")
	backend := &closeTracker{}

	err := run(func(inference.Options) (inference.Backend, error) { return backend, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build router")
	assert.True(t, backend.closed, "engine must be closed on the error path")
}
