package inference

import (
	"os"
	"path/filepath"
	"testing"

	"digitpad/internal/config"
	"digitpad/processing/normalize"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	out    []float32
	err    error
	calls  int
	inputs [][]float32
	closed bool
}

func (f *fakeModel) Run(input []float32) ([]float32, error) {
	f.calls++
	f.inputs = append(f.inputs, append([]float32(nil), input...))
	if f.err != nil {
		return nil, f.err
	}
	return append([]float32(nil), f.out...), nil
}

func (f *fakeModel) Close() error {
	f.closed = true
	return nil
}

func blankTensor() normalize.Tensor {
	return normalize.Tensor{Shape: []int64{1, 28, 28, 1}, Data: make([]float32, 784)}
}

func TestPredictRanksTopThree(t *testing.T) {
	m := &fakeModel{out: []float32{0.1, 0, 0, 0, 0, 0, 0, 0, 0, 0.9}}
	a := NewAdapter(m, 10)

	p, err := a.Predict(blankTensor())
	require.NoError(t, err)

	assert.Equal(t, 9, p.Class)
	require.Len(t, p.Top, 3)
	assert.Equal(t, 9, p.Top[0].Class)
	assert.InDelta(t, 0.9, p.Top[0].Probability, 1e-6)
	assert.Equal(t, 0, p.Top[1].Class)
	assert.InDelta(t, 0.1, p.Top[1].Probability, 1e-6)
	assert.Equal(t, 1, p.Top[2].Class)
	assert.Zero(t, p.Top[2].Probability)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, m.calls)
}

func TestPredictPassesTensorThrough(t *testing.T) {
	m := &fakeModel{out: make([]float32, 10)}
	a := NewAdapter(m, 10)

	in := blankTensor()
	in.Data[5] = 0.75
	_, err := a.Predict(in)
	require.NoError(t, err)

	require.Len(t, m.inputs, 1)
	assert.Equal(t, in.Data, m.inputs[0])
}

func TestPredictUniformPicksLowestIndex(t *testing.T) {
	uniform := make([]float32, 10)
	for i := range uniform {
		uniform[i] = 0.1
	}
	a := NewAdapter(&fakeModel{out: uniform}, 10)

	p, err := a.Predict(blankTensor())
	require.NoError(t, err)

	assert.Equal(t, 0, p.Class)
	assert.Equal(t, []int{0, 1, 2}, []int{p.Top[0].Class, p.Top[1].Class, p.Top[2].Class})
}

func TestPredictRejectsBadInput(t *testing.T) {
	m := &fakeModel{out: make([]float32, 10)}
	a := NewAdapter(m, 10)

	_, err := a.Predict(normalize.Tensor{Shape: []int64{1, 28, 28, 1}, Data: make([]float32, 10)})

	assert.True(t, errors.Is(err, ErrBadInput))
	assert.Zero(t, m.calls)
}

func TestPredictRejectsBadOutput(t *testing.T) {
	a := NewAdapter(&fakeModel{out: []float32{1}}, 10)

	_, err := a.Predict(blankTensor())

	assert.True(t, errors.Is(err, ErrBadOutput))
}

func TestPredictPropagatesModelError(t *testing.T) {
	boom := errors.New("boom")
	a := NewAdapter(&fakeModel{err: boom}, 10)

	_, err := a.Predict(blankTensor())

	assert.ErrorIs(t, err, boom)
}

func TestUnloadedAdapter(t *testing.T) {
	reason := errors.New("file missing")
	a := NewAdapter(Unloaded{Reason: reason}, 10)

	assert.False(t, a.Available())
	assert.Equal(t, reason, a.Reason())

	_, err := a.Predict(blankTensor())
	assert.True(t, errors.Is(err, ErrModelUnavailable))
	assert.NoError(t, a.Close())
}

func TestNilModelIsUnloaded(t *testing.T) {
	a := NewAdapter(nil, 10)

	assert.False(t, a.Available())
	assert.True(t, errors.Is(a.Reason(), ErrModelUnavailable))
}

func TestLoadedAdapter(t *testing.T) {
	m := &fakeModel{}
	a := NewAdapter(m, 10)

	assert.True(t, a.Available())
	assert.NoError(t, a.Reason())
	require.NoError(t, a.Close())
	assert.True(t, m.closed)
}

func TestLoaded(t *testing.T) {
	assert.False(t, Loaded(nil))
	assert.False(t, Loaded(Unloaded{}))
	assert.True(t, Loaded(&fakeModel{}))
}

func TestOpenMissingFileIsUnloaded(t *testing.T) {
	cfg := config.NewDefaultConfig().Model
	cfg.Path = filepath.Join(t.TempDir(), "missing.onnx")

	m := Open(cfg, 28)

	assert.False(t, Loaded(m))
	_, err := m.Run(nil)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestLoadONNXMissingFile(t *testing.T) {
	cfg := config.NewDefaultConfig().Model
	cfg.Path = filepath.Join(t.TempDir(), "missing.onnx")

	_, err := LoadONNX(cfg, 28)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
	_, statErr := os.Stat(cfg.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadONNXFailureReleasesEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digits.onnx")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0644))

	inits, destroys := 0, 0
	origInitialized, origInit, origDestroy := envInitialized, initEnv, destroyEnv
	envInitialized = func() bool { return false }
	initEnv = func() error { inits++; return nil }
	destroyEnv = func() error { destroys++; return nil }
	t.Cleanup(func() {
		envInitialized, initEnv, destroyEnv = origInitialized, origInit, origDestroy
	})

	cfg := config.NewDefaultConfig().Model
	cfg.Path = path

	_, err := LoadONNX(cfg, 28)

	require.Error(t, err)
	assert.Equal(t, 1, inits)
	assert.Equal(t, 1, destroys)
}

func TestLoadONNXFailureKeepsSharedEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digits.onnx")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0644))

	destroys := 0
	origInitialized, origDestroy := envInitialized, destroyEnv
	envInitialized = func() bool { return true }
	destroyEnv = func() error { destroys++; return nil }
	t.Cleanup(func() {
		envInitialized, destroyEnv = origInitialized, origDestroy
	})

	cfg := config.NewDefaultConfig().Model
	cfg.Path = path

	_, err := LoadONNX(cfg, 28)

	require.Error(t, err)
	assert.Zero(t, destroys)
}
