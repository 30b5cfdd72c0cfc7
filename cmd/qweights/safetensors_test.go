package main

import (
	"path/filepath"
	"testing"

	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/internal/serialization"
	"github.com/born-ml/qweights/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDict(t *testing.T, name string, tensors map[string]*tensor.RawTensor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, serialization.WriteFile(path, &serialization.StateDict{Tensors: tensors}))
	return path
}

func raw[T tensor.DType](t *testing.T, data []T, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.RawFromSlice(data, tensor.Shape(shape), tensor.CPU)
	require.NoError(t, err)
	return r
}

func TestForward_SafeTensors(t *testing.T) {
	in := writeDict(t, "model.safetensors", map[string]*tensor.RawTensor{
		"fc1.weight": raw(t, []float32{-2.0, 0.0, 0.3, 4.0}, 2, 2),
		"fc2.weight": raw(t, []float64{0.5, -0.5}, 2),
		"step":       raw(t, []int64{7}, 1),
	})
	out := filepath.Join(t.TempDir(), "binary.safetensors")

	_, stderr, err := runCLI(t, "forward", "--in", in, "--out", out, "--scaling", "scalar")
	require.NoError(t, err)
	assert.Contains(t, stderr, "skipping non-float tensor")

	sd, err := serialization.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []float32{-5, 0, 5, 5}, sd.Tensors["fc1.weight"].AsFloat32())
	assert.Equal(t, []float64{5, -5}, sd.Tensors["fc2.weight"].AsFloat64())
	assert.Equal(t, []int64{7}, sd.Tensors["step"].AsInt64())
	assert.Equal(t, "scalar", sd.Metadata[quant.KeyScalingMode])
	assert.Equal(t, "1", sd.Metadata[quant.KeyBitWidth])
}

func TestForward_SafeTensorsEmptyTensor(t *testing.T) {
	in := writeDict(t, "model.safetensors", map[string]*tensor.RawTensor{
		"empty": raw(t, []float32{}, 0, 8),
		"w":     raw(t, []float32{-0.1}, 1),
	})
	out := filepath.Join(t.TempDir(), "binary.safetensors")

	_, _, err := runCLI(t, "forward", "--in", in, "--out", out)
	require.NoError(t, err)

	sd, err := serialization.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{0, 8}, sd.Tensors["empty"].Shape())
	assert.Equal(t, []float32{-1}, sd.Tensors["w"].AsFloat32())
}

func TestForward_SafeTensorsNeedsFileOutput(t *testing.T) {
	in := writeDict(t, "model.safetensors", map[string]*tensor.RawTensor{"w": raw(t, []float32{1}, 1)})
	_, _, err := runCLI(t, "forward", "--in", in)
	require.Error(t, err)
}

func TestForward_SafeTensorsUnimplemented(t *testing.T) {
	in := writeDict(t, "model.safetensors", map[string]*tensor.RawTensor{"w": raw(t, []float32{1}, 1)})
	out := filepath.Join(t.TempDir(), "out.safetensors")
	_, _, err := runCLI(t, "forward", "--in", in, "--out", out, "--bits", "4")
	require.ErrorIs(t, err, quant.ErrUnimplemented)
	assert.NoFileExists(t, out)
}

func TestBackward_SafeTensors(t *testing.T) {
	x := writeDict(t, "x.safetensors", map[string]*tensor.RawTensor{
		"w":    raw(t, []float32{-2.0, 0.0, 0.3, 4.0}, 4),
		"step": raw(t, []int64{1}, 1),
	})
	g := writeDict(t, "g.safetensors", map[string]*tensor.RawTensor{
		"w":    raw(t, []float32{0.5, 0.5, 0.5, 0.5}, 4),
		"bias": raw(t, []float32{1}, 1),
	})
	out := filepath.Join(t.TempDir(), "dx.safetensors")

	_, stderr, err := runCLI(t, "backward", "--grad", g, "--input", x, "--out", out)
	require.NoError(t, err)
	assert.Regexp(t, `msg="skipping non-float tensor".* tensor=step`, stderr)
	assert.Regexp(t, `msg="skipping gradient without input".* tensor=bias`, stderr)

	sd, err := serialization.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"w"}, sd.Names())
	assert.Equal(t, []float32{0, 0.5, 0.5, 0}, sd.Tensors["w"].AsFloat32())

	missing := writeDict(t, "g2.safetensors", map[string]*tensor.RawTensor{"v": raw(t, []float32{1}, 1)})
	_, _, err = runCLI(t, "backward", "--grad", missing, "--input", x, "--out", out)
	require.Error(t, err)
}
