package nn

import (
	"math/rand"
	"testing"

	"github.com/born-ml/qweights/internal/autodiff"
	"github.com/born-ml/qweights/internal/backend/cpu"
	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

var (
	_ Module[Backend]         = (*QWeights[Backend])(nil)
	_ Module[Backend]         = (*QLinear[Backend])(nil)
	_ Module[*cpu.CPUBackend] = (*QLinear[*cpu.CPUBackend])(nil)
	_ QWeightsBackend         = (Backend)(nil)
)

func TestQWeights_Forward(t *testing.T) {
	backend := autodiff.New(cpu.New())
	layer, err := NewQWeights[Backend](quant.MustConfig(1, quant.ScalingScalar))
	require.NoError(t, err)
	assert.Nil(t, layer.Parameters())
	assert.Equal(t, uint(1), layer.Quantizer().Config().BitWidth())

	w, err := tensor.FromSlice([]float32{-2.0, 0.0, 0.3, 4.0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out, err := layer.Forward(w)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{-5, 0, 5, 5}, out.Data())
}

func TestQWeights_PlainBackend(t *testing.T) {
	backend := cpu.New()
	layer, err := NewQWeights[*cpu.CPUBackend](quant.MustConfig(32, quant.ScalingNone))
	require.NoError(t, err)

	w, err := tensor.FromSlice([]float32{1.5, -3.2}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	out, err := layer.Forward(w)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -3.2}, out.Data())
}

func TestQWeights_Errors(t *testing.T) {
	_, err := NewQWeights[Backend](quant.Config{})
	require.ErrorIs(t, err, quant.ErrConfig)

	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	layer, err := NewQWeights[Backend](quant.MustConfig(1, quant.ScalingChannelMean))
	require.NoError(t, err)

	out, err := layer.Forward(tensor.Ones[float32](tensor.Shape{3}, backend))
	require.ErrorIs(t, err, quant.ErrUnimplemented)
	assert.Nil(t, out)
	assert.Equal(t, 0, backend.Tape().NumOps())
}

func TestQWeights_BackwardThroughLayer(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	layer, err := NewQWeights[Backend](quant.MustConfig(1, quant.ScalingNone))
	require.NoError(t, err)
	w, err := tensor.FromSlice([]float32{-1, -1.01, 1, 1.01}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	out, err := layer.Forward(w)
	require.NoError(t, err)

	grads := autodiff.Backward(out, backend)
	assert.Equal(t, []float32{1, 0, 1, 0}, grads[w.Raw()].AsFloat32())
}

func TestNewQLinear_Validation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	backend := autodiff.New(cpu.New())

	_, err := NewQLinear(0, 3, quant.DefaultConfig(), rng, backend)
	require.Error(t, err)
	_, err = NewQLinear(2, 3, quant.Config{}, rng, backend)
	require.ErrorIs(t, err, quant.ErrConfig)

	layer, err := NewQLinear(4, 3, quant.DefaultConfig(), rng, backend)
	require.NoError(t, err)
	assert.Equal(t, 4, layer.InFeatures())
	assert.Equal(t, 3, layer.OutFeatures())
	assert.Equal(t, tensor.Shape{3, 4}, layer.Weight().Tensor().Shape())
	require.Len(t, layer.Parameters(), 1)

	for _, v := range layer.Weight().Tensor().Data() {
		assert.LessOrEqual(t, v, float32(1), "Xavier bound for 4x3 is below 1")
		assert.GreaterOrEqual(t, v, float32(-1))
	}
}

func TestQLinear_Forward(t *testing.T) {
	backend := cpu.New()
	layer, err := NewQLinear(2, 2, quant.MustConfig(1, quant.ScalingNone), rand.New(rand.NewSource(1)), backend)
	require.NoError(t, err)
	copy(layer.Weight().Tensor().Data(), []float32{0.3, -0.2, -0.7, 0.1})

	x, err := tensor.FromSlice([]float32{2, 3}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	// Q(W) = [[1,-1],[-1,1]]; y = x @ Q(W).T = [2-3, -2+3]
	y, err := layer.Forward(x)
	require.NoError(t, err)
	assert.Equal(t, []float32{-1, 1}, y.Data())

	qw, err := layer.QuantizedWeight()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -1, -1, 1}, qw.Data())

	_, err = layer.Forward(tensor.Ones[float32](tensor.Shape{1, 3}, backend))
	require.ErrorIs(t, err, quant.ErrShape)
}

func TestQLinear_UnimplementedBitWidth(t *testing.T) {
	backend := cpu.New()
	layer, err := NewQLinear(2, 2, quant.MustConfig(8, quant.ScalingNone), rand.New(rand.NewSource(1)), backend)
	require.NoError(t, err)

	_, err = layer.Forward(tensor.Ones[float32](tensor.Shape{1, 2}, backend))
	require.ErrorIs(t, err, quant.ErrUnimplemented)
}

// TestQLinear_LearnsBinaryWeights trains latent weights toward a binary target
// through the straight-through estimator.
func TestQLinear_LearnsBinaryWeights(t *testing.T) {
	backend := autodiff.New(cpu.New())
	layer, err := NewQLinear(2, 1, quant.MustConfig(1, quant.ScalingNone), rand.New(rand.NewSource(42)), backend)
	require.NoError(t, err)

	x, err := tensor.FromSlice([]float32{1, 0, 0, 1, 1, 1, 1, -1}, tensor.Shape{4, 2}, backend)
	require.NoError(t, err)
	target := []float32{1, -1, 0, 2} // x @ [1, -1]

	const lr = 0.1
	w := layer.Weight().Tensor()
	copy(w.Data(), []float32{-0.5, 0.5}) // both signs wrong, inside the pass-through window
	for step := range 5 {
		backend.Tape().Clear()
		backend.Tape().StartRecording()

		y, err := layer.Forward(x)
		require.NoError(t, err)

		// d(0.5 * ||y - t||²)/dy = y - t
		residual := make([]float32, len(target))
		for i, v := range y.Data() {
			residual[i] = v - target[i]
		}
		seed, err := tensor.RawFromSlice(residual, y.Shape(), tensor.CPU)
		require.NoError(t, err)

		grads := backend.Tape().Backward(seed, backend)
		CollectGrads(layer.Parameters(), grads, backend)
		require.NotNil(t, layer.Weight().Grad())

		if step == 0 {
			assert.Equal(t, []float32{-6, 6}, layer.Weight().Grad().Data())
		}
		data := w.Data()
		for i, g := range layer.Weight().Grad().Data() {
			data[i] = min(max(data[i]-lr*g, -1), 1)
		}
	}

	qw, err := layer.QuantizedWeight()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -1}, qw.Data())
}

func TestCollectGrads_MissingParam(t *testing.T) {
	backend := cpu.New()
	p := NewParameter("w", tensor.Ones[float32](tensor.Shape{1}, backend))
	p.SetGrad(p.Tensor())
	CollectGrads([]*Parameter[*cpu.CPUBackend]{p}, nil, backend)
	assert.Nil(t, p.Grad())
	assert.Equal(t, "w", p.Name())
}
