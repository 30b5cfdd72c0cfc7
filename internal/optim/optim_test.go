package optim

import (
	"testing"

	"github.com/born-ml/qweights/internal/backend/cpu"
	"github.com/born-ml/qweights/internal/nn"
	"github.com/born-ml/qweights/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Optimizer = (*SGD[*cpu.CPUBackend])(nil)

func newParam(t *testing.T, data []float32) *nn.Parameter[*cpu.CPUBackend] {
	t.Helper()
	w, err := tensor.FromSlice(data, tensor.Shape{len(data)}, cpu.New())
	require.NoError(t, err)
	return nn.NewParameter("w", w)
}

func gradFor(t *testing.T, p *nn.Parameter[*cpu.CPUBackend], g []float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	raw, err := tensor.RawFromSlice(g, tensor.Shape{len(g)}, tensor.CPU)
	require.NoError(t, err)
	return map[*tensor.RawTensor]*tensor.RawTensor{p.Tensor().Raw(): raw}
}

func TestSGD_Step(t *testing.T) {
	p := newParam(t, []float32{1, 2})
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.5})

	opt.Step(gradFor(t, p, []float32{1, -2}))
	assert.InDeltaSlice(t, []float32{0.5, 3}, p.Tensor().Data(), 1e-6)
}

func TestSGD_Momentum(t *testing.T) {
	p := newParam(t, []float32{0})
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 1, Momentum: 0.5})

	opt.Step(gradFor(t, p, []float32{1})) // v=1, w=-1
	opt.Step(gradFor(t, p, []float32{1})) // v=1.5, w=-2.5
	assert.InDelta(t, -2.5, p.Tensor().Data()[0], 1e-6)
}

func TestSGD_Clip(t *testing.T) {
	p := newParam(t, []float32{0.9, -0.9})
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 1, Clip: 1})

	opt.Step(gradFor(t, p, []float32{-5, 5}))
	assert.Equal(t, []float32{1, -1}, p.Tensor().Data())
}

func TestSGD_SkipsMissingGrad(t *testing.T) {
	p := newParam(t, []float32{3})
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{})

	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{})
	assert.Equal(t, []float32{3}, p.Tensor().Data())

	p.SetGrad(p.Tensor())
	opt.ZeroGrad()
	assert.Nil(t, p.Grad())
}
