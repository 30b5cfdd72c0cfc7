package optim

import (
	"github.com/born-ml/qweights/internal/nn"
	"github.com/born-ml/qweights/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum and
// optional weight clipping.
//
// Update rule:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Clip bounds the latent weights of binarized layers to [-Clip, Clip] after
// each step. With Clip = 1 weights never leave the estimator's pass-through
// window for good.
//
// Example:
//
//	opt := optim.NewSGD(layer.Parameters(), optim.SGDConfig{LR: 0.01, Clip: 1})
//	grads := autodiff.Backward(loss, backend)
//	opt.Step(grads)
type SGD[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	cfg        SGDConfig
	velocities map[*nn.Parameter[B]][]float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0, range: [0, 1))
	Clip     float32 // Weight clip bound; 0 disables clipping
}

// NewSGD creates a new SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], cfg SGDConfig) *SGD[B] {
	if cfg.LR == 0 {
		cfg.LR = 0.01
	}
	return &SGD[B]{
		params:     params,
		cfg:        cfg,
		velocities: make(map[*nn.Parameter[B]][]float32),
	}
}

// Step performs a single optimization step.
// Parameters with no gradient (not in the computational graph) are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		grad, ok := grads[param.Tensor().Raw()]
		if !ok {
			continue
		}
		s.update(param, param.Tensor().Data(), grad.AsFloat32())
	}
}

func (s *SGD[B]) update(param *nn.Parameter[B], w, g []float32) {
	step := g
	if s.cfg.Momentum != 0 {
		v, ok := s.velocities[param]
		if !ok {
			v = make([]float32, len(w))
			s.velocities[param] = v
		}
		for i := range v {
			v[i] = s.cfg.Momentum*v[i] + g[i]
		}
		step = v
	}

	for i := range w {
		w[i] -= s.cfg.LR * step[i]
		if s.cfg.Clip > 0 {
			w[i] = min(max(w[i], -s.cfg.Clip), s.cfg.Clip)
		}
	}
}

// ZeroGrad clears parameter gradients.
func (s *SGD[B]) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}
