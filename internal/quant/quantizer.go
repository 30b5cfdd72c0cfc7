// Package quant implements the weight quantization transform of a binarized
// layer: a forward rule that maps weights to {-s, 0, +s} (or passes them through
// at 32 bit) and a backward rule that approximates the gradient with a clipped
// straight-through estimator.
//
// Both directions are elementwise and stateless. A Quantizer only holds its
// Config and the parallel execution settings, so one instance can be shared by
// any number of goroutines.
//
// Example:
//
//	cfg, _ := quant.NewConfig(1, quant.ScalingScalar)
//	q, _ := quant.New(cfg)
//	out, err := q.Forward(weights)            // {-5, 0, 5}
//	grad, err := q.Backward(outGrad, weights) // outGrad where |w| <= 1
package quant

import (
	"github.com/born-ml/qweights/internal/parallel"
	"github.com/born-ml/qweights/internal/tensor"
)

// Quantizer applies a Config to tensors.
type Quantizer struct {
	cfg Config
	par parallel.Config
}

// Option configures a Quantizer.
type Option func(*Quantizer)

// WithParallel sets how kernels split work across goroutines.
// The default is parallel.DefaultConfig().
func WithParallel(cfg parallel.Config) Option {
	return func(q *Quantizer) {
		q.par = cfg
	}
}

// New creates a Quantizer. It returns a *ConfigError if the bit width is
// outside [1, 32]; unsupported widths inside the range are reported by Forward.
func New(cfg Config, opts ...Option) (*Quantizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	q := &Quantizer{
		cfg: cfg,
		par: parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Config returns the quantizer's configuration.
func (q *Quantizer) Config() Config {
	return q.cfg
}

// ScalingFactor returns the multiplier used for binarization:
// 1 for ScalingNone, 5 for ScalingScalar. ScalingChannelMean is unimplemented.
func (q *Quantizer) ScalingFactor() (float64, error) {
	switch q.cfg.scaling {
	case ScalingScalar:
		return scalarScale, nil
	case ScalingChannelMean:
		return 0, errChannelMean
	default:
		return 1, nil
	}
}

// Forward quantizes input into a newly allocated tensor of the same shape
// and dtype. No tensor is allocated when an error is returned.
func (q *Quantizer) Forward(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := checkFloat("forward", input); err != nil {
		return nil, err
	}
	if err := q.cfg.Supported(); err != nil {
		return nil, err
	}
	out := tensor.NewRawLike(input)
	q.forward(out, input)
	return out, nil
}

// ForwardInto quantizes input into the caller-allocated out.
// out may be input itself for in-place quantization. On error out is untouched.
func (q *Quantizer) ForwardInto(out, input *tensor.RawTensor) error {
	if err := checkFloat("forward", input); err != nil {
		return err
	}
	if err := checkLayout("forward", "output", input, out); err != nil {
		return err
	}
	if err := q.cfg.Supported(); err != nil {
		return err
	}
	q.forward(out, input)
	return nil
}

// Backward computes the gradient with respect to the forward input:
// outGrad where -1 <= forwardInput <= 1, and 0 elsewhere. The rule is the
// same for every bit width.
func (q *Quantizer) Backward(outGrad, forwardInput *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := q.checkBackward(outGrad, forwardInput); err != nil {
		return nil, err
	}
	inGrad := tensor.NewRawLike(forwardInput)
	q.backward(inGrad, outGrad, forwardInput)
	return inGrad, nil
}

// BackwardInto writes the input gradient into the caller-allocated inGrad,
// which may be outGrad itself. On error inGrad is untouched.
func (q *Quantizer) BackwardInto(inGrad, outGrad, forwardInput *tensor.RawTensor) error {
	if err := q.checkBackward(outGrad, forwardInput); err != nil {
		return err
	}
	if err := checkLayout("backward", "input gradient", forwardInput, inGrad); err != nil {
		return err
	}
	q.backward(inGrad, outGrad, forwardInput)
	return nil
}

func (q *Quantizer) checkBackward(outGrad, forwardInput *tensor.RawTensor) error {
	if err := checkFloat("backward", forwardInput); err != nil {
		return err
	}
	return checkLayout("backward", "output gradient", forwardInput, outGrad)
}

// forward dispatches on dtype. Layout and support checks have already passed.
func (q *Quantizer) forward(out, input *tensor.RawTensor) {
	switch input.DType() {
	case tensor.Float32:
		forwardSlice(q, out.AsFloat32(), input.AsFloat32())
	case tensor.Float64:
		forwardSlice(q, out.AsFloat64(), input.AsFloat64())
	}
}

func (q *Quantizer) backward(inGrad, outGrad, forwardInput *tensor.RawTensor) {
	switch forwardInput.DType() {
	case tensor.Float32:
		backwardSlice(q, inGrad.AsFloat32(), outGrad.AsFloat32(), forwardInput.AsFloat32())
	case tensor.Float64:
		backwardSlice(q, inGrad.AsFloat64(), outGrad.AsFloat64(), forwardInput.AsFloat64())
	}
}

// ForwardSlice quantizes src into dst using q's configuration.
// dst and src must have equal length; dst may alias src.
func ForwardSlice[T tensor.Float](q *Quantizer, dst, src []T) error {
	if len(dst) != len(src) {
		return &ShapeError{Op: "forward", Operand: "output", Want: tensor.Shape{len(src)}, Got: tensor.Shape{len(dst)}}
	}
	if err := q.cfg.Supported(); err != nil {
		return err
	}
	forwardSlice(q, dst, src)
	return nil
}

// BackwardSlice writes the straight-through gradient into dst.
// All three slices must have equal length; dst may alias grad.
func BackwardSlice[T tensor.Float](q *Quantizer, dst, grad, x []T) error {
	if len(grad) != len(x) {
		return &ShapeError{Op: "backward", Operand: "output gradient", Want: tensor.Shape{len(x)}, Got: tensor.Shape{len(grad)}}
	}
	if len(dst) != len(x) {
		return &ShapeError{Op: "backward", Operand: "input gradient", Want: tensor.Shape{len(x)}, Got: tensor.Shape{len(dst)}}
	}
	backwardSlice(q, dst, grad, x)
	return nil
}

func forwardSlice[T tensor.Float](q *Quantizer, dst, src []T) {
	if q.cfg.bitWidth == BitsFullPrecision {
		parallel.ForRange(len(src), func(s, e int) {
			Passthrough(dst[s:e], src[s:e])
		}, q.par)
		return
	}

	// Supported() has ruled out ChannelMean.
	scale, _ := q.ScalingFactor()
	parallel.ForRange(len(src), func(s, e int) {
		Binarize(dst[s:e], src[s:e], T(scale))
	}, q.par)
}

func backwardSlice[T tensor.Float](q *Quantizer, dst, grad, x []T) {
	parallel.ForRange(len(x), func(s, e int) {
		STEGrad(dst[s:e], grad[s:e], x[s:e])
	}, q.par)
}
