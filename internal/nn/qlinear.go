package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/internal/tensor"
)

// QLinear is a fully connected layer with quantized weights.
//
// Performs: y = x @ Q(W).T
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the full-precision weight matrix with shape [out_features, in_features]
//   - Q is the configured weight quantizer
//   - y is the output tensor with shape [batch_size, out_features]
//
// There is no bias; binarized layers are usually followed by batch norm.
type QLinear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	quantizer   *quant.Quantizer
	backend     B
}

// NewQLinear creates a QLinear layer with Xavier-initialized weights.
func NewQLinear[B tensor.Backend](inFeatures, outFeatures int, cfg quant.Config, rng *rand.Rand, backend B) (*QLinear[B], error) {
	if inFeatures <= 0 || outFeatures <= 0 {
		return nil, fmt.Errorf("qlinear: invalid features in=%d out=%d", inFeatures, outFeatures)
	}
	q, err := quant.New(cfg)
	if err != nil {
		return nil, err
	}
	w := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, rng, backend)
	return &QLinear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", w),
		quantizer:   q,
		backend:     backend,
	}, nil
}

// Forward computes x @ Q(W).T.
func (l *QLinear[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		return nil, fmt.Errorf("qlinear: %w: input shape %v, want [batch, %d]", quant.ErrShape, shape, l.inFeatures)
	}

	qw, err := quantize(l.backend, l.weight.Tensor().Raw(), l.quantizer)
	if err != nil {
		return nil, fmt.Errorf("qlinear: %w", err)
	}

	wT := l.backend.Transpose(qw, 1, 0)
	out := l.backend.MatMul(input.Raw(), wT)
	return tensor.New[float32, B](out, l.backend), nil
}

// Parameters returns [weight].
func (l *QLinear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight}
}

// Weight returns the full-precision weight parameter.
func (l *QLinear[B]) Weight() *Parameter[B] {
	return l.weight
}

// QuantizedWeight returns Q(W) without recording it on any tape.
func (l *QLinear[B]) QuantizedWeight() (*tensor.Tensor[float32, B], error) {
	qw, err := l.quantizer.Forward(l.weight.Tensor().Raw())
	if err != nil {
		return nil, err
	}
	return tensor.New[float32, B](qw, l.backend), nil
}

// InFeatures returns the input feature count.
func (l *QLinear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output feature count.
func (l *QLinear[B]) OutFeatures() int {
	return l.outFeatures
}
