package nn

import (
	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/internal/tensor"
)

// QWeights is a parameter-free layer that quantizes its input.
//
// Example:
//
//	cfg, _ := quant.NewConfig(1, quant.ScalingNone)
//	layer, _ := nn.NewQWeights[Backend](cfg)
//	binarized, err := layer.Forward(weights) // values in {-1, 0, 1}
type QWeights[B tensor.Backend] struct {
	quantizer *quant.Quantizer
}

// NewQWeights creates a quantization layer. It fails only for bit widths
// outside [1, 32].
func NewQWeights[B tensor.Backend](cfg quant.Config, opts ...quant.Option) (*QWeights[B], error) {
	q, err := quant.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &QWeights[B]{quantizer: q}, nil
}

// Forward quantizes input. The result has the same shape.
func (l *QWeights[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	backend := input.Backend()
	out, err := quantize(backend, input.Raw(), l.quantizer)
	if err != nil {
		return nil, err
	}
	return tensor.New[float32, B](out, backend), nil
}

// Parameters returns nil (QWeights has no trainable parameters).
func (l *QWeights[B]) Parameters() []*Parameter[B] {
	return nil
}

// Quantizer returns the layer's quantizer.
func (l *QWeights[B]) Quantizer() *quant.Quantizer {
	return l.quantizer
}
