// Package nn implements neural network layers with quantized weights.
//
// This package provides:
//   - Module interface: Base interface for all layers
//   - Parameter: Trainable full-precision tensors
//   - QWeights: stand-alone weight quantization layer
//   - QLinear: fully connected layer whose weight is quantized on every forward pass
//
// Layers keep full-precision weights and quantize them in Forward. When the
// backend is an autodiff.AutodiffBackend the quantization is recorded, so
// gradients reach the full-precision weights through the straight-through
// estimator.
package nn

import (
	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Forward returns an error because quantization can fail for configurations
// that validate but have no kernel (see quant.Config.Supported).
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error)

	// Parameters returns all trainable parameters of this module.
	Parameters() []*Parameter[B]
}

// QWeightsBackend is implemented by backends that record weight quantization
// for gradient computation (autodiff.AutodiffBackend).
type QWeightsBackend interface {
	QWeights(w *tensor.RawTensor, q *quant.Quantizer) (*tensor.RawTensor, error)
}

// quantize runs q on w through the backend if it records quantization, and
// directly otherwise.
func quantize[B tensor.Backend](backend B, w *tensor.RawTensor, q *quant.Quantizer) (*tensor.RawTensor, error) {
	if qb, ok := any(backend).(QWeightsBackend); ok {
		return qb.QWeights(w, q)
	}
	return q.Forward(w)
}
