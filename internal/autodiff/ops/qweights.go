package ops

import (
	"fmt"

	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/internal/tensor"
)

// QWeightsOp represents weight quantization: output = Q(w).
//
// Backward pass (straight-through estimator, any bit width):
//   - dQ/dw ≈ 1 where -1 <= w <= 1, else 0
//
// The backward rule only needs the forward input; the quantized output is
// kept for the tape's bookkeeping.
type QWeightsOp struct {
	input     *tensor.RawTensor // w
	output    *tensor.RawTensor // Q(w)
	quantizer *quant.Quantizer
}

// NewQWeightsOp creates a new QWeightsOp.
func NewQWeightsOp(input, output *tensor.RawTensor, q *quant.Quantizer) *QWeightsOp {
	return &QWeightsOp{
		input:     input,
		output:    output,
		quantizer: q,
	}
}

// Backward computes the input gradient with the quantizer's estimator.
func (op *QWeightsOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad, err := op.quantizer.Backward(outputGrad, op.input)
	if err != nil {
		panic(fmt.Sprintf("qweights: %v", err))
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns the input tensor [w].
func (op *QWeightsOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the quantized tensor.
func (op *QWeightsOp) Output() *tensor.RawTensor {
	return op.output
}

// Quantizer returns the quantizer the operation was recorded with.
func (op *QWeightsOp) Quantizer() *quant.Quantizer {
	return op.quantizer
}
