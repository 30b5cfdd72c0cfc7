// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and records every
// operation on a GradientTape. Weight quantization is recorded like any other
// operation, so gradients reach full-precision weights through the
// straight-through estimator.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	qw, err := backend.QWeights(w.Raw(), quantizer) // forward: binarize
//	y := backend.MatMul(x.Raw(), qw)
//
//	grads := backend.Tape().Backward(ones, backend)
//	dw := grads[w.Raw()] // dL/dw via the straight-through estimator
package autodiff

import (
	"github.com/born-ml/qweights/internal/autodiff/ops"
	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(a, c)
	b.tape.Record(ops.NewAddOp(a, c, result))
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(a, c)
	b.tape.Record(ops.NewMulOp(a, c, result))
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(a, c)
	b.tape.Record(ops.NewMatMulOp(a, c, result))
	return result
}

// Transpose transposes a 2D tensor and records the operation.
//
// The CPU backend copies data, so the result is a new tensor. Recording keeps
// the gradient flowing back to the original tensor.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	result := b.inner.Transpose(t, axes...)
	b.tape.Record(ops.NewTransposeOp(t, result))
	return result
}

// QWeights quantizes w with q and records the operation.
// Errors from the quantizer are returned before anything is recorded.
func (b *AutodiffBackend[B]) QWeights(w *tensor.RawTensor, q *quant.Quantizer) (*tensor.RawTensor, error) {
	result, err := q.Forward(w)
	if err != nil {
		return nil, err
	}
	b.tape.Record(ops.NewQWeightsOp(w, result, q))
	return result, nil
}
