// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Backend wraps any tensor.Backend and records operations on a gradient
// tape. Weight quantization is recorded too, so gradients reach the
// full-precision weights through the straight-through estimator.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	qw, err := backend.QWeights(w.Raw(), quantizer)
//	y := tensor.New[float32](backend.MatMul(x.Raw(), qw), backend)
//
//	grads := autodiff.Backward(y, backend)
//	dw := grads[w.Raw()]
package autodiff

import (
	"github.com/born-ml/qweights/internal/autodiff"
	"github.com/born-ml/qweights/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// BackwardCapable is implemented by backends that own a gradient tape.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients of sum(t) with respect to every recorded tensor.
// t must be the output of the last recorded operation.
func Backward[T tensor.Float, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
