// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides layers with quantized weights.
//
// Layers keep full-precision weights and quantize them on every forward
// pass. With an autodiff backend the quantization is recorded, so training
// updates the full-precision weights through the straight-through estimator.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	layer, err := nn.NewQLinear(784, 128, quant.DefaultConfig(), rng, backend)
//	y, err := layer.Forward(x)
package nn

import (
	"math/rand"

	"github.com/born-ml/qweights/internal/nn"
	"github.com/born-ml/qweights/quant"
	"github.com/born-ml/qweights/tensor"
)

// Module is the base interface for all layers.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a trainable full-precision tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// QWeights is a parameter-free quantization layer.
type QWeights[B tensor.Backend] = nn.QWeights[B]

// QLinear is a fully connected layer computing x @ Q(W).T.
type QLinear[B tensor.Backend] = nn.QLinear[B]

// NewQWeights creates a quantization layer.
func NewQWeights[B tensor.Backend](cfg quant.Config, opts ...quant.Option) (*QWeights[B], error) {
	return nn.NewQWeights[B](cfg, opts...)
}

// NewQLinear creates a QLinear layer with Xavier-initialized weights.
func NewQLinear[B tensor.Backend](inFeatures, outFeatures int, cfg quant.Config, rng *rand.Rand, backend B) (*QLinear[B], error) {
	return nn.NewQLinear(inFeatures, outFeatures, cfg, rng, backend)
}

// CollectGrads stores gradients from a backward pass on params.
func CollectGrads[B tensor.Backend](params []*Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor, backend B) {
	nn.CollectGrads(params, grads, backend)
}
