// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers for quantized layers.
package optim

import (
	"github.com/born-ml/qweights/internal/optim"
	"github.com/born-ml/qweights/nn"
	"github.com/born-ml/qweights/tensor"
)

// Optimizer is the common optimizer interface.
type Optimizer = optim.Optimizer

// SGD is stochastic gradient descent with optional momentum and clipping.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig configures SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer over params.
//
// Example:
//
//	opt := optim.NewSGD(layer.Parameters(), optim.SGDConfig{LR: 0.01, Clip: 1})
//	opt.Step(grads)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], cfg SGDConfig) *SGD[B] {
	return optim.NewSGD(params, cfg)
}
