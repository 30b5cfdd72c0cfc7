// Package optim updates full-precision parameters from tape gradients.
package optim

import "github.com/born-ml/qweights/internal/tensor"

// Optimizer is the interface implemented by parameter update rules.
type Optimizer interface {
	// Step applies one update using gradients keyed by parameter tensor.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears the gradients held by the parameters.
	ZeroGrad()
}
