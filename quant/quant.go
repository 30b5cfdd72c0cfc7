// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package quant quantizes weight tensors to 1 bit or passes them through at
// 32 bit, and maps gradients back with the straight-through estimator.
//
// Forward, for bit width 1:
//
//	y = sign(x) * s     (s = 1 for ScalingNone, 5 for ScalingScalar; sign(0) = 0)
//
// Backward, for every bit width:
//
//	dx = dy where -1 <= x <= 1, else 0
//
// Bit widths in [2, 31] and ScalingChannelMean are valid configurations
// without a kernel; Forward returns ErrUnimplemented for them.
//
// Example:
//
//	cfg, err := quant.NewConfig(1, quant.ScalingScalar)
//	q, err := quant.New(cfg)
//	y, err := q.Forward(x)          // [-2, 0, 0.3, 4] -> [-5, 0, 5, 5]
//	dx, err := q.Backward(ones, x)  // [0, 1, 1, 0]
package quant

import (
	"github.com/born-ml/qweights/internal/parallel"
	"github.com/born-ml/qweights/internal/quant"
	"github.com/born-ml/qweights/tensor"
)

// Error kinds, matched with errors.Is.
var (
	ErrConfig        = quant.ErrConfig
	ErrUnimplemented = quant.ErrUnimplemented
	ErrShape         = quant.ErrShape
	ErrDType         = quant.ErrDType
)

// Detail error types.
type (
	ConfigError        = quant.ConfigError
	UnimplementedError = quant.UnimplementedError
	ShapeError         = quant.ShapeError
)

// Bit width constants.
const (
	BitsBinary        = quant.BitsBinary
	BitsFullPrecision = quant.BitsFullPrecision
	MinBitWidth       = quant.MinBitWidth
	MaxBitWidth       = quant.MaxBitWidth
)

// ScalingMode selects the factor applied to binarized values.
type ScalingMode = quant.ScalingMode

// Scaling modes.
const (
	ScalingNone        = quant.ScalingNone
	ScalingScalar      = quant.ScalingScalar
	ScalingChannelMean = quant.ScalingChannelMean
)

// Option keys understood by ParseParams.
const (
	KeyBitWidth    = quant.KeyBitWidth
	KeyScalingMode = quant.KeyScalingMode
)

// Config is the immutable quantizer configuration.
type Config = quant.Config

// Quantizer applies Forward and Backward for a Config.
type Quantizer = quant.Quantizer

// Option configures a Quantizer.
type Option = quant.Option

// ParallelConfig controls how kernels split work across goroutines.
type ParallelConfig = parallel.Config

// DefaultConfig returns {bit_width: 1, scaling_mode: none}.
func DefaultConfig() Config {
	return quant.DefaultConfig()
}

// NewConfig validates bitWidth against [1, 32] and returns a Config.
func NewConfig(bitWidth uint, scaling ScalingMode) (Config, error) {
	return quant.NewConfig(bitWidth, scaling)
}

// ParseParams builds a Config from string options such as
// {"act_bit": "1", "scaling_factor": "scalar"}.
func ParseParams(kwargs map[string]string) (Config, error) {
	return quant.ParseParams(kwargs)
}

// ParseScalingMode parses "none", "scalar" or "channel_mean".
func ParseScalingMode(s string) (ScalingMode, error) {
	return quant.ParseScalingMode(s)
}

// New creates a Quantizer. It fails only if cfg is out of range.
func New(cfg Config, opts ...Option) (*Quantizer, error) {
	return quant.New(cfg, opts...)
}

// WithParallel sets the worker configuration used by the kernels.
func WithParallel(cfg ParallelConfig) Option {
	return quant.WithParallel(cfg)
}

// Forward quantizes x with a one-off Quantizer.
func Forward(cfg Config, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	q, err := quant.New(cfg)
	if err != nil {
		return nil, err
	}
	return q.Forward(x)
}

// Backward applies the straight-through estimator with a one-off Quantizer.
func Backward(cfg Config, outGrad, forwardInput *tensor.RawTensor) (*tensor.RawTensor, error) {
	q, err := quant.New(cfg)
	if err != nil {
		return nil, err
	}
	return q.Backward(outGrad, forwardInput)
}

// ForwardSlice quantizes src into dst.
func ForwardSlice[T tensor.Float](q *Quantizer, dst, src []T) error {
	return quant.ForwardSlice(q, dst, src)
}

// BackwardSlice writes the straight-through gradient of grad at x into dst.
func BackwardSlice[T tensor.Float](q *Quantizer, dst, grad, x []T) error {
	return quant.BackwardSlice(q, dst, grad, x)
}
