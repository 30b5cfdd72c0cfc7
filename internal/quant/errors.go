package quant

import (
	"errors"
	"fmt"

	"github.com/born-ml/qweights/internal/tensor"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrConfig        = errors.New("invalid quantization config")
	ErrUnimplemented = errors.New("not implemented")
	ErrShape         = errors.New("tensor shape mismatch")
	ErrDType         = errors.New("unsupported tensor dtype")
)

// ConfigError reports an option that failed validation.
type ConfigError struct {
	Field   string // Option name (e.g., "bit_width")
	Value   string // Offending value as given
	Details string // Additional details
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s=%q: %s", ErrConfig, e.Field, e.Value, e.Details)
}

// Unwrap returns ErrConfig.
func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

// UnimplementedError reports a configuration that is valid but has no kernel.
type UnimplementedError struct {
	Feature string
}

// Error implements the error interface.
func (e *UnimplementedError) Error() string {
	return e.Feature
}

// Unwrap returns ErrUnimplemented.
func (e *UnimplementedError) Unwrap() error {
	return ErrUnimplemented
}

// ShapeError reports operands of a single call that disagree in shape or dtype.
type ShapeError struct {
	Op      string // "forward" or "backward"
	Operand string // Name of the mismatching operand
	Want    tensor.Shape
	Got     tensor.Shape
	WantDT  tensor.DataType
	GotDT   tensor.DataType
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.WantDT != e.GotDT {
		return fmt.Sprintf("%s: %v: %s has dtype %s, want %s", e.Op, ErrShape, e.Operand, e.GotDT, e.WantDT)
	}
	return fmt.Sprintf("%s: %v: %s has shape %v, want %v", e.Op, ErrShape, e.Operand, e.Got, e.Want)
}

// Unwrap returns ErrShape.
func (e *ShapeError) Unwrap() error {
	return ErrShape
}

var (
	errChannelMean = &UnimplementedError{Feature: "channel mean as scaling factor is not implemented"}
	errNBit        = &UnimplementedError{Feature: "quantizing to n bits is not implemented; only 1 and 32 bit are supported"}
)

// checkLayout returns a *ShapeError if got differs from want in shape or dtype.
func checkLayout(op, operand string, want, got *tensor.RawTensor) error {
	if want.SameLayout(got) {
		return nil
	}
	return &ShapeError{
		Op:      op,
		Operand: operand,
		Want:    want.Shape(),
		Got:     got.Shape(),
		WantDT:  want.DType(),
		GotDT:   got.DType(),
	}
}

func checkFloat(op string, t *tensor.RawTensor) error {
	if t.DType().IsFloat() {
		return nil
	}
	return fmt.Errorf("%s: %w: %s (only float32 and float64)", op, ErrDType, t.DType())
}
