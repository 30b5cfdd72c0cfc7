// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types used by the quantizer.
//
// The package defines:
//   - Tensor[T, B]: generic tensor bound to a compute backend
//   - RawTensor: untyped storage passed to quant.Quantizer
//   - Backend: interface implemented by backend/cpu and autodiff
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	backend := cpu.New()
//	w, _ := tensor.FromSlice([]float32{-2, 0, 0.3, 4}, tensor.Shape{2, 2}, backend)
//	q, _ := quant.New(quant.DefaultConfig())
//	binarized, err := q.Forward(w.Raw())
package tensor

import (
	"math/rand"

	"github.com/born-ml/qweights/internal/tensor"
)

// DType is a constraint for tensor element types.
// Supported types: float32, float64, int32, int64, uint8.
type DType = tensor.DType

// Float is the constraint accepted by quantization kernels.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the only device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// RawTensor is untyped tensor storage.
type RawTensor = tensor.RawTensor

// Backend defines the operations a compute backend provides.
type Backend = tensor.Backend

// Tensor is a generic type-safe tensor.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// NewRaw creates a zero-filled RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// RawFromSlice copies data into a new RawTensor.
func RawFromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	return tensor.RawFromSlice(data, shape, device)
}

// ParseDataType maps a dtype name ("float32", "F32", ...) to a DataType.
func ParseDataType(name string) (DataType, bool) {
	return tensor.ParseDataType(name)
}

// New wraps raw in a typed tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// FromSlice creates a tensor from a slice.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// Zeros creates a zero-filled tensor.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// Uniform creates a tensor with values drawn from U(lo, hi).
func Uniform[T Float, B Backend](shape Shape, lo, hi T, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.Uniform(shape, lo, hi, rng, b)
}
