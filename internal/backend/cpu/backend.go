// Package cpu implements the pure Go CPU backend.
//
// Element-wise kernels are split across goroutines with internal/parallel;
// matrix multiplication parallelizes over output rows.
package cpu

import (
	"fmt"

	"github.com/born-ml/qweights/internal/parallel"
	"github.com/born-ml/qweights/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend using parallel.DefaultConfig.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallel settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Parallel returns the backend's parallel execution settings.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.par
}

// Add performs element-wise addition of equally shaped tensors.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.binaryResult("add", a, b)
	switch a.DType() {
	case tensor.Float32:
		elementwise(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), add[float32], cpu.par)
	case tensor.Float64:
		elementwise(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), add[float64], cpu.par)
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}
	return result
}

// Mul performs element-wise multiplication of equally shaped tensors.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.binaryResult("mul", a, b)
	switch a.DType() {
	case tensor.Float32:
		elementwise(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), mul[float32], cpu.par)
	case tensor.Float64:
		elementwise(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), mul[float64], cpu.par)
	default:
		panic(fmt.Sprintf("mul: unsupported dtype %s", a.DType()))
	}
	return result
}

// binaryResult validates operands of an element-wise op and allocates its result.
func (cpu *CPUBackend) binaryResult(op string, a, b *tensor.RawTensor) *tensor.RawTensor {
	if !a.SameLayout(b) {
		panic(fmt.Sprintf("%s: operands differ: %s%v vs %s%v", op, a.DType(), a.Shape(), b.DType(), b.Shape()))
	}
	result, err := tensor.NewRaw(a.Shape(), a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

func add[T tensor.Float](a, b T) T { return a + b }
func mul[T tensor.Float](a, b T) T { return a * b }

func elementwise[T tensor.Float](dst, a, b []T, f func(T, T) T, cfg parallel.Config) {
	parallel.ForRange(len(dst), func(s, e int) {
		for i := s; i < e; i++ {
			dst[i] = f(a[i], b[i])
		}
	}, cfg)
}
