// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// Element-wise operations and matrix multiplication are split across
// goroutines according to a parallel configuration.
//
//	backend := cpu.New()
//	x := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	y := x.Add(x)
package cpu

import (
	internalcpu "github.com/born-ml/qweights/internal/backend/cpu"
	"github.com/born-ml/qweights/internal/parallel"
	"github.com/born-ml/qweights/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend using all available cores.
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit worker settings.
func NewWithConfig(cfg parallel.Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// Features lists the SIMD extensions reported by the host CPU.
func Features() []string {
	return internalcpu.Features()
}
