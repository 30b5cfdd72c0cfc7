package tensor

// Backend defines the compute operations a tensor backend provides.
// Backends panic on malformed operands (mismatched shapes, unsupported
// dtypes); the quantizer itself never goes through a Backend and returns
// errors instead.
//
// Implementations:
//   - CPU: pure Go, chunked across goroutines (internal/backend/cpu)
//   - Autodiff: decorator that records operations on a gradient tape
type Backend interface {
	// Element-wise binary operations on equal shapes.
	Add(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2D tensors: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Transpose permutes the axes of t. With no axes, the last two are swapped.
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
