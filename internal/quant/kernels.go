package quant

import "github.com/born-ml/qweights/internal/tensor"

// Sign is the deterministic sign function: +1 for x > 0, -1 for x < 0 and 0
// for x == 0 (either signed zero). NaN is returned unchanged.
func Sign[T tensor.Float](x T) T {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	case x == 0:
		return 0
	default:
		return x
	}
}

// Binarize writes Sign(src[i]) * scale into dst[i]. scale must be positive.
// dst may alias src.
//
// Sign is taken of x, not x/scale, so subnormal inputs never round to zero.
func Binarize[T tensor.Float](dst, src []T, scale T) {
	dst = dst[:len(src)]
	for i, x := range src {
		dst[i] = Sign(x) * scale
	}
}

// Passthrough copies src into dst. dst may alias src.
func Passthrough[T tensor.Float](dst, src []T) {
	copy(dst, src)
}

// STEGrad is the clipped straight-through estimator:
// dst[i] = grad[i] where -1 <= x[i] <= 1, else 0. dst may alias grad.
func STEGrad[T tensor.Float](dst, grad, x []T) {
	dst = dst[:len(x)]
	grad = grad[:len(x)]
	for i, v := range x {
		if v >= -1 && v <= 1 {
			dst[i] = grad[i]
		} else {
			dst[i] = 0
		}
	}
}
