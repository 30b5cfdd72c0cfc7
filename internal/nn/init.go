package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/qweights/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Values are drawn from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
// For binarized layers the bound also keeps initial weights inside the
// estimator's [-1, 1] pass-through window.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	bound := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	return tensor.Uniform[float32](shape, -bound, bound, rng, backend)
}
