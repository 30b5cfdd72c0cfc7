package tensor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend satisfies Backend for construction tests; no compute is needed here.
type stubBackend struct{}

func (stubBackend) Add(a, _ *RawTensor) *RawTensor              { return a }
func (stubBackend) Mul(a, _ *RawTensor) *RawTensor              { return a }
func (stubBackend) MatMul(a, _ *RawTensor) *RawTensor           { return a }
func (stubBackend) Transpose(t *RawTensor, _ ...int) *RawTensor { return t }
func (stubBackend) Name() string                                { return "stub" }
func (stubBackend) Device() Device                              { return CPU }

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestParseDataType(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8} {
		got, ok := ParseDataType(dt.String())
		require.True(t, ok, dt.String())
		assert.Equal(t, dt, got)
	}

	_, ok := ParseDataType("complex64")
	assert.False(t, ok)
	assert.True(t, Float32.IsFloat())
	assert.False(t, Int64.IsFloat())
}

func TestShape(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, Shape{2, 3, 4}.ComputeStrides())

	require.NoError(t, Shape{1, 2}.Validate())
	require.NoError(t, Shape{2, 0}.Validate())
	require.Error(t, Shape{2, -1}.Validate())

	s := Shape{2, 3}
	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0], "Clone must not alias")
	assert.True(t, s.Equal(Shape{2, 3}))
	assert.False(t, s.Equal(Shape{3, 2}))
	assert.False(t, s.Equal(Shape{2, 3, 1}))
}

func TestShape_Overflow(t *testing.T) {
	for _, s := range []Shape{{1 << 32, 1 << 32}, {1 << 62, 4}, {math.MaxInt, 2}} {
		require.ErrorIs(t, s.Validate(), ErrShapeOverflow, "%v", s)
	}

	// Element count fits but the byte count does not.
	_, err := Shape{1 << 62}.ByteSize(Float64.Size())
	require.ErrorIs(t, err, ErrShapeOverflow)
	_, err = NewRaw(Shape{1 << 62}, Float64, CPU)
	require.ErrorIs(t, err, ErrShapeOverflow)

	n, err := Shape{0, 1 << 62, 1 << 62}.ByteSize(8)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = RawFromSlice([]float32{}, Shape{1 << 32, 1 << 32}, CPU)
	require.ErrorIs(t, err, ErrShapeOverflow)
}

func TestNewRaw_Empty(t *testing.T) {
	raw, err := NewRaw(Shape{0}, Float32, CPU)
	require.NoError(t, err)
	assert.Equal(t, 0, raw.ByteSize())
	assert.Empty(t, raw.AsFloat32())
	assert.Empty(t, raw.Clone().AsFloat32())

	raw, err = RawFromSlice([]float64{}, Shape{3, 0}, CPU)
	require.NoError(t, err)
	assert.Empty(t, raw.AsFloat64())
	assert.Empty(t, raw.Float64s())
}

func TestNewRaw_ZeroFilled(t *testing.T) {
	raw, err := NewRaw(Shape{2, 2}, Float64, CPU)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, raw.AsFloat64())
	assert.Equal(t, 32, raw.ByteSize())

	_, err = NewRaw(Shape{-1}, Float32, CPU)
	require.Error(t, err)
}

func TestRawTensor_WrongDTypePanics(t *testing.T) {
	raw, err := NewRaw(Shape{3}, Float32, CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { raw.AsFloat64() })
	assert.Panics(t, func() { raw.AsInt32() })
}

func TestRawTensor_CloneIsDeep(t *testing.T) {
	raw, err := RawFromSlice([]float32{1, 2, 3}, Shape{3}, CPU)
	require.NoError(t, err)

	c := raw.Clone()
	c.AsFloat32()[0] = 42

	assert.Equal(t, float32(1), raw.AsFloat32()[0])
	assert.True(t, raw.SameLayout(c))
}

func TestRawTensor_Float64s(t *testing.T) {
	raw, err := RawFromSlice([]float32{1.5, -2}, Shape{2}, CPU)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2}, raw.Float64s())

	ints, err := RawFromSlice([]int32{1}, Shape{1}, CPU)
	require.NoError(t, err)
	assert.Panics(t, func() { ints.Float64s() })
}

func TestFromSlice(t *testing.T) {
	b := stubBackend{}

	x, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, b)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3}, x.Shape())
	assert.Equal(t, Float32, x.DType())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, x.Data())

	_, err = FromSlice([]float32{1, 2, 3}, Shape{2, 2}, b)
	require.Error(t, err)
}

func TestCreation(t *testing.T) {
	b := stubBackend{}

	assert.Equal(t, []float64{1, 1, 1}, Ones[float64](Shape{3}, b).Data())
	assert.Equal(t, []int32{7, 7}, Full[int32](Shape{2}, 7, b).Data())

	rng := rand.New(rand.NewSource(1))
	u := Uniform[float32](Shape{64}, -2, 2, rng, b)
	for _, v := range u.Data() {
		assert.GreaterOrEqual(t, v, float32(-2))
		assert.Less(t, v, float32(2))
	}
}

func TestTensor_GradTracking(t *testing.T) {
	b := stubBackend{}
	x := Zeros[float32](Shape{2}, b)
	assert.False(t, x.RequiresGrad())
	assert.Same(t, x, x.RequireGrad())
	assert.True(t, x.RequiresGrad())

	g := Ones[float32](Shape{2}, b)
	x.SetGrad(g)
	assert.Same(t, g, x.Grad())

	c := x.Clone()
	assert.Nil(t, c.Grad())
	assert.False(t, c.RequiresGrad())
}
