package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	assert.InDelta(t, 32.0, Dot([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-6)
	assert.InDelta(t, 0.0, Dot([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, 0.0, Dot(nil, nil), 1e-6)
}

func TestSparseDot(t *testing.T) {
	// Overlap on indices 2 and 7 only.
	a := SparseDot([]uint32{2, 5, 7}, []float32{1, 4, 2}, []uint32{7, 2}, []float32{3, 2})
	assert.InDelta(t, 8.0, a, 1e-6)

	assert.InDelta(t, 0.0, SparseDot([]uint32{1}, []float32{5}, []uint32{2}, []float32{5}), 1e-6)
	assert.InDelta(t, 0.0, SparseDot(nil, nil, []uint32{1}, []float32{1}), 1e-6)
}

func TestSquaredL2(t *testing.T) {
	assert.InDelta(t, 0.0, SquaredL2([]float32{1, 2}, []float32{1, 2}), 1e-6)
	assert.InDelta(t, 25.0, SquaredL2([]float32{0, 0}, []float32{3, 4}), 1e-6)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)

	// Zero-norm input.
	assert.Equal(t, float32(0), CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestMagnitude(t *testing.T) {
	assert.InDelta(t, 5.0, Magnitude([]float32{3, 4}), 1e-6)
	assert.InDelta(t, 0.0, Magnitude(nil), 1e-6)
}

func TestNormalizeL2InPlace(t *testing.T) {
	v := []float32{3, 4}
	require.True(t, NormalizeL2InPlace(v))
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
	assert.InDelta(t, 1.0, Magnitude(v), 1e-6)

	assert.False(t, NormalizeL2InPlace([]float32{0, 0}))
	assert.False(t, NormalizeL2InPlace(nil))
}

func TestNormalizeL2Copy(t *testing.T) {
	src := []float32{3, 4}
	dst, ok := NormalizeL2Copy(src)
	require.True(t, ok)
	assert.Equal(t, []float32{3, 4}, src)
	assert.InDelta(t, 1.0, Magnitude(dst), 1e-6)

	_, ok = NormalizeL2Copy([]float32{0})
	assert.False(t, ok)
}

func TestMetric(t *testing.T) {
	assert.Equal(t, "L2", MetricL2.String())
	assert.Equal(t, "Cosine", MetricCosine.String())
	assert.Equal(t, "Dot", MetricDot.String())

	assert.False(t, MetricL2.HigherIsBetter())
	assert.True(t, MetricCosine.HigherIsBetter())
	assert.True(t, MetricDot.HigherIsBetter())
}

func TestProvider(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	fn, err := Provider(MetricL2)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fn(a, b), 1e-6)

	fn, err = Provider(MetricCosine)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, fn(a, b), 1e-6)

	fn, err = Provider(MetricDot)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, fn(a, b), 1e-6)

	_, err = Provider(Metric(42))
	assert.Error(t, err)
}
