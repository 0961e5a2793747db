package zvec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocScalarRoundTrip(t *testing.T) {
	doc := NewDoc("pk1")
	assert.Equal(t, "pk1", doc.PK())

	doc.SetString("s", "hello")
	doc.SetBool("b", true)
	doc.SetInt32("i32", -5)
	doc.SetInt64("i64", 1<<40)
	doc.SetUint32("u32", 7)
	doc.SetUint64("u64", 1<<50)
	doc.SetFloat32("f32", 1.5)
	doc.SetFloat64("f64", 2.5)
	doc.SetBinary("bin", []byte{1, 2, 3})

	s, ok := doc.String("s")
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	b, ok := doc.Bool("b")
	require.True(t, ok)
	assert.True(t, b)

	i32, ok := doc.Int32("i32")
	require.True(t, ok)
	assert.Equal(t, int32(-5), i32)

	i64, ok := doc.Int64("i64")
	require.True(t, ok)
	assert.Equal(t, int64(1<<40), i64)

	u32, ok := doc.Uint32("u32")
	require.True(t, ok)
	assert.Equal(t, uint32(7), u32)

	u64, ok := doc.Uint64("u64")
	require.True(t, ok)
	assert.Equal(t, uint64(1<<50), u64)

	f32, ok := doc.Float32("f32")
	require.True(t, ok)
	assert.Equal(t, float32(1.5), f32)

	f64, ok := doc.Float64("f64")
	require.True(t, ok)
	assert.Equal(t, 2.5, f64)

	bin, ok := doc.Binary("bin")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, bin)

	assert.Equal(t, []string{"s", "b", "i32", "i64", "u32", "u64", "f32", "f64", "bin"}, doc.FieldNames())
}

func TestDocGetterMatchFlag(t *testing.T) {
	doc := NewDoc("pk1")
	doc.SetString("s", "hello")
	doc.SetNull("n")

	// Absence is a normal outcome: false match flag, zero value, no error.
	s, ok := doc.String("missing")
	assert.False(t, ok)
	assert.Empty(t, s)

	// Wrong stored type reads the same way.
	i, ok := doc.Int64("s")
	assert.False(t, ok)
	assert.Zero(t, i)

	// An explicit null holds no value of any type.
	_, ok = doc.String("n")
	assert.False(t, ok)
}

func TestDocNullHandling(t *testing.T) {
	doc := NewDoc("pk1")
	doc.SetString("s", "hello")
	doc.SetNull("n")

	assert.True(t, doc.Has("s"))
	assert.True(t, doc.HasValue("s"))
	assert.False(t, doc.IsNull("s"))

	assert.True(t, doc.Has("n"))
	assert.False(t, doc.HasValue("n"))
	assert.True(t, doc.IsNull("n"))

	assert.False(t, doc.Has("missing"))
	assert.False(t, doc.HasValue("missing"))
	assert.False(t, doc.IsNull("missing"))

	doc.Remove("n")
	assert.False(t, doc.Has("n"))
}

func TestDocOverwriteKeepsOrder(t *testing.T) {
	doc := NewDoc("pk1")
	doc.SetString("a", "1")
	doc.SetString("b", "2")
	doc.SetString("a", "3")

	assert.Equal(t, []string{"a", "b"}, doc.FieldNames())
	s, ok := doc.String("a")
	require.True(t, ok)
	assert.Equal(t, "3", s)
}

func TestDocPKStableAcrossMutation(t *testing.T) {
	doc := NewDoc("pk1")
	pk := doc.PK()
	doc.SetString("title", "first")
	doc.SetInt64("views", 10)
	doc.SetString("title", "second")

	assert.Equal(t, "pk1", pk)
	assert.Equal(t, "pk1", doc.PK())
}

func TestDocVectorRoundTrip(t *testing.T) {
	doc := NewDoc("pk1")

	doc.SetVectorFloat32("v32", []float32{1, 2, 3})
	doc.SetVectorFloat64("v64", []float64{4, 5})
	doc.SetVectorInt8("vi8", []int8{1, -2})
	doc.SetVectorInt16("vi16", []int16{3, -4})

	v32, ok := doc.VectorFloat32("v32")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v32)

	v64, ok := doc.VectorFloat64("v64")
	require.True(t, ok)
	assert.Equal(t, []float64{4, 5}, v64)

	vi8, ok := doc.VectorInt8("vi8")
	require.True(t, ok)
	assert.Equal(t, []int8{1, -2}, vi8)

	vi16, ok := doc.VectorInt16("vi16")
	require.True(t, ok)
	assert.Equal(t, []int16{3, -4}, vi16)
}

func TestDocVectorFloat32Into(t *testing.T) {
	doc := NewDoc("pk1")
	doc.SetVectorFloat32("v", []float32{1, 2, 3, 4})

	// Exact fit.
	buf := make([]float32, 4)
	n, ok := doc.VectorFloat32Into("v", buf)
	require.True(t, ok)
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{1, 2, 3, 4}, buf)

	// Oversized buffer: only the vector's length is written.
	big := make([]float32, 8)
	n, ok = doc.VectorFloat32Into("v", big)
	require.True(t, ok)
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{0, 0, 0, 0}, big[4:])

	// Undersized buffer: a partial copy, with the true length reported so
	// the caller can detect the truncation and retry.
	small := make([]float32, 2)
	n, ok = doc.VectorFloat32Into("v", small)
	require.True(t, ok)
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{1, 2}, small)

	_, ok = doc.VectorFloat32Into("missing", buf)
	assert.False(t, ok)
}

func TestDocSetterDetachesInput(t *testing.T) {
	src := []float32{1, 2, 3}
	doc := NewDoc("pk1")
	doc.SetVectorFloat32("v", src)

	src[0] = 99

	v, ok := doc.VectorFloat32("v")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v)

	// Getter output is detached too.
	v[1] = 99
	again, ok := doc.VectorFloat32("v")
	require.True(t, ok)
	assert.Equal(t, float32(2), again[1])
}

func TestDocSparseVector(t *testing.T) {
	doc := NewDoc("pk1")

	require.NoError(t, doc.SetSparseVectorFloat32("sv", []uint32{1, 5, 9}, []float32{0.1, 0.5, 0.9}))

	idx, vals, ok := doc.SparseVectorFloat32("sv")
	require.True(t, ok)
	assert.Equal(t, []uint32{1, 5, 9}, idx)
	assert.Equal(t, []float32{0.1, 0.5, 0.9}, vals)

	// Parallel slices must agree in length.
	err := doc.SetSparseVectorFloat32("bad", []uint32{1, 2}, []float32{0.1})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestDocArrays(t *testing.T) {
	doc := NewDoc("pk1")

	doc.SetStringArray("ss", []string{"x", "y"})
	doc.SetBoolArray("bs", []bool{true, false})
	doc.SetInt32Array("i32s", []int32{1, 2})
	doc.SetInt64Array("i64s", []int64{3, 4})
	doc.SetUint64Array("u64s", []uint64{5, 6})
	doc.SetFloat32Array("f32s", []float32{1.5, 2.5})
	doc.SetFloat64Array("f64s", []float64{3.5, 4.5})

	ss, ok := doc.StringArray("ss")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, ss)

	bs, ok := doc.BoolArray("bs")
	require.True(t, ok)
	assert.Equal(t, []bool{true, false}, bs)

	i32s, ok := doc.Int32Array("i32s")
	require.True(t, ok)
	assert.Equal(t, []int32{1, 2}, i32s)

	i64s, ok := doc.Int64Array("i64s")
	require.True(t, ok)
	assert.Equal(t, []int64{3, 4}, i64s)

	u64s, ok := doc.Uint64Array("u64s")
	require.True(t, ok)
	assert.Equal(t, []uint64{5, 6}, u64s)

	f32s, ok := doc.Float32Array("f32s")
	require.True(t, ok)
	assert.Equal(t, []float32{1.5, 2.5}, f32s)

	f64s, ok := doc.Float64Array("f64s")
	require.True(t, ok)
	assert.Equal(t, []float64{3.5, 4.5}, f64s)

	// Dense vector and float array are distinct types.
	_, ok = doc.VectorFloat32("f32s")
	assert.False(t, ok)
}
