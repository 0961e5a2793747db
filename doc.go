package zvec

import (
	"fmt"
	"slices"

	"github.com/seanmozeik/zvec/internal/record"
)

// Doc is a document: a primary key plus typed field values. Setters copy
// their input and getters return copies, so a Doc never shares memory with
// engine state or with caller slices.
//
// Getters report presence through a boolean match flag. A missing field, an
// explicit null, or a value of a different type all yield ok=false; absence
// is a normal outcome, not an error. Has, HasValue, and IsNull distinguish
// the three states when the caller cares.
type Doc struct {
	rec *record.Doc
}

// NewDoc creates a document with the given primary key.
func NewDoc(pk string) *Doc {
	rec := record.NewDoc()
	rec.PK = pk
	return &Doc{rec: rec}
}

func newDocFromRecord(rec *record.Doc) *Doc {
	return &Doc{rec: rec}
}

// PK returns the primary key.
func (d *Doc) PK() string { return d.rec.PK }

// Score returns the similarity score assigned by a query. It is zero for
// documents that did not come from a search.
func (d *Doc) Score() float32 { return d.rec.Score }

// DocID returns the engine-assigned document id. It is zero unless the
// query requested it.
func (d *Doc) DocID() uint64 { return d.rec.DocID }

// FieldNames returns the names of all set fields in first-set order.
func (d *Doc) FieldNames() []string { return d.rec.FieldNames() }

// Has reports whether the field is set, including explicit nulls.
func (d *Doc) Has(name string) bool {
	_, ok := d.rec.Get(name)
	return ok
}

// HasValue reports whether the field is set to a non-null value.
func (d *Doc) HasValue(name string) bool {
	v, ok := d.rec.Get(name)
	return ok && !v.Null
}

// IsNull reports whether the field is set to an explicit null.
func (d *Doc) IsNull(name string) bool {
	v, ok := d.rec.Get(name)
	return ok && v.Null
}

// SetNull sets the field to an explicit null.
func (d *Doc) SetNull(name string) {
	d.rec.Set(name, record.NullValue())
}

// Remove unsets the field.
func (d *Doc) Remove(name string) {
	d.rec.Remove(name)
}

func (d *Doc) get(name string, want record.Type) (record.Value, bool) {
	v, ok := d.rec.Get(name)
	if !ok || v.Null || v.Type != want {
		return record.Value{}, false
	}
	return v, true
}

// SetString sets a string field.
func (d *Doc) SetString(name, value string) {
	d.rec.Set(name, record.Value{Type: record.TypeString, Str: value})
}

// String returns a string field.
func (d *Doc) String(name string) (string, bool) {
	v, ok := d.get(name, record.TypeString)
	if !ok {
		return "", false
	}
	return v.Str, true
}

// SetBool sets a bool field.
func (d *Doc) SetBool(name string, value bool) {
	d.rec.Set(name, record.Value{Type: record.TypeBool, Bool: value})
}

// Bool returns a bool field.
func (d *Doc) Bool(name string) (bool, bool) {
	v, ok := d.get(name, record.TypeBool)
	if !ok {
		return false, false
	}
	return v.Bool, true
}

// SetInt32 sets an int32 field.
func (d *Doc) SetInt32(name string, value int32) {
	d.rec.Set(name, record.Value{Type: record.TypeInt32, Int: int64(value)})
}

// Int32 returns an int32 field.
func (d *Doc) Int32(name string) (int32, bool) {
	v, ok := d.get(name, record.TypeInt32)
	if !ok {
		return 0, false
	}
	return int32(v.Int), true
}

// SetInt64 sets an int64 field.
func (d *Doc) SetInt64(name string, value int64) {
	d.rec.Set(name, record.Value{Type: record.TypeInt64, Int: value})
}

// Int64 returns an int64 field.
func (d *Doc) Int64(name string) (int64, bool) {
	v, ok := d.get(name, record.TypeInt64)
	if !ok {
		return 0, false
	}
	return v.Int, true
}

// SetUint32 sets a uint32 field.
func (d *Doc) SetUint32(name string, value uint32) {
	d.rec.Set(name, record.Value{Type: record.TypeUint32, Uint: uint64(value)})
}

// Uint32 returns a uint32 field.
func (d *Doc) Uint32(name string) (uint32, bool) {
	v, ok := d.get(name, record.TypeUint32)
	if !ok {
		return 0, false
	}
	return uint32(v.Uint), true
}

// SetUint64 sets a uint64 field.
func (d *Doc) SetUint64(name string, value uint64) {
	d.rec.Set(name, record.Value{Type: record.TypeUint64, Uint: value})
}

// Uint64 returns a uint64 field.
func (d *Doc) Uint64(name string) (uint64, bool) {
	v, ok := d.get(name, record.TypeUint64)
	if !ok {
		return 0, false
	}
	return v.Uint, true
}

// SetFloat32 sets a float32 field.
func (d *Doc) SetFloat32(name string, value float32) {
	d.rec.Set(name, record.Value{Type: record.TypeFloat32, Float: float64(value)})
}

// Float32 returns a float32 field.
func (d *Doc) Float32(name string) (float32, bool) {
	v, ok := d.get(name, record.TypeFloat32)
	if !ok {
		return 0, false
	}
	return float32(v.Float), true
}

// SetFloat64 sets a float64 field.
func (d *Doc) SetFloat64(name string, value float64) {
	d.rec.Set(name, record.Value{Type: record.TypeFloat64, Float: value})
}

// Float64 returns a float64 field.
func (d *Doc) Float64(name string) (float64, bool) {
	v, ok := d.get(name, record.TypeFloat64)
	if !ok {
		return 0, false
	}
	return v.Float, true
}

// SetBinary sets a binary field. The bytes are copied.
func (d *Doc) SetBinary(name string, value []byte) {
	d.rec.Set(name, record.Value{Type: record.TypeBinary, Bytes: slices.Clone(value)})
}

// Binary returns a copy of a binary field.
func (d *Doc) Binary(name string) ([]byte, bool) {
	v, ok := d.get(name, record.TypeBinary)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.Bytes), true
}

// SetVectorFloat32 sets a dense float32 vector field. The slice is copied.
func (d *Doc) SetVectorFloat32(name string, vector []float32) {
	d.rec.Set(name, record.Value{Type: record.TypeVectorFP32, F32s: slices.Clone(vector)})
}

// VectorFloat32 returns a copy of a dense float32 vector field.
func (d *Doc) VectorFloat32(name string) ([]float32, bool) {
	v, ok := d.get(name, record.TypeVectorFP32)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.F32s), true
}

// VectorFloat32Into copies a dense float32 vector into buf, up to len(buf)
// elements. It returns the vector's true stored length, so callers with an
// undersized buffer can detect the truncation and retry with a larger one.
func (d *Doc) VectorFloat32Into(name string, buf []float32) (int, bool) {
	v, ok := d.get(name, record.TypeVectorFP32)
	if !ok {
		return 0, false
	}
	copy(buf, v.F32s)
	return len(v.F32s), true
}

// SetVectorFloat64 sets a dense float64 vector field. The slice is copied.
func (d *Doc) SetVectorFloat64(name string, vector []float64) {
	d.rec.Set(name, record.Value{Type: record.TypeVectorFP64, F64s: slices.Clone(vector)})
}

// VectorFloat64 returns a copy of a dense float64 vector field.
func (d *Doc) VectorFloat64(name string) ([]float64, bool) {
	v, ok := d.get(name, record.TypeVectorFP64)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.F64s), true
}

// SetVectorInt8 sets a dense int8 vector field. The slice is copied.
func (d *Doc) SetVectorInt8(name string, vector []int8) {
	d.rec.Set(name, record.Value{Type: record.TypeVectorInt8, I8s: slices.Clone(vector)})
}

// VectorInt8 returns a copy of a dense int8 vector field.
func (d *Doc) VectorInt8(name string) ([]int8, bool) {
	v, ok := d.get(name, record.TypeVectorInt8)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.I8s), true
}

// SetVectorInt16 sets a dense int16 vector field. The slice is copied.
func (d *Doc) SetVectorInt16(name string, vector []int16) {
	d.rec.Set(name, record.Value{Type: record.TypeVectorInt16, I16s: slices.Clone(vector)})
}

// VectorInt16 returns a copy of a dense int16 vector field.
func (d *Doc) VectorInt16(name string) ([]int16, bool) {
	v, ok := d.get(name, record.TypeVectorInt16)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.I16s), true
}

// SetSparseVectorFloat32 sets a sparse float32 vector field from parallel
// index and value slices. Both are copied.
func (d *Doc) SetSparseVectorFloat32(name string, indices []uint32, values []float32) error {
	if len(indices) != len(values) {
		return invalidArgument(fmt.Sprintf("sparse vector has %d indices and %d values", len(indices), len(values)))
	}
	d.rec.Set(name, record.Value{
		Type: record.TypeSparseVectorFP32,
		U32s: slices.Clone(indices),
		F32s: slices.Clone(values),
	})
	return nil
}

// SparseVectorFloat32 returns copies of a sparse float32 vector's indices
// and values.
func (d *Doc) SparseVectorFloat32(name string) ([]uint32, []float32, bool) {
	v, ok := d.get(name, record.TypeSparseVectorFP32)
	if !ok {
		return nil, nil, false
	}
	return slices.Clone(v.U32s), slices.Clone(v.F32s), true
}

// SetStringArray sets a string array field. The slice is copied.
func (d *Doc) SetStringArray(name string, values []string) {
	d.rec.Set(name, record.Value{Type: record.TypeArrayString, Strs: slices.Clone(values)})
}

// StringArray returns a copy of a string array field.
func (d *Doc) StringArray(name string) ([]string, bool) {
	v, ok := d.get(name, record.TypeArrayString)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.Strs), true
}

// SetBoolArray sets a bool array field. The slice is copied.
func (d *Doc) SetBoolArray(name string, values []bool) {
	d.rec.Set(name, record.Value{Type: record.TypeArrayBool, Bools: slices.Clone(values)})
}

// BoolArray returns a copy of a bool array field.
func (d *Doc) BoolArray(name string) ([]bool, bool) {
	v, ok := d.get(name, record.TypeArrayBool)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.Bools), true
}

// SetInt32Array sets an int32 array field. The slice is copied.
func (d *Doc) SetInt32Array(name string, values []int32) {
	d.rec.Set(name, record.Value{Type: record.TypeArrayInt32, I32s: slices.Clone(values)})
}

// Int32Array returns a copy of an int32 array field.
func (d *Doc) Int32Array(name string) ([]int32, bool) {
	v, ok := d.get(name, record.TypeArrayInt32)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.I32s), true
}

// SetInt64Array sets an int64 array field. The slice is copied.
func (d *Doc) SetInt64Array(name string, values []int64) {
	d.rec.Set(name, record.Value{Type: record.TypeArrayInt64, I64s: slices.Clone(values)})
}

// Int64Array returns a copy of an int64 array field.
func (d *Doc) Int64Array(name string) ([]int64, bool) {
	v, ok := d.get(name, record.TypeArrayInt64)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.I64s), true
}

// SetUint64Array sets a uint64 array field. The slice is copied.
func (d *Doc) SetUint64Array(name string, values []uint64) {
	d.rec.Set(name, record.Value{Type: record.TypeArrayUint64, U64s: slices.Clone(values)})
}

// Uint64Array returns a copy of a uint64 array field.
func (d *Doc) Uint64Array(name string) ([]uint64, bool) {
	v, ok := d.get(name, record.TypeArrayUint64)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.U64s), true
}

// SetFloat32Array sets a float32 array field. The slice is copied.
func (d *Doc) SetFloat32Array(name string, values []float32) {
	d.rec.Set(name, record.Value{Type: record.TypeArrayFloat32, F32s: slices.Clone(values)})
}

// Float32Array returns a copy of a float32 array field.
func (d *Doc) Float32Array(name string) ([]float32, bool) {
	v, ok := d.get(name, record.TypeArrayFloat32)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.F32s), true
}

// SetFloat64Array sets a float64 array field. The slice is copied.
func (d *Doc) SetFloat64Array(name string, values []float64) {
	d.rec.Set(name, record.Value{Type: record.TypeArrayFloat64, F64s: slices.Clone(values)})
}

// Float64Array returns a copy of a float64 array field.
func (d *Doc) Float64Array(name string) ([]float64, bool) {
	v, ok := d.get(name, record.TypeArrayFloat64)
	if !ok {
		return nil, false
	}
	return slices.Clone(v.F64s), true
}
