// Package record defines the storage representation of documents shared
// between the engine and the public API. The public layer converts its typed
// accessors into Values; the engine stores and matches them.
package record

import "slices"

// Type tags a stored value. The numeric codes double as the persisted type
// identifiers in snapshots and WAL records, so they must stay stable.
type Type uint32

const (
	TypeUndefined Type = 0
	TypeBinary    Type = 1
	TypeString    Type = 2
	TypeBool      Type = 3
	TypeInt32     Type = 4
	TypeInt64     Type = 5
	TypeUint32    Type = 6
	TypeUint64    Type = 7
	TypeFloat32   Type = 8
	TypeFloat64   Type = 9

	TypeVectorBinary32 Type = 20
	TypeVectorBinary64 Type = 21
	TypeVectorFP16     Type = 22
	TypeVectorFP32     Type = 23
	TypeVectorFP64     Type = 24
	TypeVectorInt4     Type = 25
	TypeVectorInt8     Type = 26
	TypeVectorInt16    Type = 27

	TypeSparseVectorFP16 Type = 30
	TypeSparseVectorFP32 Type = 31

	TypeArrayBinary  Type = 40
	TypeArrayString  Type = 41
	TypeArrayBool    Type = 42
	TypeArrayInt32   Type = 43
	TypeArrayInt64   Type = 44
	TypeArrayUint32  Type = 45
	TypeArrayUint64  Type = 46
	TypeArrayFloat32 Type = 47
	TypeArrayFloat64 Type = 48
)

// IsVector reports whether t is a dense or sparse vector type.
func (t Type) IsVector() bool {
	return (t >= TypeVectorBinary32 && t <= TypeVectorInt16) || t.IsSparseVector()
}

// IsSparseVector reports whether t is a sparse vector type.
func (t Type) IsSparseVector() bool {
	return t == TypeSparseVectorFP16 || t == TypeSparseVectorFP32
}

// IsArray reports whether t is an array type.
func (t Type) IsArray() bool {
	return t >= TypeArrayBinary && t <= TypeArrayFloat64
}

// Value is a single typed field value. Exactly one payload slot is
// meaningful for a given Type; Null marks an explicit SQL-style null
// (the field is present but carries no value).
type Value struct {
	Type Type `json:"t"`
	Null bool `json:"null,omitempty"`

	Bool  bool      `json:"b,omitempty"`
	Int   int64     `json:"i,omitempty"`
	Uint  uint64    `json:"u,omitempty"`
	Float float64   `json:"f,omitempty"`
	Str   string    `json:"s,omitempty"`
	Bytes []byte    `json:"by,omitempty"`
	F32s  []float32 `json:"f32,omitempty"`
	F64s  []float64 `json:"f64,omitempty"`
	I8s   []int8    `json:"i8,omitempty"`
	I16s  []int16   `json:"i16,omitempty"`
	I32s  []int32   `json:"i32,omitempty"`
	I64s  []int64   `json:"i64,omitempty"`
	U32s  []uint32  `json:"u32,omitempty"`
	U64s  []uint64  `json:"u64,omitempty"`
	Bools []bool    `json:"bs,omitempty"`
	Strs  []string  `json:"ss,omitempty"`
}

// NullValue returns an explicit null value of undefined type.
func NullValue() Value {
	return Value{Type: TypeUndefined, Null: true}
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	c := v
	c.Bytes = slices.Clone(v.Bytes)
	c.F32s = slices.Clone(v.F32s)
	c.F64s = slices.Clone(v.F64s)
	c.I8s = slices.Clone(v.I8s)
	c.I16s = slices.Clone(v.I16s)
	c.I32s = slices.Clone(v.I32s)
	c.I64s = slices.Clone(v.I64s)
	c.U32s = slices.Clone(v.U32s)
	c.U64s = slices.Clone(v.U64s)
	c.Bools = slices.Clone(v.Bools)
	c.Strs = slices.Clone(v.Strs)
	return c
}

// Doc is the stored form of a document: primary key, an engine-assigned
// numeric id, an optional similarity score, and a sparse ordered field map.
type Doc struct {
	PK     string           `json:"pk"`
	DocID  uint64           `json:"id,omitempty"`
	Score  float32          `json:"score,omitempty"`
	Names  []string         `json:"names,omitempty"`
	Fields map[string]Value `json:"fields,omitempty"`
}

// NewDoc returns an empty document.
func NewDoc() *Doc {
	return &Doc{Fields: make(map[string]Value)}
}

// Set stores a field value, preserving first-set ordering of field names.
func (d *Doc) Set(name string, v Value) {
	if d.Fields == nil {
		d.Fields = make(map[string]Value)
	}
	if _, ok := d.Fields[name]; !ok {
		d.Names = append(d.Names, name)
	}
	d.Fields[name] = v
}

// Get returns the value stored under name.
func (d *Doc) Get(name string) (Value, bool) {
	v, ok := d.Fields[name]
	return v, ok
}

// Remove deletes a field if present.
func (d *Doc) Remove(name string) {
	if _, ok := d.Fields[name]; !ok {
		return
	}
	delete(d.Fields, name)
	d.Names = slices.DeleteFunc(d.Names, func(n string) bool { return n == name })
}

// Rename moves a field to a new name in place, keeping its position.
func (d *Doc) Rename(from, to string) bool {
	v, ok := d.Fields[from]
	if !ok {
		return false
	}
	delete(d.Fields, from)
	d.Fields[to] = v
	for i, n := range d.Names {
		if n == from {
			d.Names[i] = to
			break
		}
	}
	return true
}

// FieldNames returns the field names in first-set order.
func (d *Doc) FieldNames() []string {
	return slices.Clone(d.Names)
}

// Clone returns a deep copy of d.
func (d *Doc) Clone() *Doc {
	c := &Doc{
		PK:     d.PK,
		DocID:  d.DocID,
		Score:  d.Score,
		Names:  slices.Clone(d.Names),
		Fields: make(map[string]Value, len(d.Fields)),
	}
	for name, v := range d.Fields {
		c.Fields[name] = v.Clone()
	}
	return c
}
