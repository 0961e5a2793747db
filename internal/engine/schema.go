package engine

import (
	"fmt"
	"slices"

	"github.com/seanmozeik/zvec/distance"
	"github.com/seanmozeik/zvec/internal/record"
)

// IndexKind identifies an index algorithm. The numeric codes are persisted
// in manifests and must stay stable.
type IndexKind uint32

const (
	IndexUndefined IndexKind = 0
	IndexHNSW      IndexKind = 1
	IndexIVF       IndexKind = 3
	IndexFlat      IndexKind = 4
	IndexInvert    IndexKind = 10
)

// MetricKind identifies a similarity metric. The numeric codes are persisted
// in manifests and must stay stable.
type MetricKind uint32

const (
	MetricUndefined MetricKind = 0
	MetricL2        MetricKind = 1
	MetricIP        MetricKind = 2
	MetricCosine    MetricKind = 3
	MetricMipsL2    MetricKind = 4
)

// DistanceMetric maps a metric code onto its scoring function family.
func (m MetricKind) DistanceMetric() distance.Metric {
	switch m {
	case MetricIP, MetricMipsL2:
		return distance.MetricDot
	case MetricCosine:
		return distance.MetricCosine
	default:
		return distance.MetricL2
	}
}

// QuantizeKind identifies vector quantization applied inside an index.
type QuantizeKind uint32

const (
	QuantizeNone QuantizeKind = 0
	QuantizeFP16 QuantizeKind = 1
	QuantizeInt8 QuantizeKind = 2
	QuantizeInt4 QuantizeKind = 3
)

// IndexSpec describes an index attached to a field.
type IndexSpec struct {
	Field    string       `json:"field"`
	Kind     IndexKind    `json:"kind"`
	Metric   MetricKind   `json:"metric,omitempty"`
	Quantize QuantizeKind `json:"quantize,omitempty"`

	// HNSW
	M              uint32 `json:"m,omitempty"`
	EFConstruction uint32 `json:"ef_construction,omitempty"`

	// IVF
	NList   uint32 `json:"n_list,omitempty"`
	NIters  uint32 `json:"n_iters,omitempty"`
	UseSOAR bool   `json:"use_soar,omitempty"`

	// Invert
	EnableRangeOptimization bool `json:"enable_range_optimization,omitempty"`
}

// FieldSchema describes a single field.
type FieldSchema struct {
	Name      string      `json:"name"`
	Type      record.Type `json:"type"`
	Nullable  bool        `json:"nullable,omitempty"`
	Dimension uint32      `json:"dimension,omitempty"`
}

// Schema is the full layout of a collection.
type Schema struct {
	Name    string        `json:"name"`
	Fields  []FieldSchema `json:"fields"`
	Indexes []IndexSpec   `json:"indexes,omitempty"`
}

// Field returns the schema entry for name.
func (s *Schema) Field(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Index returns the index attached to field, if any.
func (s *Schema) Index(field string) (IndexSpec, bool) {
	for _, ix := range s.Indexes {
		if ix.Field == field {
			return ix, true
		}
	}
	return IndexSpec{}, false
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	return &Schema{
		Name:    s.Name,
		Fields:  slices.Clone(s.Fields),
		Indexes: slices.Clone(s.Indexes),
	}
}

// Validate checks structural soundness of the schema.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: collection name is empty", ErrInvalidArgument)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: schema has no fields", ErrInvalidArgument)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: field name is empty", ErrInvalidArgument)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidArgument, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Type == record.TypeUndefined {
			return fmt.Errorf("%w: field %q has undefined type", ErrInvalidArgument, f.Name)
		}
		if f.Type.IsVector() && !f.Type.IsSparseVector() && f.Dimension == 0 {
			return fmt.Errorf("%w: vector field %q has zero dimension", ErrInvalidArgument, f.Name)
		}
	}
	for _, ix := range s.Indexes {
		f, ok := s.Field(ix.Field)
		if !ok {
			return fmt.Errorf("%w: index refers to unknown field %q", ErrNotFound, ix.Field)
		}
		if err := validateIndexSpec(ix, f); err != nil {
			return err
		}
	}
	return nil
}

func validateIndexSpec(ix IndexSpec, f FieldSchema) error {
	switch ix.Kind {
	case IndexHNSW, IndexIVF, IndexFlat:
		if !f.Type.IsVector() {
			return fmt.Errorf("%w: vector index on non-vector field %q", ErrInvalidArgument, f.Name)
		}
	case IndexInvert:
		if f.Type.IsVector() {
			return fmt.Errorf("%w: invert index on vector field %q", ErrInvalidArgument, f.Name)
		}
	default:
		return fmt.Errorf("%w: unknown index kind %d on field %q", ErrInvalidArgument, ix.Kind, f.Name)
	}
	return nil
}

// ValidateDoc checks a document against the schema. Unknown fields, type
// mismatches, wrong vector dimensions, and nulls in non-nullable fields are
// rejected.
func (s *Schema) ValidateDoc(doc *record.Doc) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidArgument)
	}
	if doc.PK == "" {
		return fmt.Errorf("%w: empty primary key", ErrInvalidArgument)
	}
	for _, name := range doc.Names {
		v := doc.Fields[name]
		f, ok := s.Field(name)
		if !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidArgument, name)
		}
		if v.Null {
			if !f.Nullable {
				return fmt.Errorf("%w: null value in non-nullable field %q", ErrInvalidArgument, name)
			}
			continue
		}
		if v.Type != f.Type {
			return fmt.Errorf("%w: field %q expects type %d, got %d", ErrInvalidArgument, name, f.Type, v.Type)
		}
		if f.Type == record.TypeVectorFP32 && uint32(len(v.F32s)) != f.Dimension {
			return fmt.Errorf("%w: field %q expects dimension %d, got %d", ErrInvalidArgument, name, f.Dimension, len(v.F32s))
		}
		if f.Type == record.TypeVectorFP64 && uint32(len(v.F64s)) != f.Dimension {
			return fmt.Errorf("%w: field %q expects dimension %d, got %d", ErrInvalidArgument, name, f.Dimension, len(v.F64s))
		}
		if f.Type == record.TypeVectorInt8 && uint32(len(v.I8s)) != f.Dimension {
			return fmt.Errorf("%w: field %q expects dimension %d, got %d", ErrInvalidArgument, name, f.Dimension, len(v.I8s))
		}
		if f.Type == record.TypeVectorInt16 && uint32(len(v.I16s)) != f.Dimension {
			return fmt.Errorf("%w: field %q expects dimension %d, got %d", ErrInvalidArgument, name, f.Dimension, len(v.I16s))
		}
	}
	for _, f := range s.Fields {
		if f.Nullable {
			continue
		}
		if _, ok := doc.Fields[f.Name]; !ok {
			return fmt.Errorf("%w: missing non-nullable field %q", ErrInvalidArgument, f.Name)
		}
	}
	return nil
}
