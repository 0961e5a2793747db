package zvec

import (
	"fmt"
	"slices"

	"github.com/seanmozeik/zvec/internal/engine"
)

// FieldSchema describes a single field of a collection.
type FieldSchema struct {
	Name     string
	DataType DataType
	Nullable bool
	// Dimension is required for dense vector fields and ignored elsewhere.
	Dimension uint32
}

type indexEntry struct {
	field  string
	params IndexParams
}

// CollectionSchema is the builder for a collection layout. Fields and
// indexes accumulate through chained calls; structural problems surface
// from Validate or collection creation.
type CollectionSchema struct {
	name    string
	fields  []FieldSchema
	indexes []indexEntry
}

// NewSchema starts a schema for a collection with the given name.
func NewSchema(name string) *CollectionSchema {
	return &CollectionSchema{name: name}
}

// AddField appends a field definition.
func (s *CollectionSchema) AddField(f FieldSchema) *CollectionSchema {
	s.fields = append(s.fields, f)
	return s
}

// AddVectorField appends a dense vector field.
func (s *CollectionSchema) AddVectorField(name string, t DataType, dimension uint32) *CollectionSchema {
	return s.AddField(FieldSchema{Name: name, DataType: t, Dimension: dimension})
}

// AddIndex attaches an index to a field.
func (s *CollectionSchema) AddIndex(field string, params IndexParams) *CollectionSchema {
	s.indexes = append(s.indexes, indexEntry{field: field, params: params})
	return s
}

// Name returns the collection name.
func (s *CollectionSchema) Name() string { return s.name }

// Fields returns a copy of the field definitions.
func (s *CollectionSchema) Fields() []FieldSchema {
	return slices.Clone(s.fields)
}

// Field returns the definition for name.
func (s *CollectionSchema) Field(name string) (FieldSchema, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// Index returns the index params attached to field, if any.
func (s *CollectionSchema) Index(field string) (IndexParams, bool) {
	for _, e := range s.indexes {
		if e.field == field {
			return e.params, true
		}
	}
	return nil, false
}

// FieldNames returns all field names in definition order.
func (s *CollectionSchema) FieldNames() []string {
	names := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		names = append(names, f.Name)
	}
	return names
}

// VectorFieldNames returns the names of all vector fields in definition
// order.
func (s *CollectionSchema) VectorFieldNames() []string {
	var names []string
	for _, f := range s.fields {
		if f.DataType.IsVector() {
			names = append(names, f.Name)
		}
	}
	return names
}

// Validate checks the schema for structural soundness.
func (s *CollectionSchema) Validate() error {
	es, err := s.toEngine()
	if err != nil {
		return err
	}
	return translateError(es.Validate())
}

func (s *CollectionSchema) toEngine() (*engine.Schema, error) {
	if s == nil {
		return nil, invalidArgument("nil schema")
	}
	es := &engine.Schema{Name: s.name}
	for _, f := range s.fields {
		es.Fields = append(es.Fields, engine.FieldSchema{
			Name:      f.Name,
			Type:      f.DataType.recordType(),
			Nullable:  f.Nullable,
			Dimension: f.Dimension,
		})
	}
	for _, e := range s.indexes {
		spec, err := buildIndexSpec(e.field, e.params)
		if err != nil {
			return nil, fmt.Errorf("index on %q: %w", e.field, err)
		}
		es.Indexes = append(es.Indexes, spec)
	}
	return es, nil
}

func schemaFromEngine(es *engine.Schema) *CollectionSchema {
	s := NewSchema(es.Name)
	for _, f := range es.Fields {
		s.AddField(FieldSchema{
			Name:      f.Name,
			DataType:  DataType(f.Type),
			Nullable:  f.Nullable,
			Dimension: f.Dimension,
		})
	}
	for _, ix := range es.Indexes {
		s.AddIndex(ix.Field, paramsFromSpec(ix))
	}
	return s
}

func paramsFromSpec(ix engine.IndexSpec) IndexParams {
	switch ix.Kind {
	case engine.IndexHNSW:
		return &HNSWIndexParams{
			M:              ix.M,
			EFConstruction: ix.EFConstruction,
			Metric:         MetricType(ix.Metric),
			Quantize:       QuantizeType(ix.Quantize),
		}
	case engine.IndexIVF:
		return &IVFIndexParams{
			NList:    ix.NList,
			NIters:   ix.NIters,
			UseSOAR:  ix.UseSOAR,
			Metric:   MetricType(ix.Metric),
			Quantize: QuantizeType(ix.Quantize),
		}
	case engine.IndexInvert:
		return &InvertIndexParams{EnableRangeOptimization: ix.EnableRangeOptimization}
	default:
		return &FlatIndexParams{
			Metric:   MetricType(ix.Metric),
			Quantize: QuantizeType(ix.Quantize),
		}
	}
}
