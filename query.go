package zvec

import (
	"fmt"

	"github.com/seanmozeik/zvec/internal/engine"
)

// VectorQuery describes a similarity search against one vector field.
// The zero values of the optional knobs select engine defaults: TopK 10,
// no filter, all non-vector fields in the result.
type VectorQuery struct {
	// Field is the vector field to search.
	Field string

	// Vector is the dense float32 query vector. Its length must match the
	// field's dimension. Exactly one of Vector or the sparse pair below
	// may be set.
	Vector []float32

	// SparseIndices and SparseValues form a sparse float32 query vector as
	// parallel slices. Only valid against sparse vector fields.
	SparseIndices []uint32
	SparseValues  []float32

	// TopK caps the number of results. Zero means 10.
	TopK int

	// Filter restricts candidates with a boolean expression over scalar
	// fields, e.g. `category = 'news' AND views > 100`.
	Filter string

	// OutputFields restricts which fields result documents carry. Empty
	// means all fields.
	OutputFields []string

	// IncludeVector adds vector fields to result documents.
	IncludeVector bool

	// IncludeDocID adds the engine-assigned document id to results.
	IncludeDocID bool

	// Params tunes execution for the field's index type.
	Params QueryParams
}

// NewVectorQuery creates a query against field with the given vector.
func NewVectorQuery(field string, vector []float32) *VectorQuery {
	return &VectorQuery{Field: field, Vector: vector}
}

// NewSparseVectorQuery creates a query against a sparse vector field from
// parallel index and value slices.
func NewSparseVectorQuery(field string, indices []uint32, values []float32) *VectorQuery {
	return &VectorQuery{Field: field, SparseIndices: indices, SparseValues: values}
}

func (q *VectorQuery) toEngine() (*engine.SearchRequest, error) {
	if q == nil {
		return nil, invalidArgument("nil query")
	}
	if len(q.SparseIndices) != len(q.SparseValues) {
		return nil, invalidArgument(fmt.Sprintf("sparse query has %d indices and %d values", len(q.SparseIndices), len(q.SparseValues)))
	}
	if q.Params != nil {
		if err := q.Params.Validate(); err != nil {
			return nil, err
		}
	}
	return &engine.SearchRequest{
		Field:         q.Field,
		Vector:        q.Vector,
		SparseIndices: q.SparseIndices,
		SparseValues:  q.SparseValues,
		TopK:          q.TopK,
		Filter:        q.Filter,
		OutputFields:  q.OutputFields,
		IncludeVector: q.IncludeVector,
		IncludeDocID:  q.IncludeDocID,
	}, nil
}

// GroupByVectorQuery is a similarity search whose results are bucketed by a
// scalar field. Groups are ranked by their best hit.
type GroupByVectorQuery struct {
	VectorQuery

	// GroupByField is the scalar field to bucket by.
	GroupByField string

	// GroupCount caps the number of groups. Zero means 10.
	GroupCount int

	// GroupTopK caps the documents kept per group. Zero means 10.
	GroupTopK int
}

// NewGroupByVectorQuery creates a grouped query against field, bucketing by
// groupBy.
func NewGroupByVectorQuery(field string, vector []float32, groupBy string) *GroupByVectorQuery {
	return &GroupByVectorQuery{
		VectorQuery:  VectorQuery{Field: field, Vector: vector},
		GroupByField: groupBy,
	}
}

// Group is one bucket of a grouped search result.
type Group struct {
	// Key is the group field's value rendered as a string.
	Key string

	// Docs are the group's hits, best first.
	Docs []*Doc
}

// FetchOptions configures point lookups by primary key.
type FetchOptions struct {
	// OutputFields restricts which fields fetched documents carry. Empty
	// means all fields.
	OutputFields []string

	// IncludeVector adds vector fields to fetched documents.
	IncludeVector bool
}
