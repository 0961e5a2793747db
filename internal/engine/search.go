package engine

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/seanmozeik/zvec/distance"
	"github.com/seanmozeik/zvec/internal/filter"
	"github.com/seanmozeik/zvec/internal/record"
)

const defaultTopK = 10

// SearchRequest describes a vector similarity query. Exactly one of Vector
// or the SparseIndices/SparseValues pair must be set.
type SearchRequest struct {
	Field         string
	Vector        []float32
	SparseIndices []uint32
	SparseValues  []float32
	TopK          int
	Filter        string
	OutputFields  []string
	IncludeVector bool
	IncludeDocID  bool
}

// GroupSearchRequest describes a vector query whose results are bucketed by
// a scalar field.
type GroupSearchRequest struct {
	SearchRequest
	GroupBy    string
	GroupCount int
	GroupTopK  int
}

// Group is one bucket of a grouped search result, ranked by its best hit.
type Group struct {
	Key  string
	Docs []*record.Doc
}

// Search runs an exact scan over all documents and returns the top-k closest
// under the field's metric. Returned documents are detached copies.
func (e *Engine) Search(req *SearchRequest) ([]*record.Doc, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkReadable(); err != nil {
		return nil, err
	}
	metric, pred, err := e.prepareSearch(req)
	if err != nil {
		return nil, err
	}

	hits, err := e.scan(req, metric, pred)
	if err != nil {
		return nil, err
	}
	if req.TopK < len(hits) {
		hits = hits[:req.TopK]
	}

	out := make([]*record.Doc, 0, len(hits))
	for _, h := range hits {
		doc, err := e.project(h.doc, req.OutputFields, req.IncludeVector, req.IncludeDocID)
		if err != nil {
			return nil, err
		}
		doc.Score = h.score
		out = append(out, doc)
	}
	return out, nil
}

// GroupSearch buckets matches by a scalar field. Each group keeps its own
// top hits and groups are ordered by their best hit.
func (e *Engine) GroupSearch(req *GroupSearchRequest) ([]Group, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkReadable(); err != nil {
		return nil, err
	}
	if req.GroupBy == "" {
		return nil, fmt.Errorf("%w: empty group-by field", ErrInvalidArgument)
	}
	groupField, ok := e.schema.Field(req.GroupBy)
	if !ok {
		return nil, fmt.Errorf("%w: group-by field %q", ErrNotFound, req.GroupBy)
	}
	if groupField.Type.IsVector() || groupField.Type.IsArray() {
		return nil, fmt.Errorf("%w: group-by on field %q of type %d", ErrNotSupported, req.GroupBy, groupField.Type)
	}
	groupCount := req.GroupCount
	if groupCount == 0 {
		groupCount = defaultTopK
	}
	groupTopK := req.GroupTopK
	if groupTopK == 0 {
		groupTopK = defaultTopK
	}
	if groupCount < 0 || groupTopK < 0 {
		return nil, fmt.Errorf("%w: negative group limits", ErrInvalidArgument)
	}

	metric, pred, err := e.prepareSearch(&req.SearchRequest)
	if err != nil {
		return nil, err
	}
	hits, err := e.scan(&req.SearchRequest, metric, pred)
	if err != nil {
		return nil, err
	}

	// Hits arrive best-first, so groups form in rank order.
	byKey := make(map[string]int)
	var groups []Group
	for _, h := range hits {
		v, ok := h.doc.Get(req.GroupBy)
		if !ok || v.Null {
			continue
		}
		key := groupKey(v)
		idx, ok := byKey[key]
		if !ok {
			if len(groups) >= groupCount {
				continue
			}
			byKey[key] = len(groups)
			idx = len(groups)
			groups = append(groups, Group{Key: key})
		}
		if len(groups[idx].Docs) >= groupTopK {
			continue
		}
		doc, err := e.project(h.doc, req.OutputFields, req.IncludeVector, req.IncludeDocID)
		if err != nil {
			return nil, err
		}
		doc.Score = h.score
		groups[idx].Docs = append(groups[idx].Docs, doc)
	}
	return groups, nil
}

// Fetch returns documents by primary key. Absent keys are omitted from the
// result. Returned documents are detached copies.
func (e *Engine) Fetch(pks []string, outputFields []string, includeVector bool) (map[string]*record.Doc, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if err := e.checkReadable(); err != nil {
		return nil, err
	}
	out := make(map[string]*record.Doc, len(pks))
	for _, pk := range pks {
		if pk == "" {
			return nil, fmt.Errorf("%w: empty primary key", ErrInvalidArgument)
		}
		doc, ok := e.docs[pk]
		if !ok {
			continue
		}
		projected, err := e.project(doc, outputFields, includeVector, false)
		if err != nil {
			return nil, err
		}
		out[pk] = projected
	}
	return out, nil
}

func (e *Engine) prepareSearch(req *SearchRequest) (distance.Metric, filter.Expr, error) {
	if req == nil {
		return 0, nil, fmt.Errorf("%w: nil search request", ErrInvalidArgument)
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	if req.TopK < 0 {
		return 0, nil, fmt.Errorf("%w: negative top-k", ErrInvalidArgument)
	}
	f, ok := e.schema.Field(req.Field)
	if !ok {
		return 0, nil, fmt.Errorf("%w: vector field %q", ErrNotFound, req.Field)
	}
	if !f.Type.IsVector() {
		return 0, nil, fmt.Errorf("%w: field %q is not a vector field", ErrInvalidArgument, req.Field)
	}
	sparse := len(req.SparseIndices) > 0 || len(req.SparseValues) > 0
	if sparse && len(req.Vector) > 0 {
		return 0, nil, fmt.Errorf("%w: both dense and sparse query vectors set", ErrInvalidArgument)
	}

	// Sparse queries score by dot product; dense queries use the field's
	// index metric, or L2 when the field is unindexed.
	var metric distance.Metric
	switch {
	case sparse:
		if len(req.SparseIndices) != len(req.SparseValues) {
			return 0, nil, fmt.Errorf("%w: sparse query has %d indices and %d values", ErrInvalidArgument, len(req.SparseIndices), len(req.SparseValues))
		}
		if f.Type != record.TypeSparseVectorFP32 {
			return 0, nil, fmt.Errorf("%w: sparse search on vector type %d", ErrNotSupported, f.Type)
		}
		metric = distance.MetricDot
	case f.Type.IsSparseVector():
		return 0, nil, fmt.Errorf("%w: field %q expects a sparse query vector", ErrInvalidArgument, req.Field)
	default:
		if f.Type != record.TypeVectorFP32 {
			return 0, nil, fmt.Errorf("%w: search on vector type %d", ErrNotSupported, f.Type)
		}
		if len(req.Vector) == 0 {
			return 0, nil, fmt.Errorf("%w: empty query vector", ErrInvalidArgument)
		}
		if uint32(len(req.Vector)) != f.Dimension {
			return 0, nil, fmt.Errorf("%w: query dimension %d, field expects %d", ErrInvalidArgument, len(req.Vector), f.Dimension)
		}
		metric = distance.MetricL2
		if ix, ok := e.schema.Index(req.Field); ok {
			metric = ix.Metric.DistanceMetric()
		}
	}
	for _, name := range req.OutputFields {
		if _, ok := e.schema.Field(name); !ok {
			return 0, nil, fmt.Errorf("%w: output field %q", ErrNotFound, name)
		}
	}

	var pred filter.Expr
	if req.Filter != "" {
		var err error
		pred, err = e.compileFilter(req.Filter)
		if err != nil {
			return 0, nil, err
		}
	}
	return metric, pred, nil
}

type hit struct {
	doc   *record.Doc
	score float32
}

// scan scores every candidate document and returns hits best-first.
func (e *Engine) scan(req *SearchRequest, metric distance.Metric, pred filter.Expr) ([]hit, error) {
	var score func(v record.Value) (float32, bool)
	if len(req.SparseIndices) > 0 {
		score = func(v record.Value) (float32, bool) {
			if v.Type != record.TypeSparseVectorFP32 {
				return 0, false
			}
			return distance.SparseDot(req.SparseIndices, req.SparseValues, v.U32s, v.F32s), true
		}
	} else {
		distFn, err := distance.Provider(metric)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		score = func(v record.Value) (float32, bool) {
			if len(v.F32s) != len(req.Vector) {
				return 0, false
			}
			return distFn(req.Vector, v.F32s), true
		}
	}

	hits := make([]hit, 0, len(e.docs))
	for _, doc := range e.docs {
		if pred != nil && !pred.Matches(doc) {
			continue
		}
		v, ok := doc.Get(req.Field)
		if !ok || v.Null {
			continue
		}
		s, ok := score(v)
		if !ok {
			continue
		}
		hits = append(hits, hit{doc: doc, score: s})
	}

	higher := metric.HigherIsBetter()
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			if higher {
				return hits[i].score > hits[j].score
			}
			return hits[i].score < hits[j].score
		}
		return hits[i].doc.PK < hits[j].doc.PK
	})
	return hits, nil
}

// project builds the caller-visible copy of a stored document. Vector fields
// are withheld unless requested.
func (e *Engine) project(doc *record.Doc, outputFields []string, includeVector, includeDocID bool) (*record.Doc, error) {
	out := record.NewDoc()
	out.PK = doc.PK
	if includeDocID {
		out.DocID = doc.DocID
	}

	names := doc.Names
	if len(outputFields) > 0 {
		names = outputFields
	}
	for _, name := range names {
		v, ok := doc.Get(name)
		if !ok {
			continue
		}
		f, ok := e.schema.Field(name)
		if ok && f.Type.IsVector() && !includeVector {
			continue
		}
		out.Set(name, v.Clone())
	}
	return out, nil
}

// groupKey renders a scalar value as a stable bucket key.
func groupKey(v record.Value) string {
	switch v.Type {
	case record.TypeString:
		return v.Str
	case record.TypeBool:
		return strconv.FormatBool(v.Bool)
	case record.TypeInt32, record.TypeInt64:
		return strconv.FormatInt(v.Int, 10)
	case record.TypeUint32, record.TypeUint64:
		return strconv.FormatUint(v.Uint, 10)
	case record.TypeFloat32, record.TypeFloat64:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case record.TypeBinary:
		return string(v.Bytes)
	default:
		return ""
	}
}
