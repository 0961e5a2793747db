package zvec

import (
	"fmt"

	"github.com/seanmozeik/zvec/internal/engine"
)

// IndexParams configures an index attached to a field. One implementation
// exists per IndexType.
type IndexParams interface {
	// IndexType identifies the index algorithm.
	IndexType() IndexType

	// Validate checks parameter soundness.
	Validate() error

	fillSpec(spec *engine.IndexSpec)
}

func validMetric(m MetricType) error {
	switch m {
	case MetricTypeL2, MetricTypeIP, MetricTypeCosine, MetricTypeMipsL2:
		return nil
	default:
		return invalidArgument(fmt.Sprintf("invalid metric type %d", uint32(m)))
	}
}

func validQuantize(q QuantizeType) error {
	switch q {
	case QuantizeTypeNone, QuantizeTypeFP16, QuantizeTypeInt8, QuantizeTypeInt4:
		return nil
	default:
		return invalidArgument(fmt.Sprintf("invalid quantize type %d", uint32(q)))
	}
}

// HNSWIndexParams configures a graph-based vector index.
type HNSWIndexParams struct {
	// M is the number of bidirectional links per node.
	M uint32
	// EFConstruction is the candidate list size during build.
	EFConstruction uint32
	Metric         MetricType
	Quantize       QuantizeType
}

// NewHNSWIndexParams returns HNSW parameters with defaults.
func NewHNSWIndexParams() *HNSWIndexParams {
	return &HNSWIndexParams{M: 16, EFConstruction: 200, Metric: MetricTypeL2}
}

func (p *HNSWIndexParams) IndexType() IndexType { return IndexTypeHNSW }

func (p *HNSWIndexParams) Validate() error {
	if p.M == 0 {
		return invalidArgument("hnsw m must be positive")
	}
	if p.EFConstruction == 0 {
		return invalidArgument("hnsw ef_construction must be positive")
	}
	if err := validMetric(p.Metric); err != nil {
		return err
	}
	return validQuantize(p.Quantize)
}

func (p *HNSWIndexParams) fillSpec(spec *engine.IndexSpec) {
	spec.Metric = p.Metric.engineKind()
	spec.Quantize = p.Quantize.engineKind()
	spec.M = p.M
	spec.EFConstruction = p.EFConstruction
}

// IVFIndexParams configures an inverted-file vector index.
type IVFIndexParams struct {
	// NList is the number of coarse clusters.
	NList uint32
	// NIters is the number of clustering iterations during build.
	NIters   uint32
	UseSOAR  bool
	Metric   MetricType
	Quantize QuantizeType
}

// NewIVFIndexParams returns IVF parameters with defaults.
func NewIVFIndexParams() *IVFIndexParams {
	return &IVFIndexParams{NList: 1024, NIters: 10, Metric: MetricTypeL2}
}

func (p *IVFIndexParams) IndexType() IndexType { return IndexTypeIVF }

func (p *IVFIndexParams) Validate() error {
	if p.NList == 0 {
		return invalidArgument("ivf n_list must be positive")
	}
	if p.NIters == 0 {
		return invalidArgument("ivf n_iters must be positive")
	}
	if err := validMetric(p.Metric); err != nil {
		return err
	}
	return validQuantize(p.Quantize)
}

func (p *IVFIndexParams) fillSpec(spec *engine.IndexSpec) {
	spec.Metric = p.Metric.engineKind()
	spec.Quantize = p.Quantize.engineKind()
	spec.NList = p.NList
	spec.NIters = p.NIters
	spec.UseSOAR = p.UseSOAR
}

// FlatIndexParams configures a brute-force vector index.
type FlatIndexParams struct {
	Metric   MetricType
	Quantize QuantizeType
}

// NewFlatIndexParams returns flat index parameters with defaults.
func NewFlatIndexParams() *FlatIndexParams {
	return &FlatIndexParams{Metric: MetricTypeL2}
}

func (p *FlatIndexParams) IndexType() IndexType { return IndexTypeFlat }

func (p *FlatIndexParams) Validate() error {
	if err := validMetric(p.Metric); err != nil {
		return err
	}
	return validQuantize(p.Quantize)
}

func (p *FlatIndexParams) fillSpec(spec *engine.IndexSpec) {
	spec.Metric = p.Metric.engineKind()
	spec.Quantize = p.Quantize.engineKind()
}

// InvertIndexParams configures a scalar inverted index used for filtering.
type InvertIndexParams struct {
	EnableRangeOptimization bool
}

// NewInvertIndexParams returns invert index parameters with defaults.
func NewInvertIndexParams() *InvertIndexParams {
	return &InvertIndexParams{}
}

func (p *InvertIndexParams) IndexType() IndexType { return IndexTypeInvert }

func (p *InvertIndexParams) Validate() error { return nil }

func (p *InvertIndexParams) fillSpec(spec *engine.IndexSpec) {
	spec.EnableRangeOptimization = p.EnableRangeOptimization
}

func buildIndexSpec(field string, params IndexParams) (engine.IndexSpec, error) {
	if params == nil {
		return engine.IndexSpec{}, invalidArgument("nil index params")
	}
	if err := params.Validate(); err != nil {
		return engine.IndexSpec{}, err
	}
	spec := engine.IndexSpec{
		Field: field,
		Kind:  params.IndexType().engineKind(),
	}
	params.fillSpec(&spec)
	return spec, nil
}

// QueryParams tunes query execution for a specific index type.
type QueryParams interface {
	// Validate checks parameter soundness.
	Validate() error
}

// HNSWQueryParams tunes queries against an HNSW index.
type HNSWQueryParams struct {
	// EFSearch is the candidate list size during search. Zero uses the
	// engine default.
	EFSearch uint32
}

func (p *HNSWQueryParams) Validate() error { return nil }

// IVFQueryParams tunes queries against an IVF index.
type IVFQueryParams struct {
	// NProbe is the number of clusters probed. Zero uses the engine
	// default.
	NProbe uint32
}

func (p *IVFQueryParams) Validate() error { return nil }
