package zvec

import (
	"slices"
	"sync"
)

// Registries of supported types. The slices are built once on first use and
// callers receive copies.
var (
	dataTypesOnce sync.Once
	dataTypes     []DataType

	indexTypesOnce sync.Once
	indexTypes     []IndexType

	metricTypesOnce sync.Once
	metricTypes     []MetricType

	quantizeTypesOnce sync.Once
	quantizeTypes     []QuantizeType
)

// DataTypes returns all field data types the engine accepts.
func DataTypes() []DataType {
	dataTypesOnce.Do(func() {
		dataTypes = []DataType{
			DataTypeBinary, DataTypeString, DataTypeBool,
			DataTypeInt32, DataTypeInt64, DataTypeUint32, DataTypeUint64,
			DataTypeFloat32, DataTypeFloat64,
			DataTypeVectorFP16, DataTypeVectorFP32, DataTypeVectorFP64,
			DataTypeVectorInt4, DataTypeVectorInt8, DataTypeVectorInt16,
			DataTypeSparseVectorFP16, DataTypeSparseVectorFP32,
			DataTypeArrayBinary, DataTypeArrayString, DataTypeArrayBool,
			DataTypeArrayInt32, DataTypeArrayInt64, DataTypeArrayUint32,
			DataTypeArrayUint64, DataTypeArrayFloat32, DataTypeArrayFloat64,
		}
	})
	return slices.Clone(dataTypes)
}

// IndexTypes returns all supported index algorithms.
func IndexTypes() []IndexType {
	indexTypesOnce.Do(func() {
		indexTypes = []IndexType{IndexTypeHNSW, IndexTypeIVF, IndexTypeFlat, IndexTypeInvert}
	})
	return slices.Clone(indexTypes)
}

// MetricTypes returns all supported similarity metrics.
func MetricTypes() []MetricType {
	metricTypesOnce.Do(func() {
		metricTypes = []MetricType{MetricTypeL2, MetricTypeIP, MetricTypeCosine, MetricTypeMipsL2}
	})
	return slices.Clone(metricTypes)
}

// QuantizeTypes returns all supported quantization modes.
func QuantizeTypes() []QuantizeType {
	quantizeTypesOnce.Do(func() {
		quantizeTypes = []QuantizeType{QuantizeTypeNone, QuantizeTypeFP16, QuantizeTypeInt8, QuantizeTypeInt4}
	})
	return slices.Clone(quantizeTypes)
}
