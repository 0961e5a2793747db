package zvec

import (
	"fmt"

	"github.com/seanmozeik/zvec/internal/engine"
	"github.com/seanmozeik/zvec/internal/record"
)

// DataType identifies the value type of a field. The numeric codes are part
// of the persisted format and stay stable.
type DataType uint32

const (
	DataTypeUndefined DataType = 0

	DataTypeBinary  DataType = 1
	DataTypeString  DataType = 2
	DataTypeBool    DataType = 3
	DataTypeInt32   DataType = 4
	DataTypeInt64   DataType = 5
	DataTypeUint32  DataType = 6
	DataTypeUint64  DataType = 7
	DataTypeFloat32 DataType = 8
	DataTypeFloat64 DataType = 9

	DataTypeVectorFP16  DataType = 22
	DataTypeVectorFP32  DataType = 23
	DataTypeVectorFP64  DataType = 24
	DataTypeVectorInt4  DataType = 25
	DataTypeVectorInt8  DataType = 26
	DataTypeVectorInt16 DataType = 27

	DataTypeSparseVectorFP16 DataType = 30
	DataTypeSparseVectorFP32 DataType = 31

	DataTypeArrayBinary  DataType = 40
	DataTypeArrayString  DataType = 41
	DataTypeArrayBool    DataType = 42
	DataTypeArrayInt32   DataType = 43
	DataTypeArrayInt64   DataType = 44
	DataTypeArrayUint32  DataType = 45
	DataTypeArrayUint64  DataType = 46
	DataTypeArrayFloat32 DataType = 47
	DataTypeArrayFloat64 DataType = 48
)

func (t DataType) String() string {
	switch t {
	case DataTypeBinary:
		return "BINARY"
	case DataTypeString:
		return "STRING"
	case DataTypeBool:
		return "BOOL"
	case DataTypeInt32:
		return "INT32"
	case DataTypeInt64:
		return "INT64"
	case DataTypeUint32:
		return "UINT32"
	case DataTypeUint64:
		return "UINT64"
	case DataTypeFloat32:
		return "FLOAT32"
	case DataTypeFloat64:
		return "FLOAT64"
	case DataTypeVectorFP16:
		return "VECTOR_FP16"
	case DataTypeVectorFP32:
		return "VECTOR_FP32"
	case DataTypeVectorFP64:
		return "VECTOR_FP64"
	case DataTypeVectorInt4:
		return "VECTOR_INT4"
	case DataTypeVectorInt8:
		return "VECTOR_INT8"
	case DataTypeVectorInt16:
		return "VECTOR_INT16"
	case DataTypeSparseVectorFP16:
		return "SPARSE_VECTOR_FP16"
	case DataTypeSparseVectorFP32:
		return "SPARSE_VECTOR_FP32"
	case DataTypeArrayBinary:
		return "ARRAY_BINARY"
	case DataTypeArrayString:
		return "ARRAY_STRING"
	case DataTypeArrayBool:
		return "ARRAY_BOOL"
	case DataTypeArrayInt32:
		return "ARRAY_INT32"
	case DataTypeArrayInt64:
		return "ARRAY_INT64"
	case DataTypeArrayUint32:
		return "ARRAY_UINT32"
	case DataTypeArrayUint64:
		return "ARRAY_UINT64"
	case DataTypeArrayFloat32:
		return "ARRAY_FLOAT32"
	case DataTypeArrayFloat64:
		return "ARRAY_FLOAT64"
	default:
		return fmt.Sprintf("UNDEFINED(%d)", uint32(t))
	}
}

// IsVector reports whether t is a dense or sparse vector type.
func (t DataType) IsVector() bool {
	return record.Type(t).IsVector()
}

// IsSparseVector reports whether t is a sparse vector type.
func (t DataType) IsSparseVector() bool {
	return record.Type(t).IsSparseVector()
}

// IsArray reports whether t is an array type.
func (t DataType) IsArray() bool {
	return record.Type(t).IsArray()
}

// IndexType identifies an index algorithm.
type IndexType uint32

const (
	IndexTypeUndefined IndexType = 0
	IndexTypeHNSW      IndexType = 1
	IndexTypeIVF       IndexType = 3
	IndexTypeFlat      IndexType = 4
	IndexTypeInvert    IndexType = 10
)

func (t IndexType) String() string {
	switch t {
	case IndexTypeHNSW:
		return "HNSW"
	case IndexTypeIVF:
		return "IVF"
	case IndexTypeFlat:
		return "FLAT"
	case IndexTypeInvert:
		return "INVERT"
	default:
		return fmt.Sprintf("UNDEFINED(%d)", uint32(t))
	}
}

// MetricType identifies a similarity metric.
type MetricType uint32

const (
	MetricTypeUndefined MetricType = 0
	MetricTypeL2        MetricType = 1
	MetricTypeIP        MetricType = 2
	MetricTypeCosine    MetricType = 3
	MetricTypeMipsL2    MetricType = 4
)

func (t MetricType) String() string {
	switch t {
	case MetricTypeL2:
		return "L2"
	case MetricTypeIP:
		return "IP"
	case MetricTypeCosine:
		return "COSINE"
	case MetricTypeMipsL2:
		return "MIPS_L2"
	default:
		return fmt.Sprintf("UNDEFINED(%d)", uint32(t))
	}
}

// QuantizeType identifies vector quantization applied inside an index.
type QuantizeType uint32

const (
	QuantizeTypeNone QuantizeType = 0
	QuantizeTypeFP16 QuantizeType = 1
	QuantizeTypeInt8 QuantizeType = 2
	QuantizeTypeInt4 QuantizeType = 3
)

func (t QuantizeType) String() string {
	switch t {
	case QuantizeTypeNone:
		return "NONE"
	case QuantizeTypeFP16:
		return "FP16"
	case QuantizeTypeInt8:
		return "INT8"
	case QuantizeTypeInt4:
		return "INT4"
	default:
		return fmt.Sprintf("UNDEFINED(%d)", uint32(t))
	}
}

func (t DataType) recordType() record.Type { return record.Type(t) }

func (t IndexType) engineKind() engine.IndexKind { return engine.IndexKind(t) }

func (t MetricType) engineKind() engine.MetricKind { return engine.MetricKind(t) }

func (t QuantizeType) engineKind() engine.QuantizeKind { return engine.QuantizeKind(t) }
