package codec

import "testing"

type benchField struct {
	Name string    `json:"name"`
	Type int       `json:"type"`
	F32s []float32 `json:"f32s,omitempty"`
	Str  string    `json:"str,omitempty"`
}

type benchRecord struct {
	PK     string       `json:"pk"`
	DocID  uint64       `json:"doc_id"`
	Fields []benchField `json:"fields"`
}

func benchRecordFixture() benchRecord {
	return benchRecord{
		PK:    "article-123456",
		DocID: 987654,
		Fields: []benchField{
			{Name: "title", Type: 4, Str: "embedded vector stores in practice"},
			{Name: "views", Type: 2},
			{Name: "embedding", Type: 20, F32s: []float32{
				0.12, -0.98, 0.44, 0.01, -0.33, 0.76, 0.05, -0.21,
				0.67, -0.14, 0.39, 0.88, -0.52, 0.07, 0.29, -0.63,
			}},
		},
	}
}

func benchmarkMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(MustMarshal(c, v))))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkUnmarshal(b *testing.B, c Codec, data []byte) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v benchRecord
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCodec_Marshal_Record(b *testing.B) {
	rec := benchRecordFixture()
	b.Run("stdlib", func(b *testing.B) { benchmarkMarshal(b, JSON{}, rec) })
	b.Run("go-json", func(b *testing.B) { benchmarkMarshal(b, GoJSON{}, rec) })
}

func BenchmarkCodec_Unmarshal_Record(b *testing.B) {
	data := MustMarshal(Default, benchRecordFixture())
	b.Run("stdlib", func(b *testing.B) { benchmarkUnmarshal(b, JSON{}, data) })
	b.Run("go-json", func(b *testing.B) { benchmarkUnmarshal(b, GoJSON{}, data) })
}
