package zvec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articleSchema() *CollectionSchema {
	return NewSchema("articles").
		AddField(FieldSchema{Name: "title", DataType: DataTypeString}).
		AddField(FieldSchema{Name: "views", DataType: DataTypeInt64}).
		AddField(FieldSchema{Name: "category", DataType: DataTypeString, Nullable: true}).
		AddVectorField("embedding", DataTypeVectorFP32, 4).
		AddIndex("embedding", &HNSWIndexParams{M: 16, EFConstruction: 200, Metric: MetricTypeCosine})
}

func newArticle(pk, title string, views int64, embedding []float32) *Doc {
	doc := NewDoc(pk)
	doc.SetString("title", title)
	doc.SetInt64("views", views)
	doc.SetVectorFloat32("embedding", embedding)
	return doc
}

func createTestCollection(t *testing.T) *Collection {
	t.Helper()
	coll, err := CreateCollection(context.Background(), t.TempDir()+"/articles", articleSchema())
	require.NoError(t, err)
	t.Cleanup(func() { _ = coll.Close() })
	return coll
}

func TestCreateCollection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir() + "/articles"

	coll, err := CreateCollection(ctx, dir, articleSchema())
	require.NoError(t, err)
	defer coll.Close()

	assert.NotEmpty(t, coll.UUID())
	assert.Equal(t, dir, coll.Path())

	schema := coll.Schema()
	assert.Equal(t, "articles", schema.Name())
	assert.Equal(t, []string{"title", "views", "category", "embedding"}, schema.FieldNames())
	assert.Equal(t, []string{"embedding"}, schema.VectorFieldNames())

	// Creating again at the same path conflicts.
	_, err = CreateCollection(ctx, dir, articleSchema())
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyExists, CodeOf(err))
}

func TestCreateCollectionInvalidSchema(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		schema *CollectionSchema
		code   Code
	}{
		{"no fields", NewSchema("empty"), CodeInvalidArgument},
		{"empty name", NewSchema("").AddField(FieldSchema{Name: "a", DataType: DataTypeString}), CodeInvalidArgument},
		{
			"duplicate field",
			NewSchema("dup").
				AddField(FieldSchema{Name: "a", DataType: DataTypeString}).
				AddField(FieldSchema{Name: "a", DataType: DataTypeInt64}),
			CodeInvalidArgument,
		},
		{
			"zero dimension vector",
			NewSchema("vec").AddVectorField("v", DataTypeVectorFP32, 0),
			CodeInvalidArgument,
		},
		{
			"index on unknown field",
			NewSchema("ix").
				AddField(FieldSchema{Name: "a", DataType: DataTypeString}).
				AddIndex("missing", NewFlatIndexParams()),
			CodeNotFound,
		},
		{
			"vector index on scalar field",
			NewSchema("ix").
				AddField(FieldSchema{Name: "a", DataType: DataTypeString}).
				AddIndex("a", NewHNSWIndexParams()),
			CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateCollection(ctx, t.TempDir()+"/c", tt.schema)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestUpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	errs := coll.Upsert(ctx,
		newArticle("a", "first", 10, []float32{1, 0, 0, 0}),
		newArticle("b", "second", 20, []float32{0, 1, 0, 0}),
		newArticle("c", "third", 30, []float32{0.9, 0.1, 0, 0}),
	)
	require.Len(t, errs, 3)
	for i, err := range errs {
		require.NoError(t, err, "doc %d", i)
	}

	hits, err := coll.Search(ctx, &VectorQuery{
		Field:  "embedding",
		Vector: []float32{1, 0, 0, 0},
		TopK:   2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Cosine ranks the identical vector first, the near-identical second.
	assert.Equal(t, "a", hits[0].PK())
	assert.Equal(t, "c", hits[1].PK())
	assert.InDelta(t, 1.0, hits[0].Score(), 1e-5)
	assert.InDelta(t, 0.99388, hits[1].Score(), 1e-4)
	assert.Greater(t, hits[0].Score(), hits[1].Score())

	// Non-vector fields come back by default, vectors do not.
	title, ok := hits[0].String("title")
	require.True(t, ok)
	assert.Equal(t, "first", title)
	assert.False(t, hits[0].Has("embedding"))
}

func TestSearchIncludeVectorAndOutputFields(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	hits, err := coll.Search(ctx, &VectorQuery{
		Field:         "embedding",
		Vector:        []float32{1, 0, 0, 0},
		OutputFields:  []string{"title", "embedding"},
		IncludeVector: true,
		IncludeDocID:  true,
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, []string{"title", "embedding"}, hits[0].FieldNames())
	vec, ok := hits[0].VectorFloat32("embedding")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec)
	assert.NotZero(t, hits[0].DocID())

	// Unknown output field is rejected.
	_, err = coll.Search(ctx, &VectorQuery{
		Field:        "embedding",
		Vector:       []float32{1, 0, 0, 0},
		OutputFields: []string{"nope"},
	})
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestSearchValidation(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	tests := []struct {
		name string
		q    *VectorQuery
		code Code
	}{
		{"nil query", nil, CodeInvalidArgument},
		{"unknown field", &VectorQuery{Field: "nope", Vector: []float32{1, 0, 0, 0}}, CodeNotFound},
		{"scalar field", &VectorQuery{Field: "title", Vector: []float32{1, 0, 0, 0}}, CodeInvalidArgument},
		{"dimension mismatch", &VectorQuery{Field: "embedding", Vector: []float32{1, 0}}, CodeInvalidArgument},
		{"empty vector", &VectorQuery{Field: "embedding"}, CodeInvalidArgument},
		{"negative top-k", &VectorQuery{Field: "embedding", Vector: []float32{1, 0, 0, 0}, TopK: -1}, CodeInvalidArgument},
		{"bad filter", &VectorQuery{Field: "embedding", Vector: []float32{1, 0, 0, 0}, Filter: "views >"}, CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coll.Search(ctx, tt.q)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestSearchWithFilter(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	errs := coll.Upsert(ctx,
		newArticle("a", "first", 10, []float32{1, 0, 0, 0}),
		newArticle("b", "second", 20, []float32{0.95, 0.05, 0, 0}),
		newArticle("c", "third", 30, []float32{0.9, 0.1, 0, 0}),
	)
	for _, err := range errs {
		require.NoError(t, err)
	}

	hits, err := coll.Search(ctx, &VectorQuery{
		Field:  "embedding",
		Vector: []float32{1, 0, 0, 0},
		Filter: "views > 15",
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].PK())
	assert.Equal(t, "c", hits[1].PK())
}

func TestSparseSearch(t *testing.T) {
	ctx := context.Background()
	schema := NewSchema("terms").
		AddField(FieldSchema{Name: "lang", DataType: DataTypeString}).
		AddField(FieldSchema{Name: "tf", DataType: DataTypeSparseVectorFP32})
	coll, err := CreateCollection(ctx, t.TempDir()+"/terms", schema)
	require.NoError(t, err)
	defer coll.Close()

	sparseDoc := func(pk, lang string, idx []uint32, vals []float32) *Doc {
		doc := NewDoc(pk)
		doc.SetString("lang", lang)
		require.NoError(t, doc.SetSparseVectorFloat32("tf", idx, vals))
		return doc
	}
	errs := coll.Upsert(ctx,
		sparseDoc("a", "de", []uint32{1, 7}, []float32{1, 2}),
		sparseDoc("b", "fr", []uint32{7, 9}, []float32{3, 1}),
	)
	for _, err := range errs {
		require.NoError(t, err)
	}

	// Sparse hits are ranked by dot product, highest first.
	hits, err := coll.Search(ctx, NewSparseVectorQuery("tf", []uint32{7}, []float32{2}))
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "b", hits[0].PK())
	assert.Equal(t, "a", hits[1].PK())
	assert.InDelta(t, 6, hits[0].Score(), 1e-6)

	// A query may carry a dense or a sparse vector, never both.
	q := NewSparseVectorQuery("tf", []uint32{7}, []float32{2})
	q.Vector = []float32{1, 0}
	_, err = coll.Search(ctx, q)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	_, err = coll.Search(ctx, NewSparseVectorQuery("tf", []uint32{1, 2}, []float32{1}))
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestInsertConflictGranularity(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Insert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	// One conflicting, one nil, one fine: exactly three slots, each with
	// its own outcome.
	errs := coll.Insert(ctx,
		newArticle("a", "again", 11, []float32{1, 0, 0, 0}),
		nil,
		newArticle("b", "second", 20, []float32{0, 1, 0, 0}),
	)
	require.Len(t, errs, 3)
	assert.Equal(t, CodeAlreadyExists, CodeOf(errs[0]))
	assert.Equal(t, CodeInvalidArgument, CodeOf(errs[1]))
	assert.NoError(t, errs[2])

	// The failed slots did not disturb state: "a" keeps its original title.
	docs, err := coll.Fetch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	title, ok := docs["a"].String("title")
	require.True(t, ok)
	assert.Equal(t, "first", title)
}

func TestEmptyBatchRejected(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	for name, results := range map[string][]error{
		"insert": coll.Insert(ctx),
		"upsert": coll.Upsert(ctx),
		"update": coll.Update(ctx),
		"delete": coll.Delete(ctx),
	} {
		require.Len(t, results, 1, name)
		assert.Equal(t, CodeInvalidArgument, CodeOf(results[0]), name)
	}
}

func TestUpdateMissing(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	errs := coll.Update(ctx, newArticle("ghost", "none", 0, []float32{0, 0, 0, 1}))
	require.Len(t, errs, 1)
	assert.Equal(t, CodeNotFound, CodeOf(errs[0]))
}

func TestWriteValidation(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	t.Run("unknown field", func(t *testing.T) {
		doc := newArticle("a", "first", 10, []float32{1, 0, 0, 0})
		doc.SetString("mystery", "x")
		assert.Equal(t, CodeInvalidArgument, CodeOf(coll.Upsert(ctx, doc)[0]))
	})

	t.Run("type mismatch", func(t *testing.T) {
		doc := NewDoc("a")
		doc.SetInt64("title", 1)
		doc.SetInt64("views", 10)
		doc.SetVectorFloat32("embedding", []float32{1, 0, 0, 0})
		assert.Equal(t, CodeInvalidArgument, CodeOf(coll.Upsert(ctx, doc)[0]))
	})

	t.Run("wrong dimension", func(t *testing.T) {
		doc := newArticle("a", "first", 10, []float32{1, 0})
		assert.Equal(t, CodeInvalidArgument, CodeOf(coll.Upsert(ctx, doc)[0]))
	})

	t.Run("missing non-nullable field", func(t *testing.T) {
		doc := NewDoc("a")
		doc.SetString("title", "first")
		doc.SetVectorFloat32("embedding", []float32{1, 0, 0, 0})
		assert.Equal(t, CodeInvalidArgument, CodeOf(coll.Upsert(ctx, doc)[0]))
	})

	t.Run("null in non-nullable field", func(t *testing.T) {
		doc := newArticle("a", "first", 10, []float32{1, 0, 0, 0})
		doc.SetNull("views")
		assert.Equal(t, CodeInvalidArgument, CodeOf(coll.Upsert(ctx, doc)[0]))
	})

	t.Run("null in nullable field", func(t *testing.T) {
		doc := newArticle("a", "first", 10, []float32{1, 0, 0, 0})
		doc.SetNull("category")
		assert.NoError(t, coll.Upsert(ctx, doc)[0])
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	errs := coll.Delete(ctx, "a", "ghost")
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	// Deleting an absent key succeeds.
	assert.NoError(t, errs[1])

	docs, err := coll.Fetch(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDeleteByFilter(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	errs := coll.Upsert(ctx,
		newArticle("a", "first", 10, []float32{1, 0, 0, 0}),
		newArticle("b", "second", 20, []float32{0, 1, 0, 0}),
		newArticle("c", "third", 30, []float32{0, 0, 1, 0}),
	)
	for _, err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, coll.DeleteByFilter(ctx, "views >= 20"))

	docs, err := coll.Fetch(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Contains(t, docs, "a")

	err = coll.DeleteByFilter(ctx, "")
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	// Absent keys are omitted, not errors.
	docs, err := coll.Fetch(ctx, []string{"a", "ghost"})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	title, ok := docs["a"].String("title")
	require.True(t, ok)
	assert.Equal(t, "first", title)
	assert.False(t, docs["a"].Has("embedding"))

	// Vectors come back on request.
	docs, err = coll.Fetch(ctx, []string{"a"}, func(o *FetchOptions) {
		o.IncludeVector = true
	})
	require.NoError(t, err)
	vec, ok := docs["a"].VectorFloat32("embedding")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0, 0}, vec)
}

func TestFetchedDocIsSnapshot(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	docs, err := coll.Fetch(ctx, []string{"a"})
	require.NoError(t, err)
	snapshot := docs["a"]

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "changed", 99, []float32{0, 1, 0, 0}))[0])

	title, ok := snapshot.String("title")
	require.True(t, ok)
	assert.Equal(t, "first", title)
}

func TestGroupBySearch(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	mk := func(pk, category string, views int64, vec []float32) *Doc {
		doc := newArticle(pk, pk, views, vec)
		doc.SetString("category", category)
		return doc
	}
	errs := coll.Upsert(ctx,
		mk("a1", "news", 1, []float32{1, 0, 0, 0}),
		mk("a2", "news", 2, []float32{0.9, 0.1, 0, 0}),
		mk("b1", "sports", 3, []float32{0.8, 0.2, 0, 0}),
		mk("b2", "sports", 4, []float32{0, 1, 0, 0}),
	)
	for _, err := range errs {
		require.NoError(t, err)
	}

	groups, err := coll.GroupBySearch(ctx, &GroupByVectorQuery{
		VectorQuery:  VectorQuery{Field: "embedding", Vector: []float32{1, 0, 0, 0}},
		GroupByField: "category",
		GroupCount:   2,
		GroupTopK:    1,
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// news holds the best hit overall, so it ranks first.
	assert.Equal(t, "news", groups[0].Key)
	require.Len(t, groups[0].Docs, 1)
	assert.Equal(t, "a1", groups[0].Docs[0].PK())

	assert.Equal(t, "sports", groups[1].Key)
	require.Len(t, groups[1].Docs, 1)
	assert.Equal(t, "b1", groups[1].Docs[0].PK())

	// Unknown group field.
	_, err = coll.GroupBySearch(ctx, NewGroupByVectorQuery("embedding", []float32{1, 0, 0, 0}, "nope"))
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir() + "/articles"

	coll, err := CreateCollection(ctx, dir, articleSchema())
	require.NoError(t, err)
	uuid := coll.UUID()

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])
	require.NoError(t, coll.Flush(ctx))
	require.NoError(t, coll.Upsert(ctx, newArticle("b", "second", 20, []float32{0, 1, 0, 0}))[0])
	require.NoError(t, coll.Close())

	reopened, err := OpenCollection(ctx, dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, uuid, reopened.UUID())

	stats, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.NumDocs)

	docs, err := reopened.Fetch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestOpenMissingCollection(t *testing.T) {
	_, err := OpenCollection(context.Background(), t.TempDir()+"/nothing")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestCloseIdempotent(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Close())
	require.NoError(t, coll.Close())

	// Operations after close fail with a precondition error.
	errs := coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))
	assert.Equal(t, CodeFailedPrecondition, CodeOf(errs[0]))
	_, err := coll.Search(ctx, NewVectorQuery("embedding", []float32{1, 0, 0, 0}))
	assert.Equal(t, CodeFailedPrecondition, CodeOf(err))
}

func TestDestroyCollection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir() + "/articles"

	coll, err := CreateCollection(ctx, dir, articleSchema())
	require.NoError(t, err)
	require.NoError(t, coll.Destroy())

	_, err = OpenCollection(ctx, dir)
	assert.Equal(t, CodeNotFound, CodeOf(err))

	// Package-level destroy on a missing path.
	err = DestroyCollection(dir)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestReadOnlyCollection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir() + "/articles"

	coll, err := CreateCollection(ctx, dir, articleSchema())
	require.NoError(t, err)
	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])
	require.NoError(t, coll.Close())

	ro, err := OpenCollection(ctx, dir, WithReadOnly())
	require.NoError(t, err)
	defer ro.Close()

	hits, err := ro.Search(ctx, NewVectorQuery("embedding", []float32{1, 0, 0, 0}))
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	errs := ro.Upsert(ctx, newArticle("b", "second", 20, []float32{0, 1, 0, 0}))
	assert.Equal(t, CodePermissionDenied, CodeOf(errs[0]))
	assert.Equal(t, CodePermissionDenied, CodeOf(ro.DeleteByFilter(ctx, "views > 0")))
	assert.Equal(t, CodePermissionDenied, CodeOf(ro.Flush(ctx)))
}

func TestCanceledContext(t *testing.T) {
	coll := createTestCollection(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))
	require.Len(t, errs, 1)
	require.Error(t, errs[0])

	_, err := coll.Search(ctx, NewVectorQuery("embedding", []float32{1, 0, 0, 0}))
	require.Error(t, err)
}

func TestMetricsCollection(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}

	coll, err := CreateCollection(ctx, t.TempDir()+"/articles", articleSchema(), WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer coll.Close()

	coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}), nil)
	_, _ = coll.Search(ctx, NewVectorQuery("embedding", []float32{1, 0, 0, 0}))
	_, _ = coll.Fetch(ctx, []string{"a"})

	assert.Equal(t, int64(1), metrics.WriteBatches.Load())
	assert.Equal(t, int64(2), metrics.WriteDocs.Load())
	assert.Equal(t, int64(1), metrics.WriteFailed.Load())
	assert.Equal(t, int64(1), metrics.SearchCount.Load())
	assert.Equal(t, int64(1), metrics.FetchCount.Load())
}
