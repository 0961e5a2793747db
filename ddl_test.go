package zvec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndDropIndex(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	// The vector field already carries an index from the schema.
	err := coll.CreateIndex(ctx, "embedding", NewFlatIndexParams())
	assert.Equal(t, CodeAlreadyExists, CodeOf(err))

	require.NoError(t, coll.CreateIndex(ctx, "views", NewInvertIndexParams()))
	_, ok := coll.Schema().Index("views")
	assert.True(t, ok)

	require.NoError(t, coll.DropIndex(ctx, "views"))
	_, ok = coll.Schema().Index("views")
	assert.False(t, ok)

	err = coll.DropIndex(ctx, "views")
	assert.Equal(t, CodeNotFound, CodeOf(err))

	err = coll.CreateIndex(ctx, "ghost", NewInvertIndexParams())
	assert.Equal(t, CodeNotFound, CodeOf(err))

	// Invert indexes do not apply to vector fields.
	require.NoError(t, coll.DropIndex(ctx, "embedding"))
	err = coll.CreateIndex(ctx, "embedding", NewInvertIndexParams())
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestCreateIndexValidatesParams(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	err := coll.CreateIndex(ctx, "views", nil)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	require.NoError(t, coll.DropIndex(ctx, "embedding"))
	err = coll.CreateIndex(ctx, "embedding", &HNSWIndexParams{M: 0, EFConstruction: 200, Metric: MetricTypeL2})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	err = coll.CreateIndex(ctx, "embedding", &IVFIndexParams{NList: 0, NIters: 10, Metric: MetricTypeL2})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	err = coll.CreateIndex(ctx, "embedding", &FlatIndexParams{Metric: MetricType(99)})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestAddColumn(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	// Non-nullable additions need a default to backfill.
	err := coll.AddColumn(ctx, FieldSchema{Name: "rating", DataType: DataTypeInt64})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))

	require.NoError(t, coll.AddColumn(ctx, FieldSchema{Name: "rating", DataType: DataTypeInt64}, func(o *AddColumnOptions) {
		o.DefaultValue = "5"
	}))

	docs, err := coll.Fetch(ctx, []string{"a"})
	require.NoError(t, err)
	rating, ok := docs["a"].Int64("rating")
	require.True(t, ok)
	assert.Equal(t, int64(5), rating)

	// Duplicate name conflicts, vector additions are not supported.
	err = coll.AddColumn(ctx, FieldSchema{Name: "rating", DataType: DataTypeInt64})
	assert.Equal(t, CodeAlreadyExists, CodeOf(err))
	err = coll.AddColumn(ctx, FieldSchema{Name: "vec2", DataType: DataTypeVectorFP32, Dimension: 8})
	assert.Equal(t, CodeNotSupported, CodeOf(err))

	// Nullable additions need no default and leave existing docs untouched.
	require.NoError(t, coll.AddColumn(ctx, FieldSchema{Name: "note", DataType: DataTypeString, Nullable: true}))
	docs, err = coll.Fetch(ctx, []string{"a"})
	require.NoError(t, err)
	assert.False(t, docs["a"].Has("note"))
}

func TestDropColumn(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	require.NoError(t, coll.DropColumn(ctx, "views"))
	_, ok := coll.Schema().Field("views")
	assert.False(t, ok)

	docs, err := coll.Fetch(ctx, []string{"a"})
	require.NoError(t, err)
	assert.False(t, docs["a"].Has("views"))

	err = coll.DropColumn(ctx, "views")
	assert.Equal(t, CodeNotFound, CodeOf(err))

	// Indexed fields must lose their index first.
	err = coll.DropColumn(ctx, "embedding")
	assert.Equal(t, CodeFailedPrecondition, CodeOf(err))
	require.NoError(t, coll.DropIndex(ctx, "embedding"))
	require.NoError(t, coll.DropColumn(ctx, "embedding"))
}

func TestAlterColumn(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])

	// Rename keeps values reachable under the new name.
	require.NoError(t, coll.AlterColumn(ctx, "views", FieldSchema{Name: "hits", DataType: DataTypeInt64}))
	docs, err := coll.Fetch(ctx, []string{"a"})
	require.NoError(t, err)
	hits, ok := docs["a"].Int64("hits")
	require.True(t, ok)
	assert.Equal(t, int64(10), hits)

	// Type changes are rejected.
	err = coll.AlterColumn(ctx, "hits", FieldSchema{Name: "hits", DataType: DataTypeString})
	assert.Equal(t, CodeNotSupported, CodeOf(err))

	// Tightening nullability fails while a document lacks the field.
	require.NoError(t, coll.AlterColumn(ctx, "category", FieldSchema{Name: "category", DataType: DataTypeString, Nullable: true}))
	err = coll.AlterColumn(ctx, "category", FieldSchema{Name: "category", DataType: DataTypeString})
	assert.Equal(t, CodeFailedPrecondition, CodeOf(err))

	err = coll.AlterColumn(ctx, "ghost", FieldSchema{Name: "ghost", DataType: DataTypeString})
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestOptimize(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.Upsert(ctx, newArticle("a", "first", 10, []float32{1, 0, 0, 0}))[0])
	require.NoError(t, coll.Optimize(ctx, func(o *OptimizeOptions) {
		o.Concurrency = 2
	}))

	stats, err := coll.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.UnflushedOps)
}

func TestAlterColumnRenameUpdatesIndex(t *testing.T) {
	ctx := context.Background()
	coll := createTestCollection(t)

	require.NoError(t, coll.AlterColumn(ctx, "embedding", FieldSchema{
		Name:      "vector",
		DataType:  DataTypeVectorFP32,
		Dimension: 4,
	}))
	_, ok := coll.Schema().Index("vector")
	assert.True(t, ok)

	require.NoError(t, coll.Upsert(ctx, func() *Doc {
		doc := NewDoc("a")
		doc.SetString("title", "first")
		doc.SetInt64("views", 10)
		doc.SetVectorFloat32("vector", []float32{1, 0, 0, 0})
		return doc
	}())[0])

	hits, err := coll.Search(ctx, NewVectorQuery("vector", []float32{1, 0, 0, 0}))
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}
