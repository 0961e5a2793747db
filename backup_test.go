package zvec

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanmozeik/zvec/blobstore"
)

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	coll := createTestCollection(t)
	errs := coll.Upsert(ctx,
		newArticle("a", "alpha", 10, []float32{1, 0, 0, 0}),
		newArticle("b", "beta", 20, []float32{0, 1, 0, 0}),
	)
	for _, err := range errs {
		require.NoError(t, err)
	}
	uuid := coll.UUID()

	require.NoError(t, coll.Backup(ctx, store, "backups/articles"))

	keys, err := store.List(ctx, "backups/articles")
	require.NoError(t, err)
	assert.Contains(t, keys, "backups/articles/manifest.json")

	dest := filepath.Join(t.TempDir(), "restored")
	require.NoError(t, Restore(ctx, store, "backups/articles", dest))

	restored, err := OpenCollection(ctx, dest)
	require.NoError(t, err)
	defer restored.Close()

	assert.Equal(t, uuid, restored.UUID())
	docs, err := restored.Fetch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	title, ok := docs["b"].String("title")
	require.True(t, ok)
	assert.Equal(t, "beta", title)
}

func TestBackupThrottled(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	coll := createTestCollection(t)
	errs := coll.Upsert(ctx, newArticle("a", "alpha", 10, []float32{1, 0, 0, 0}))
	require.NoError(t, errs[0])

	require.NoError(t, coll.Backup(ctx, store, "throttled", func(o *BackupOptions) {
		o.BytesPerSecond = 1 << 20
	}))

	keys, err := store.List(ctx, "throttled")
	require.NoError(t, err)
	assert.NotEmpty(t, keys)
}

func TestRestoreIntoExistingCollection(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	coll := createTestCollection(t)
	require.NoError(t, coll.Backup(ctx, store, "b"))

	err := Restore(ctx, store, "b", coll.Path())
	require.Error(t, err)
	assert.Equal(t, CodeAlreadyExists, CodeOf(err))
}

func TestRestoreMissingBackup(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	err := Restore(ctx, store, "nothing/here", filepath.Join(t.TempDir(), "dest"))
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestRestoreCanceledContext(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Restore(ctx, store, "b", filepath.Join(t.TempDir(), "dest"))
	require.Error(t, err)
	assert.Equal(t, CodeFailedPrecondition, CodeOf(err))
}
