package zvec

import (
	"context"
	"time"

	"github.com/seanmozeik/zvec/internal/engine"
	"github.com/seanmozeik/zvec/internal/record"
)

// Collection is an embedded document collection with vector search. All
// methods are safe for concurrent use. A Collection owns its storage
// directory until Close or Destroy.
type Collection struct {
	e       *engine.Engine
	path    string
	logger  *Logger
	metrics MetricsCollector
}

// CreateCollection initializes a new collection at path with the given
// schema and opens it. It fails with CodeAlreadyExists when a collection
// already lives there.
func CreateCollection(ctx context.Context, path string, schema *CollectionSchema, optFns ...Option) (*Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, translateError(err)
	}
	opts := applyOptions(optFns)

	es, err := schema.toEngine()
	if err != nil {
		return nil, translateError(err)
	}
	e, err := engine.Create(path, es, engineOptions(opts))
	if err != nil {
		return nil, translateError(err)
	}

	c := &Collection{
		e:       e,
		path:    path,
		logger:  opts.logger.WithCollection(es.Name),
		metrics: opts.metricsCollector,
	}
	c.logger.Info("collection created", "path", path, "uuid", e.UUID())
	return c, nil
}

// OpenCollection opens an existing collection at path, recovering any
// state written after the last flush.
func OpenCollection(ctx context.Context, path string, optFns ...Option) (*Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, translateError(err)
	}
	opts := applyOptions(optFns)

	e, err := engine.Open(path, engineOptions(opts))
	if err != nil {
		return nil, translateError(err)
	}

	c := &Collection{
		e:       e,
		path:    path,
		logger:  opts.logger.WithCollection(e.Schema().Name),
		metrics: opts.metricsCollector,
	}
	c.logger.Info("collection opened", "path", path, "uuid", e.UUID())
	return c, nil
}

// DestroyCollection removes the collection storage at path without opening
// it. It fails with CodeNotFound when no collection lives there.
func DestroyCollection(path string) error {
	return translateError(engine.DestroyDir(path))
}

func engineOptions(opts options) func(o *engine.Options) {
	return func(o *engine.Options) {
		o.ReadOnly = opts.readOnly
		o.SyncWrites = opts.syncWrites
		o.MaxBufferSize = opts.maxBufferSize
		o.Compression = opts.compression
		o.Codec = opts.codec
		o.FilterCacheSize = opts.filterCacheSize
	}
}

// Close flushes pending writes and releases the collection's file handles.
// Close is idempotent; operations after it fail with
// CodeFailedPrecondition.
func (c *Collection) Close() error {
	err := translateError(c.e.Close())
	if err == nil {
		c.logger.Info("collection closed")
	}
	return err
}

// Destroy closes the collection and deletes its storage directory.
func (c *Collection) Destroy() error {
	err := translateError(c.e.Destroy())
	if err == nil {
		c.logger.Info("collection destroyed", "path", c.path)
	}
	return err
}

// Path returns the collection's storage directory.
func (c *Collection) Path() string { return c.path }

// UUID returns the collection's stable identifier, assigned at creation.
func (c *Collection) UUID() string { return c.e.UUID() }

// Schema returns a copy of the current schema.
func (c *Collection) Schema() *CollectionSchema {
	return schemaFromEngine(c.e.Schema())
}

// CollectionStats summarizes the collection state.
type CollectionStats struct {
	UUID       string
	Name       string
	NumDocs    uint64
	NumFields  int
	NumIndexes int
	// UnflushedOps counts operations logged since the last flush.
	UnflushedOps int
}

// Stats returns point-in-time collection statistics.
func (c *Collection) Stats(ctx context.Context) (*CollectionStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, translateError(err)
	}
	st, err := c.e.Stats()
	if err != nil {
		return nil, translateError(err)
	}
	return &CollectionStats{
		UUID:         st.UUID,
		Name:         st.Name,
		NumDocs:      st.NumDocs,
		NumFields:    st.NumFields,
		NumIndexes:   st.NumIndexes,
		UnflushedOps: st.WALEntries,
	}, nil
}

// Flush folds logged writes into a durable snapshot.
func (c *Collection) Flush(ctx context.Context) error {
	start := time.Now()
	err := c.flush(ctx)
	c.metrics.RecordFlush(time.Since(start), err)
	return err
}

func (c *Collection) flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	if err := c.e.Flush(); err != nil {
		return translateError(err)
	}
	c.logger.Debug("collection flushed")
	return nil
}

// Insert stores new documents. The returned slice always has one entry per
// input document: nil on success, an *Error otherwise. A document whose
// primary key is taken fails with CodeAlreadyExists; other documents in the
// batch are unaffected. An empty batch returns a single
// CodeInvalidArgument result.
func (c *Collection) Insert(ctx context.Context, docs ...*Doc) []error {
	return c.writeBatch(ctx, docs, c.e.Insert)
}

// Upsert stores documents, replacing any existing ones under the same
// primary keys. Result granularity matches Insert.
func (c *Collection) Upsert(ctx context.Context, docs ...*Doc) []error {
	return c.writeBatch(ctx, docs, c.e.Upsert)
}

// Update replaces existing documents. A document whose primary key is
// absent fails with CodeNotFound. Result granularity matches Insert.
func (c *Collection) Update(ctx context.Context, docs ...*Doc) []error {
	return c.writeBatch(ctx, docs, c.e.Update)
}

func (c *Collection) writeBatch(ctx context.Context, docs []*Doc, op func(doc *record.Doc) error) []error {
	start := time.Now()

	// A zero-item batch is a caller mistake, not a trivially successful
	// write. The single result slot carries the failure.
	if len(docs) == 0 {
		err := invalidArgument("empty batch")
		c.metrics.RecordBatchWrite(0, 1, time.Since(start))
		return []error{err}
	}

	results := make([]error, len(docs))
	failed := 0

	if err := ctx.Err(); err != nil {
		werr := translateError(err)
		for i := range results {
			results[i] = werr
		}
		c.metrics.RecordBatchWrite(len(docs), len(docs), time.Since(start))
		return results
	}

	for i, doc := range docs {
		if doc == nil {
			results[i] = invalidArgument("nil document")
			failed++
			continue
		}
		if err := op(doc.rec); err != nil {
			results[i] = translateError(err)
			failed++
		}
	}

	c.metrics.RecordBatchWrite(len(docs), failed, time.Since(start))
	if failed > 0 {
		c.logger.Debug("batch write finished with failures", "count", len(docs), "failed", failed)
	}
	return results
}

// Delete removes documents by primary key. Deleting an absent key
// succeeds. The returned slice has one entry per key; an empty batch
// returns a single CodeInvalidArgument result.
func (c *Collection) Delete(ctx context.Context, pks ...string) []error {
	start := time.Now()

	if len(pks) == 0 {
		err := invalidArgument("empty batch")
		c.metrics.RecordDelete(time.Since(start), err)
		return []error{err}
	}

	results := make([]error, len(pks))

	if err := ctx.Err(); err != nil {
		werr := translateError(err)
		for i := range results {
			results[i] = werr
		}
		c.metrics.RecordDelete(time.Since(start), werr)
		return results
	}

	var firstErr error
	for i, pk := range pks {
		if err := c.e.Delete(pk); err != nil {
			results[i] = translateError(err)
			if firstErr == nil {
				firstErr = results[i]
			}
		}
	}
	c.metrics.RecordDelete(time.Since(start), firstErr)
	return results
}

// DeleteByFilter removes every document matching a filter expression.
func (c *Collection) DeleteByFilter(ctx context.Context, expr string) error {
	start := time.Now()
	err := c.deleteByFilter(ctx, expr)
	c.metrics.RecordDelete(time.Since(start), err)
	return err
}

func (c *Collection) deleteByFilter(ctx context.Context, expr string) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	return translateError(c.e.DeleteByFilter(expr))
}

// Search runs a vector similarity query and returns matching documents
// best-first. Result documents are snapshots owned by the caller.
func (c *Collection) Search(ctx context.Context, q *VectorQuery) ([]*Doc, error) {
	start := time.Now()
	docs, err := c.search(ctx, q)
	topK := 0
	if q != nil {
		topK = q.TopK
	}
	c.metrics.RecordSearch(topK, time.Since(start), err)
	return docs, err
}

func (c *Collection) search(ctx context.Context, q *VectorQuery) ([]*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, translateError(err)
	}
	req, err := q.toEngine()
	if err != nil {
		return nil, translateError(err)
	}
	recs, err := c.e.Search(req)
	if err != nil {
		return nil, translateError(err)
	}
	docs := make([]*Doc, len(recs))
	for i, rec := range recs {
		docs[i] = newDocFromRecord(rec)
	}
	return docs, nil
}

// GroupBySearch runs a vector query bucketed by a scalar field. Groups are
// ranked by their best hit; each keeps its own best documents.
func (c *Collection) GroupBySearch(ctx context.Context, q *GroupByVectorQuery) ([]Group, error) {
	start := time.Now()
	groups, err := c.groupBySearch(ctx, q)
	topK := 0
	if q != nil {
		topK = q.GroupTopK
	}
	c.metrics.RecordSearch(topK, time.Since(start), err)
	return groups, err
}

func (c *Collection) groupBySearch(ctx context.Context, q *GroupByVectorQuery) ([]Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, translateError(err)
	}
	if q == nil {
		return nil, invalidArgument("nil query")
	}
	base, err := q.VectorQuery.toEngine()
	if err != nil {
		return nil, translateError(err)
	}
	req := &engine.GroupSearchRequest{
		SearchRequest: *base,
		GroupBy:       q.GroupByField,
		GroupCount:    q.GroupCount,
		GroupTopK:     q.GroupTopK,
	}
	egroups, err := c.e.GroupSearch(req)
	if err != nil {
		return nil, translateError(err)
	}
	groups := make([]Group, len(egroups))
	for i, eg := range egroups {
		g := Group{Key: eg.Key, Docs: make([]*Doc, len(eg.Docs))}
		for j, rec := range eg.Docs {
			g.Docs[j] = newDocFromRecord(rec)
		}
		groups[i] = g
	}
	return groups, nil
}

// Fetch returns documents by primary key. Absent keys are omitted from the
// result map. Fetched documents are snapshots owned by the caller.
func (c *Collection) Fetch(ctx context.Context, pks []string, optFns ...func(o *FetchOptions)) (map[string]*Doc, error) {
	start := time.Now()
	docs, err := c.fetch(ctx, pks, optFns)
	c.metrics.RecordFetch(len(pks), time.Since(start), err)
	return docs, err
}

func (c *Collection) fetch(ctx context.Context, pks []string, optFns []func(o *FetchOptions)) (map[string]*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, translateError(err)
	}
	var opts FetchOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	recs, err := c.e.Fetch(pks, opts.OutputFields, opts.IncludeVector)
	if err != nil {
		return nil, translateError(err)
	}
	docs := make(map[string]*Doc, len(recs))
	for pk, rec := range recs {
		docs[pk] = newDocFromRecord(rec)
	}
	return docs, nil
}

// CreateIndexOptions configures index construction.
type CreateIndexOptions struct {
	// Concurrency bounds the goroutines used to validate existing data.
	// Zero means GOMAXPROCS.
	Concurrency int
}

// CreateIndex attaches an index to a field. Existing documents are
// validated against the index requirements first; an index already
// attached to the field fails with CodeAlreadyExists.
func (c *Collection) CreateIndex(ctx context.Context, field string, params IndexParams, optFns ...func(o *CreateIndexOptions)) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	var opts CreateIndexOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	spec, err := buildIndexSpec(field, params)
	if err != nil {
		return translateError(err)
	}
	if err := c.e.CreateIndex(spec, opts.Concurrency); err != nil {
		return translateError(err)
	}
	c.logger.WithField(field).Info("index created", "kind", params.IndexType().String())
	return nil
}

// DropIndex detaches the index from a field.
func (c *Collection) DropIndex(ctx context.Context, field string) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	if err := c.e.DropIndex(field); err != nil {
		return translateError(err)
	}
	c.logger.WithField(field).Info("index dropped")
	return nil
}

// OptimizeOptions configures collection optimization.
type OptimizeOptions struct {
	// Concurrency bounds the goroutines used for revalidation. Zero means
	// GOMAXPROCS.
	Concurrency int
}

// Optimize compacts persisted state, folding the operation log into a
// fresh snapshot.
func (c *Collection) Optimize(ctx context.Context, optFns ...func(o *OptimizeOptions)) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	var opts OptimizeOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := c.e.Optimize(opts.Concurrency); err != nil {
		return translateError(err)
	}
	c.logger.Info("collection optimized")
	return nil
}

// AddColumnOptions configures column addition.
type AddColumnOptions struct {
	// DefaultValue is a literal backfilled into existing documents.
	// Non-nullable columns require it.
	DefaultValue string
}

// AddColumn adds a scalar field to the schema.
func (c *Collection) AddColumn(ctx context.Context, field FieldSchema, optFns ...func(o *AddColumnOptions)) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	var opts AddColumnOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	ef := engine.FieldSchema{
		Name:      field.Name,
		Type:      field.DataType.recordType(),
		Nullable:  field.Nullable,
		Dimension: field.Dimension,
	}
	if err := c.e.AddColumn(ef, opts.DefaultValue); err != nil {
		return translateError(err)
	}
	c.logger.WithField(field.Name).Info("column added")
	return nil
}

// DropColumn removes a scalar field from the schema and all documents. An
// indexed field must have its index dropped first.
func (c *Collection) DropColumn(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	if err := c.e.DropColumn(name); err != nil {
		return translateError(err)
	}
	c.logger.WithField(name).Info("column dropped")
	return nil
}

// AlterColumn renames a field or changes its nullability. Type and
// dimension changes fail with CodeNotSupported.
func (c *Collection) AlterColumn(ctx context.Context, name string, to FieldSchema) error {
	if err := ctx.Err(); err != nil {
		return translateError(err)
	}
	ef := engine.FieldSchema{
		Name:      to.Name,
		Type:      to.DataType.recordType(),
		Nullable:  to.Nullable,
		Dimension: to.Dimension,
	}
	if err := c.e.AlterColumn(name, ef); err != nil {
		return translateError(err)
	}
	c.logger.WithField(name).Info("column altered", "to", to.Name)
	return nil
}
