// Package engine implements the in-process document store behind the public
// API: schema enforcement, durable document storage with snapshot plus WAL
// recovery, exact vector search, and index bookkeeping.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"

	"github.com/seanmozeik/zvec/codec"
	"github.com/seanmozeik/zvec/internal/filter"
	"github.com/seanmozeik/zvec/internal/record"
	"github.com/seanmozeik/zvec/internal/wal"
)

const (
	manifestFile = "manifest.json"
	segmentFile  = "segment.seg"
	walFile      = "journal.wal"

	defaultMaxBufferSize   = 64 << 20
	defaultFilterCacheSize = 128
)

// Options configures an engine instance.
type Options struct {
	// ReadOnly opens the collection for queries only. Mutations fail with
	// ErrPermissionDenied.
	ReadOnly bool

	// SyncWrites fsyncs the WAL after every mutation.
	SyncWrites bool

	// MaxBufferSize caps the approximate bytes buffered in the WAL since the
	// last flush; exceeding it triggers an automatic flush. Defaults to 64MB.
	MaxBufferSize int64

	// Compression selects the snapshot segment compression: "zstd" (default),
	// "lz4", or "none".
	Compression string

	// Codec encodes persisted documents. Defaults to codec.Default.
	Codec codec.Codec

	// FilterCacheSize bounds the compiled filter expression cache.
	FilterCacheSize int
}

func (o *Options) applyDefaults() {
	if o.MaxBufferSize <= 0 {
		o.MaxBufferSize = defaultMaxBufferSize
	}
	if o.Compression == "" {
		o.Compression = compressionZstd
	}
	if o.Codec == nil {
		o.Codec = codec.Default
	}
	if o.FilterCacheSize <= 0 {
		o.FilterCacheSize = defaultFilterCacheSize
	}
}

// Engine is a single collection's storage and query engine.
type Engine struct {
	mu       sync.RWMutex
	dir      string
	opts     Options
	schema   *Schema
	uuid     string
	docs     map[string]*record.Doc
	byID     map[uint64]string
	nextID   uint64
	wal      *wal.WAL
	filters  *lru.Cache[string, filter.Expr]
	buffered int64
	closed   bool
}

// Create initializes a new collection at dir and opens it.
func Create(dir string, schema *Schema, optFns ...func(o *Options)) (*Engine, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.applyDefaults()

	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidArgument)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if opts.ReadOnly {
		return nil, fmt.Errorf("%w: cannot create a read-only collection", ErrInvalidArgument)
	}
	if err := validateCompression(opts.Compression); err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(dir, manifestFile)); err == nil {
		return nil, fmt.Errorf("%w: collection at %s", ErrAlreadyExists, dir)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("%w: create collection dir: %v", ErrInternal, err)
	}

	e := &Engine{
		dir:    dir,
		opts:   opts,
		schema: schema.Clone(),
		uuid:   uuid.NewString(),
		docs:   make(map[string]*record.Doc),
		byID:   make(map[uint64]string),
	}
	if err := e.init(); err != nil {
		return nil, err
	}
	if err := e.writeManifest(); err != nil {
		_ = e.wal.Close()
		return nil, err
	}
	return e, nil
}

// Open loads an existing collection from dir, replaying any WAL tail written
// after the last snapshot.
func Open(dir string, optFns ...func(o *Options)) (*Engine, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.applyDefaults()

	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dir:    dir,
		opts:   opts,
		schema: m.Schema,
		uuid:   m.UUID,
		nextID: m.NextID,
		docs:   make(map[string]*record.Doc),
		byID:   make(map[uint64]string),
	}
	// The manifest records the layout the data was written with.
	e.opts.Compression = m.Compression
	if c, ok := codec.ByName(m.Codec); ok {
		e.opts.Codec = c
	}

	if err := e.loadSegment(); err != nil {
		return nil, err
	}
	if err := e.init(); err != nil {
		return nil, err
	}
	if err := e.replayWAL(); err != nil {
		_ = e.wal.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init() error {
	cache, err := lru.New[string, filter.Expr](e.opts.FilterCacheSize)
	if err != nil {
		return fmt.Errorf("%w: filter cache: %v", ErrInternal, err)
	}
	e.filters = cache

	w, err := wal.Open(filepath.Join(e.dir, walFile), func(o *wal.Options) {
		o.SyncWrites = e.opts.SyncWrites
		o.Codec = e.opts.Codec
		o.Compress = e.opts.Compression == compressionZstd
	})
	if err != nil {
		return fmt.Errorf("%w: open wal: %v", ErrInternal, err)
	}
	e.wal = w
	return nil
}

func (e *Engine) replayWAL() error {
	return e.wal.Replay(func(entry wal.Entry) error {
		switch entry.Type {
		case wal.EntryUpsert:
			e.applyUpsert(entry.Doc)
		case wal.EntryDelete:
			e.applyDelete(entry.PK)
		}
		return nil
	})
}

func (e *Engine) applyUpsert(doc *record.Doc) {
	if old, ok := e.docs[doc.PK]; ok {
		delete(e.byID, old.DocID)
	}
	if doc.DocID == 0 {
		e.nextID++
		doc.DocID = e.nextID
	} else if doc.DocID > e.nextID {
		e.nextID = doc.DocID
	}
	e.docs[doc.PK] = doc
	e.byID[doc.DocID] = doc.PK
}

func (e *Engine) applyDelete(pk string) {
	if old, ok := e.docs[pk]; ok {
		delete(e.byID, old.DocID)
		delete(e.docs, pk)
	}
}

// Schema returns a copy of the current schema.
func (e *Engine) Schema() *Schema {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schema.Clone()
}

// UUID returns the collection's stable identifier.
func (e *Engine) UUID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.uuid
}

// Stats summarizes the collection state.
type Stats struct {
	UUID       string
	Name       string
	NumDocs    uint64
	NumFields  int
	NumIndexes int
	WALEntries int
}

// Stats returns a point-in-time snapshot of collection statistics.
func (e *Engine) Stats() (Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return Stats{}, fmt.Errorf("%w: collection is closed", ErrFailedPrecondition)
	}
	return Stats{
		UUID:       e.uuid,
		Name:       e.schema.Name,
		NumDocs:    uint64(len(e.docs)),
		NumFields:  len(e.schema.Fields),
		NumIndexes: len(e.schema.Indexes),
		WALEntries: e.wal.Count(),
	}, nil
}

// Flush writes a snapshot of the current state and truncates the WAL.
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushLocked()
}

func (e *Engine) flushLocked() error {
	if e.closed {
		return fmt.Errorf("%w: collection is closed", ErrFailedPrecondition)
	}
	if e.opts.ReadOnly {
		return fmt.Errorf("%w: collection is read-only", ErrPermissionDenied)
	}
	if err := e.writeSegment(); err != nil {
		return err
	}
	if err := e.writeManifest(); err != nil {
		return err
	}
	if err := e.wal.Truncate(); err != nil {
		return fmt.Errorf("%w: truncate wal: %v", ErrInternal, err)
	}
	e.buffered = 0
	return nil
}

// Close flushes pending state and releases file handles. Close is
// idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	var firstErr error
	if !e.opts.ReadOnly && e.buffered > 0 {
		if err := e.flushLocked(); err != nil {
			firstErr = err
		}
	}
	if err := e.wal.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("%w: close wal: %v", ErrInternal, err)
	}
	e.closed = true
	return firstErr
}

// Destroy closes the collection and removes its storage directory.
func (e *Engine) Destroy() error {
	if err := e.Close(); err != nil {
		return err
	}
	if err := os.RemoveAll(e.dir); err != nil {
		return fmt.Errorf("%w: remove collection dir: %v", ErrInternal, err)
	}
	return nil
}

// DestroyDir removes the storage at dir without opening it first.
func DestroyDir(dir string) error {
	if _, err := os.Stat(filepath.Join(dir, manifestFile)); err != nil {
		return fmt.Errorf("%w: no collection at %s", ErrNotFound, dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: remove collection dir: %v", ErrInternal, err)
	}
	return nil
}

func (e *Engine) checkWritable() error {
	if e.closed {
		return fmt.Errorf("%w: collection is closed", ErrFailedPrecondition)
	}
	if e.opts.ReadOnly {
		return fmt.Errorf("%w: collection is read-only", ErrPermissionDenied)
	}
	return nil
}

func (e *Engine) checkReadable() error {
	if e.closed {
		return fmt.Errorf("%w: collection is closed", ErrFailedPrecondition)
	}
	return nil
}

func (e *Engine) compileFilter(expr string) (filter.Expr, error) {
	if cached, ok := e.filters.Get(expr); ok {
		return cached, nil
	}
	compiled, err := filter.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: filter %q: %v", ErrInvalidArgument, expr, err)
	}
	e.filters.Add(expr, compiled)
	return compiled, nil
}

// approxDocSize is a rough byte estimate used for the flush trigger.
func approxDocSize(doc *record.Doc) int64 {
	size := int64(len(doc.PK)) + 16
	for _, v := range doc.Fields {
		size += 24
		size += int64(len(v.Str) + len(v.Bytes))
		size += int64(len(v.F32s))*4 + int64(len(v.F64s))*8
		size += int64(len(v.I8s)) + int64(len(v.I16s))*2
		size += int64(len(v.I32s))*4 + int64(len(v.I64s))*8
		size += int64(len(v.U32s))*4 + int64(len(v.U64s))*8
		size += int64(len(v.Bools))
		for _, s := range v.Strs {
			size += int64(len(s)) + 8
		}
	}
	return size
}
