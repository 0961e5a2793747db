package engine

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/seanmozeik/zvec/internal/record"
)

// Insert stores a new document. It fails with ErrAlreadyExists when the
// primary key is taken.
func (e *Engine) Insert(doc *record.Doc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	if err := e.schema.ValidateDoc(doc); err != nil {
		return err
	}
	if _, exists := e.docs[doc.PK]; exists {
		return fmt.Errorf("%w: document %q", ErrAlreadyExists, doc.PK)
	}
	return e.writeDoc(doc)
}

// Upsert stores a document, replacing any existing one under the same
// primary key.
func (e *Engine) Upsert(doc *record.Doc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	if err := e.schema.ValidateDoc(doc); err != nil {
		return err
	}
	return e.writeDoc(doc)
}

// Update replaces an existing document. It fails with ErrNotFound when the
// primary key is absent.
func (e *Engine) Update(doc *record.Doc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	if err := e.schema.ValidateDoc(doc); err != nil {
		return err
	}
	if _, exists := e.docs[doc.PK]; !exists {
		return fmt.Errorf("%w: document %q", ErrNotFound, doc.PK)
	}
	return e.writeDoc(doc)
}

// writeDoc logs and applies a full document write. The stored copy is
// detached from the caller's document.
func (e *Engine) writeDoc(doc *record.Doc) error {
	stored := doc.Clone()
	stored.Score = 0
	if old, ok := e.docs[stored.PK]; ok {
		stored.DocID = old.DocID
	} else {
		e.nextID++
		stored.DocID = e.nextID
	}

	if err := e.wal.AppendUpsert(stored); err != nil {
		return fmt.Errorf("%w: wal append: %v", ErrInternal, err)
	}
	e.docs[stored.PK] = stored
	e.byID[stored.DocID] = stored.PK

	e.buffered += approxDocSize(stored)
	if e.buffered >= e.opts.MaxBufferSize {
		return e.flushLocked()
	}
	return nil
}

// Delete removes a document by primary key. Deleting an absent key is not an
// error.
func (e *Engine) Delete(pk string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	if pk == "" {
		return fmt.Errorf("%w: empty primary key", ErrInvalidArgument)
	}
	if _, exists := e.docs[pk]; !exists {
		return nil
	}
	if err := e.wal.AppendDelete(pk); err != nil {
		return fmt.Errorf("%w: wal append: %v", ErrInternal, err)
	}
	e.applyDelete(pk)
	return nil
}

// DeleteByFilter removes every document matching the filter expression.
func (e *Engine) DeleteByFilter(expr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	if expr == "" {
		return fmt.Errorf("%w: empty filter", ErrInvalidArgument)
	}
	compiled, err := e.compileFilter(expr)
	if err != nil {
		return err
	}

	matched := roaring64.New()
	for _, doc := range e.docs {
		if compiled.Matches(doc) {
			matched.Add(doc.DocID)
		}
	}

	it := matched.Iterator()
	for it.HasNext() {
		pk, ok := e.byID[it.Next()]
		if !ok {
			continue
		}
		if err := e.wal.AppendDelete(pk); err != nil {
			return fmt.Errorf("%w: wal append: %v", ErrInternal, err)
		}
		e.applyDelete(pk)
	}
	return nil
}
