package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/seanmozeik/zvec/codec"
	"github.com/seanmozeik/zvec/internal/record"
)

const (
	compressionZstd = "zstd"
	compressionLZ4  = "lz4"
	compressionNone = "none"
)

func validateCompression(name string) error {
	switch name {
	case compressionZstd, compressionLZ4, compressionNone:
		return nil
	default:
		return fmt.Errorf("%w: unknown compression %q", ErrInvalidArgument, name)
	}
}

// manifest is the persisted collection descriptor. It is written atomically
// on create, flush, and schema changes.
type manifest struct {
	UUID        string    `json:"uuid"`
	Schema      *Schema   `json:"schema"`
	Codec       string    `json:"codec"`
	Compression string    `json:"compression"`
	NextID      uint64    `json:"next_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e *Engine) writeManifest() error {
	m := manifest{
		UUID:        e.uuid,
		Schema:      e.schema,
		Codec:       e.opts.Codec.Name(),
		Compression: e.opts.Compression,
		NextID:      e.nextID,
		UpdatedAt:   time.Now().UTC(),
	}
	data, err := e.opts.Codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: encode manifest: %v", ErrInternal, err)
	}
	if err := writeFileAtomic(filepath.Join(e.dir, manifestFile), data); err != nil {
		return fmt.Errorf("%w: write manifest: %v", ErrInternal, err)
	}
	return nil
}

func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no collection at %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("%w: read manifest: %v", ErrInternal, err)
	}
	var m manifest
	// The manifest is always JSON-shaped, so either built-in codec decodes it.
	if err := decodeManifest(data, &m); err != nil {
		return nil, err
	}
	if m.Schema == nil {
		return nil, fmt.Errorf("%w: manifest missing schema", ErrInternal)
	}
	if err := validateCompression(m.Compression); err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeManifest(data []byte, m *manifest) error {
	if err := (codec.JSON{}).Unmarshal(data, m); err != nil {
		return fmt.Errorf("%w: decode manifest: %v", ErrInternal, err)
	}
	return nil
}

// writeSegment persists all documents to the snapshot segment.
func (e *Engine) writeSegment() error {
	docs := make([]*record.Doc, 0, len(e.docs))
	for _, doc := range e.docs {
		docs = append(docs, doc)
	}
	raw, err := e.opts.Codec.Marshal(docs)
	if err != nil {
		return fmt.Errorf("%w: encode segment: %v", ErrInternal, err)
	}

	compressed, err := compress(raw, e.opts.Compression)
	if err != nil {
		return fmt.Errorf("%w: compress segment: %v", ErrInternal, err)
	}
	if err := writeFileAtomic(filepath.Join(e.dir, segmentFile), compressed); err != nil {
		return fmt.Errorf("%w: write segment: %v", ErrInternal, err)
	}
	return nil
}

func (e *Engine) loadSegment() error {
	data, err := os.ReadFile(filepath.Join(e.dir, segmentFile))
	if err != nil {
		if os.IsNotExist(err) {
			// Fresh collection with no flush yet.
			return nil
		}
		return fmt.Errorf("%w: read segment: %v", ErrInternal, err)
	}

	raw, err := decompress(data, e.opts.Compression)
	if err != nil {
		return fmt.Errorf("%w: decompress segment: %v", ErrInternal, err)
	}
	var docs []*record.Doc
	if err := e.opts.Codec.Unmarshal(raw, &docs); err != nil {
		return fmt.Errorf("%w: decode segment: %v", ErrInternal, err)
	}
	for _, doc := range docs {
		e.docs[doc.PK] = doc
		e.byID[doc.DocID] = doc.PK
		if doc.DocID > e.nextID {
			e.nextID = doc.DocID
		}
	}
	return nil
}

func compress(raw []byte, name string) ([]byte, error) {
	switch name {
	case compressionZstd:
		var buf bytes.Buffer
		enc, err := zstd.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := enc.Write(raw); err != nil {
			_ = enc.Close()
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case compressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			_ = w.Close()
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return raw, nil
	}
}

func decompress(data []byte, name string) ([]byte, error) {
	switch name {
	case compressionZstd:
		dec, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return io.ReadAll(dec)
	case compressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}

// writeFileAtomic writes via a temp file and rename so readers never observe
// a partial snapshot.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
