// Package wal provides write-ahead logging for collection durability.
//
// Mutations are appended before being acknowledged and replayed on open to
// recover state written after the last snapshot. A checkpoint (snapshot)
// truncates the log back to its header.
package wal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/seanmozeik/zvec/codec"
	"github.com/seanmozeik/zvec/internal/record"
)

const (
	magic   = "ZWAL"
	version = uint8(1)

	flagCompressed = uint8(1 << 0)
)

// EntryType identifies the operation a log entry records.
type EntryType uint8

const (
	// EntryUpsert records a full document write.
	EntryUpsert EntryType = 1
	// EntryDelete records a removal by primary key.
	EntryDelete EntryType = 2
)

// Entry is a single replayed log record.
type Entry struct {
	Type   EntryType
	SeqNum uint64
	Doc    *record.Doc // set for EntryUpsert
	PK     string      // set for EntryDelete
}

// Options configures a WAL.
type Options struct {
	// Compress enables zstd compression of the entry stream.
	Compress bool

	// CompressionLevel sets the zstd level when Compress is on (default 3).
	CompressionLevel int

	// SyncWrites forces an fsync after every append.
	SyncWrites bool

	// Codec encodes document payloads. Defaults to codec.Default. The codec
	// name is stored in the header and must resolve on reopen.
	Codec codec.Codec
}

// DefaultOptions returns the default WAL options.
var DefaultOptions = Options{
	Compress:         false,
	CompressionLevel: 3,
}

// WAL is an append-only operation log for a single collection.
type WAL struct {
	mu         sync.Mutex
	file       *os.File
	buf        *bufio.Writer
	enc        *zstd.Encoder
	writer     io.Writer
	path       string
	seq        uint64
	count      int
	dataOffset int64
	compressed bool
	level      int
	syncWrites bool
	codec      codec.Codec
	closed     bool
}

// Open opens or creates the log at path. For an existing log the header is
// validated and the options recorded there take precedence over optFns.
func Open(path string, optFns ...func(o *Options)) (*WAL, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.CompressionLevel == 0 {
		opts.CompressionLevel = DefaultOptions.CompressionLevel
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open wal file: %w", err)
	}
	st, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat wal file: %w", err)
	}

	w := &WAL{
		file:       file,
		path:       path,
		compressed: opts.Compress,
		level:      opts.CompressionLevel,
		syncWrites: opts.SyncWrites,
		codec:      opts.Codec,
	}

	if st.Size() == 0 {
		if err := w.writeHeader(); err != nil {
			_ = file.Close()
			return nil, err
		}
	} else {
		if err := w.readHeader(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("seek wal end: %w", err)
	}

	return w, nil
}

// Header layout: magic, version, flags, codec name (length-prefixed).
func (w *WAL) writeHeader() error {
	var hdr []byte
	hdr = append(hdr, magic...)
	hdr = append(hdr, version)
	var flags uint8
	if w.compressed {
		flags |= flagCompressed
	}
	hdr = append(hdr, flags)
	name := w.codec.Name()
	hdr = append(hdr, uint8(len(name)))
	hdr = append(hdr, name...)
	if _, err := w.file.Write(hdr); err != nil {
		return fmt.Errorf("write wal header: %w", err)
	}
	w.dataOffset = int64(len(hdr))
	return w.file.Sync()
}

func (w *WAL) readHeader() error {
	buf := make([]byte, len(magic)+3)
	if _, err := io.ReadFull(w.file, buf); err != nil {
		return fmt.Errorf("read wal header: %w", err)
	}
	if string(buf[:len(magic)]) != magic {
		return errors.New("wal header: bad magic")
	}
	if buf[len(magic)] != version {
		return fmt.Errorf("wal header: unsupported version %d", buf[len(magic)])
	}
	w.compressed = buf[len(magic)+1]&flagCompressed != 0
	nameLen := int(buf[len(magic)+2])
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(w.file, name); err != nil {
		return fmt.Errorf("read wal codec name: %w", err)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return fmt.Errorf("wal header: unknown codec %q", name)
	}
	w.codec = c
	w.dataOffset = int64(len(magic)) + 3 + int64(nameLen)
	return nil
}

func (w *WAL) ensureWriter() error {
	if w.writer != nil {
		return nil
	}
	if w.compressed {
		level := zstd.EncoderLevelFromZstd(w.level)
		enc, err := zstd.NewWriter(w.file, zstd.WithEncoderLevel(level))
		if err != nil {
			return fmt.Errorf("create wal compressor: %w", err)
		}
		w.enc = enc
		w.buf = bufio.NewWriter(enc)
	} else {
		w.buf = bufio.NewWriter(w.file)
	}
	w.writer = w.buf
	return nil
}

// AppendUpsert logs a full document write.
func (w *WAL) AppendUpsert(doc *record.Doc) error {
	payload, err := w.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode wal document: %w", err)
	}
	return w.append(EntryUpsert, payload)
}

// AppendDelete logs a removal by primary key.
func (w *WAL) AppendDelete(pk string) error {
	return w.append(EntryDelete, []byte(pk))
}

// Record layout: [Type:1][SeqNum:8][PayloadLen:4][Payload:N].
func (w *WAL) append(typ EntryType, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("wal is closed")
	}
	if err := w.ensureWriter(); err != nil {
		return err
	}

	w.seq++
	var hdr [13]byte
	hdr[0] = byte(typ)
	binary.LittleEndian.PutUint64(hdr[1:9], w.seq)
	binary.LittleEndian.PutUint32(hdr[9:13], uint32(len(payload)))
	if _, err := w.writer.Write(hdr[:]); err != nil {
		return fmt.Errorf("write wal entry: %w", err)
	}
	if _, err := w.writer.Write(payload); err != nil {
		return fmt.Errorf("write wal payload: %w", err)
	}
	if err := w.flushLocked(); err != nil {
		return err
	}
	w.count++

	if w.syncWrites {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("sync wal: %w", err)
		}
	}
	return nil
}

func (w *WAL) flushLocked() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush wal buffer: %w", err)
	}
	if w.enc != nil {
		if err := w.enc.Flush(); err != nil {
			return fmt.Errorf("flush wal compressor: %w", err)
		}
	}
	return nil
}

// Replay invokes fn for every entry in sequence order. It reads from a
// separate handle, so it is safe to call on a freshly opened log before any
// appends.
func (w *WAL) Replay(fn func(e Entry) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.Open(w.path)
	if err != nil {
		return fmt.Errorf("open wal for replay: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(w.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek wal data: %w", err)
	}

	var reader io.Reader = bufio.NewReader(f)
	if w.compressed {
		dec, err := zstd.NewReader(reader)
		if err != nil {
			return fmt.Errorf("create wal decompressor: %w", err)
		}
		defer dec.Close()
		reader = dec
	}

	for {
		var hdr [13]byte
		if _, err := io.ReadFull(reader, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			// A torn tail from a crash mid-write is treated as end of log.
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read wal entry: %w", err)
		}
		e := Entry{
			Type:   EntryType(hdr[0]),
			SeqNum: binary.LittleEndian.Uint64(hdr[1:9]),
		}
		payloadLen := binary.LittleEndian.Uint32(hdr[9:13])
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(reader, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read wal payload: %w", err)
		}

		switch e.Type {
		case EntryUpsert:
			doc := record.NewDoc()
			if err := w.codec.Unmarshal(payload, doc); err != nil {
				return fmt.Errorf("decode wal document: %w", err)
			}
			e.Doc = doc
		case EntryDelete:
			e.PK = string(payload)
		default:
			return fmt.Errorf("unknown wal entry type %d", e.Type)
		}

		if e.SeqNum > w.seq {
			w.seq = e.SeqNum
		}
		w.count++

		if err := fn(e); err != nil {
			return err
		}
	}
}

// Truncate drops all entries, keeping the header. Called after a snapshot
// makes the logged state durable elsewhere.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("wal is closed")
	}
	if w.enc != nil {
		if err := w.enc.Close(); err != nil {
			return fmt.Errorf("close wal compressor: %w", err)
		}
		w.enc = nil
	}
	w.buf = nil
	w.writer = nil

	if err := w.file.Truncate(w.dataOffset); err != nil {
		return fmt.Errorf("truncate wal: %w", err)
	}
	if _, err := w.file.Seek(w.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek wal data: %w", err)
	}
	w.count = 0
	return w.file.Sync()
}

// Count returns the number of entries since the last truncate.
func (w *WAL) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Sync flushes buffered entries and fsyncs the log file.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("wal is closed")
	}
	if w.writer != nil {
		if err := w.flushLocked(); err != nil {
			return err
		}
	}
	return w.file.Sync()
}

// Close flushes and closes the log. Close is idempotent.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var firstErr error
	if w.writer != nil {
		if err := w.flushLocked(); err != nil {
			firstErr = err
		}
	}
	if w.enc != nil {
		if err := w.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := w.file.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
