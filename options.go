package zvec

import (
	"log/slog"

	"github.com/seanmozeik/zvec/codec"
)

// Compression names accepted by WithCompression.
const (
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
	CompressionNone = "none"
)

type options struct {
	readOnly         bool
	syncWrites       bool
	maxBufferSize    int64
	compression      string
	codec            codec.Codec
	filterCacheSize  int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures collection open/create behavior.
type Option func(*options)

// WithReadOnly opens the collection for queries only. Any mutation fails
// with CodePermissionDenied.
func WithReadOnly() Option {
	return func(o *options) {
		o.readOnly = true
	}
}

// WithSyncWrites fsyncs the operation log after every mutation. Slower but
// survives power loss.
func WithSyncWrites() Option {
	return func(o *options) {
		o.syncWrites = true
	}
}

// WithMaxBufferSize caps the approximate bytes of unflushed writes before
// an automatic flush. The default is 64MB.
func WithMaxBufferSize(size int64) Option {
	return func(o *options) {
		o.maxBufferSize = size
	}
}

// WithCompression selects the snapshot compression: CompressionZstd
// (default), CompressionLZ4, or CompressionNone. The choice is fixed at
// creation; opening uses whatever the collection was created with.
func WithCompression(name string) Option {
	return func(o *options) {
		o.compression = name
	}
}

// WithCodec configures the codec for persisted documents.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithFilterCacheSize bounds the compiled filter expression cache. The
// default is 128 entries.
func WithFilterCacheSize(size int) Option {
	return func(o *options) {
		o.filterCacheSize = size
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations. Pass nil to
// disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
