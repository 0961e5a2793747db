package engine

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/seanmozeik/zvec/internal/record"
)

// CreateIndex attaches an index to a field after validating the stored data
// against the index requirements. Validation runs on up to concurrency
// goroutines (0 means GOMAXPROCS).
func (e *Engine) CreateIndex(spec IndexSpec, concurrency int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	f, ok := e.schema.Field(spec.Field)
	if !ok {
		return fmt.Errorf("%w: field %q", ErrNotFound, spec.Field)
	}
	if _, exists := e.schema.Index(spec.Field); exists {
		return fmt.Errorf("%w: index on field %q", ErrAlreadyExists, spec.Field)
	}
	if err := validateIndexSpec(spec, f); err != nil {
		return err
	}

	if err := e.validateDocsParallel(concurrency, func(doc *record.Doc) error {
		v, ok := doc.Get(spec.Field)
		if !ok || v.Null {
			if !f.Nullable {
				return fmt.Errorf("%w: document %q misses indexed field %q", ErrFailedPrecondition, doc.PK, spec.Field)
			}
			return nil
		}
		if f.Type == record.TypeVectorFP32 && uint32(len(v.F32s)) != f.Dimension {
			return fmt.Errorf("%w: document %q vector dimension %d, index expects %d", ErrFailedPrecondition, doc.PK, len(v.F32s), f.Dimension)
		}
		return nil
	}); err != nil {
		return err
	}

	e.schema.Indexes = append(e.schema.Indexes, spec)
	return e.flushLocked()
}

// DropIndex detaches the index from a field.
func (e *Engine) DropIndex(field string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	before := len(e.schema.Indexes)
	e.schema.Indexes = slices.DeleteFunc(e.schema.Indexes, func(ix IndexSpec) bool {
		return ix.Field == field
	})
	if len(e.schema.Indexes) == before {
		return fmt.Errorf("%w: index on field %q", ErrNotFound, field)
	}
	return e.flushLocked()
}

// Optimize revalidates stored documents and compacts persisted state: the
// WAL tail is folded into a fresh snapshot segment.
func (e *Engine) Optimize(concurrency int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	if err := e.validateDocsParallel(concurrency, e.schema.ValidateDoc); err != nil {
		return err
	}
	return e.flushLocked()
}

func (e *Engine) validateDocsParallel(concurrency int, check func(doc *record.Doc) error) error {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	docs := make([]*record.Doc, 0, len(e.docs))
	for _, doc := range e.docs {
		docs = append(docs, doc)
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	chunk := (len(docs) + concurrency - 1) / concurrency
	if chunk == 0 {
		chunk = 1
	}
	for start := 0; start < len(docs); start += chunk {
		part := docs[start:min(start+chunk, len(docs))]
		g.Go(func() error {
			for _, doc := range part {
				if err := check(doc); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// AddColumn adds a scalar field to the schema. defaultExpr, when non-empty,
// is a literal backfilled into existing documents; non-nullable additions
// require it.
func (e *Engine) AddColumn(f FieldSchema, defaultExpr string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	if f.Name == "" {
		return fmt.Errorf("%w: field name is empty", ErrInvalidArgument)
	}
	if _, exists := e.schema.Field(f.Name); exists {
		return fmt.Errorf("%w: field %q", ErrAlreadyExists, f.Name)
	}
	if f.Type.IsVector() {
		return fmt.Errorf("%w: adding vector field %q", ErrNotSupported, f.Name)
	}
	if f.Type == record.TypeUndefined {
		return fmt.Errorf("%w: field %q has undefined type", ErrInvalidArgument, f.Name)
	}

	var def record.Value
	hasDefault := defaultExpr != ""
	if hasDefault {
		v, err := parseLiteral(f.Type, defaultExpr)
		if err != nil {
			return err
		}
		def = v
	} else if !f.Nullable {
		return fmt.Errorf("%w: non-nullable field %q needs a default value", ErrInvalidArgument, f.Name)
	}

	e.schema.Fields = append(e.schema.Fields, f)
	if hasDefault {
		for _, doc := range e.docs {
			doc.Set(f.Name, def.Clone())
		}
	}
	return e.flushLocked()
}

// DropColumn removes a scalar field from the schema and from all stored
// documents. Indexed fields must have their index dropped first.
func (e *Engine) DropColumn(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	if _, ok := e.schema.Field(name); !ok {
		return fmt.Errorf("%w: field %q", ErrNotFound, name)
	}
	if _, indexed := e.schema.Index(name); indexed {
		return fmt.Errorf("%w: field %q is indexed", ErrFailedPrecondition, name)
	}

	e.schema.Fields = slices.DeleteFunc(e.schema.Fields, func(f FieldSchema) bool {
		return f.Name == name
	})
	for _, doc := range e.docs {
		doc.Remove(name)
	}
	return e.flushLocked()
}

// AlterColumn renames a field or toggles its nullability. Type and dimension
// changes are rejected.
func (e *Engine) AlterColumn(name string, to FieldSchema) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkWritable(); err != nil {
		return err
	}
	idx := slices.IndexFunc(e.schema.Fields, func(f FieldSchema) bool { return f.Name == name })
	if idx < 0 {
		return fmt.Errorf("%w: field %q", ErrNotFound, name)
	}
	cur := e.schema.Fields[idx]

	if to.Name == "" {
		return fmt.Errorf("%w: field name is empty", ErrInvalidArgument)
	}
	if to.Type != cur.Type {
		return fmt.Errorf("%w: changing type of field %q", ErrNotSupported, name)
	}
	if to.Dimension != cur.Dimension {
		return fmt.Errorf("%w: changing dimension of field %q", ErrNotSupported, name)
	}
	if to.Name != name {
		if _, exists := e.schema.Field(to.Name); exists {
			return fmt.Errorf("%w: field %q", ErrAlreadyExists, to.Name)
		}
	}
	if cur.Nullable && !to.Nullable {
		for _, doc := range e.docs {
			if v, ok := doc.Get(name); !ok || v.Null {
				return fmt.Errorf("%w: document %q has no value for field %q", ErrFailedPrecondition, doc.PK, name)
			}
		}
	}

	e.schema.Fields[idx] = to
	if to.Name != name {
		for i := range e.schema.Indexes {
			if e.schema.Indexes[i].Field == name {
				e.schema.Indexes[i].Field = to.Name
			}
		}
		for _, doc := range e.docs {
			doc.Rename(name, to.Name)
		}
	}
	return e.flushLocked()
}

// parseLiteral converts a textual default into a typed value.
func parseLiteral(t record.Type, expr string) (record.Value, error) {
	switch t {
	case record.TypeString:
		return record.Value{Type: t, Str: expr}, nil
	case record.TypeBool:
		b, err := strconv.ParseBool(expr)
		if err != nil {
			return record.Value{}, fmt.Errorf("%w: default %q for bool field", ErrInvalidArgument, expr)
		}
		return record.Value{Type: t, Bool: b}, nil
	case record.TypeInt32, record.TypeInt64:
		i, err := strconv.ParseInt(expr, 10, 64)
		if err != nil {
			return record.Value{}, fmt.Errorf("%w: default %q for integer field", ErrInvalidArgument, expr)
		}
		return record.Value{Type: t, Int: i}, nil
	case record.TypeUint32, record.TypeUint64:
		u, err := strconv.ParseUint(expr, 10, 64)
		if err != nil {
			return record.Value{}, fmt.Errorf("%w: default %q for unsigned field", ErrInvalidArgument, expr)
		}
		return record.Value{Type: t, Uint: u}, nil
	case record.TypeFloat32, record.TypeFloat64:
		f, err := strconv.ParseFloat(expr, 64)
		if err != nil {
			return record.Value{}, fmt.Errorf("%w: default %q for float field", ErrInvalidArgument, expr)
		}
		return record.Value{Type: t, Float: f}, nil
	default:
		return record.Value{}, fmt.Errorf("%w: default value for field type %d", ErrNotSupported, t)
	}
}
