// Package filter compiles SQL-like filter expressions into predicates over
// stored documents. The grammar covers comparisons (=, !=, <>, <, <=, >, >=),
// IN lists, NOT, and AND/OR with parentheses; AND binds tighter than OR.
package filter

import (
	"fmt"
	"strconv"

	"github.com/seanmozeik/zvec/internal/record"
)

// Expr is a compiled filter expression.
type Expr interface {
	Matches(doc *record.Doc) bool
}

// Compile parses expr into an evaluable predicate.
func Compile(expr string) (Expr, error) {
	p := &parser{lx: &lexer{input: expr}}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at offset %d", p.cur.text, p.cur.pos)
	}
	return e, nil
}

type parser struct {
	lx  *lexer
	cur token
}

func (p *parser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &andExpr{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.cur.kind == tokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	if p.cur.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis at offset %d", p.cur.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	if p.cur.kind != tokIdent {
		return nil, fmt.Errorf("expected field name, got %q at offset %d", p.cur.text, p.cur.pos)
	}
	field := p.cur.text
	if err := p.advance(); err != nil {
		return nil, err
	}

	negate := false
	if p.cur.kind == tokNot {
		negate = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind != tokIn {
			return nil, fmt.Errorf("expected IN after NOT at offset %d", p.cur.pos)
		}
	}

	if p.cur.kind == tokIn {
		if err := p.advance(); err != nil {
			return nil, err
		}
		items, err := p.parseList()
		if err != nil {
			return nil, err
		}
		var e Expr = &inExpr{field: field, items: items}
		if negate {
			e = &notExpr{inner: e}
		}
		return e, nil
	}

	var op tokenKind
	switch p.cur.kind {
	case tokEq, tokNotEq, tokLess, tokLessEq, tokGreater, tokGreaterEq:
		op = p.cur.kind
	default:
		return nil, fmt.Errorf("expected operator after %q at offset %d", field, p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &cmpExpr{field: field, op: op, operand: lit}, nil
}

func (p *parser) parseList() ([]literal, error) {
	if p.cur.kind != tokLParen {
		return nil, fmt.Errorf("expected ( after IN at offset %d", p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var items []literal
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		items = append(items, lit)
		if p.cur.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if p.cur.kind != tokRParen {
		return nil, fmt.Errorf("missing closing parenthesis in IN list at offset %d", p.cur.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return items, nil
}

type litKind int

const (
	litNumber litKind = iota
	litString
	litBool
)

type literal struct {
	kind litKind
	f    float64
	s    string
	b    bool
}

func (p *parser) parseLiteral() (literal, error) {
	switch p.cur.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(p.cur.text, 64)
		if err != nil {
			return literal{}, fmt.Errorf("malformed number %q at offset %d", p.cur.text, p.cur.pos)
		}
		lit := literal{kind: litNumber, f: f}
		if err := p.advance(); err != nil {
			return literal{}, err
		}
		return lit, nil
	case tokString:
		lit := literal{kind: litString, s: p.cur.text}
		if err := p.advance(); err != nil {
			return literal{}, err
		}
		return lit, nil
	case tokIdent:
		switch p.cur.text {
		case "true", "TRUE", "True":
			if err := p.advance(); err != nil {
				return literal{}, err
			}
			return literal{kind: litBool, b: true}, nil
		case "false", "FALSE", "False":
			if err := p.advance(); err != nil {
				return literal{}, err
			}
			return literal{kind: litBool, b: false}, nil
		}
	}
	return literal{}, fmt.Errorf("expected literal, got %q at offset %d", p.cur.text, p.cur.pos)
}

type andExpr struct{ left, right Expr }

func (e *andExpr) Matches(doc *record.Doc) bool {
	return e.left.Matches(doc) && e.right.Matches(doc)
}

type orExpr struct{ left, right Expr }

func (e *orExpr) Matches(doc *record.Doc) bool {
	return e.left.Matches(doc) || e.right.Matches(doc)
}

type notExpr struct{ inner Expr }

func (e *notExpr) Matches(doc *record.Doc) bool {
	return !e.inner.Matches(doc)
}

type cmpExpr struct {
	field   string
	op      tokenKind
	operand literal
}

// Matches compares the stored field value against the literal. Documents
// missing the field never match, mirroring three-valued SQL comparisons.
func (e *cmpExpr) Matches(doc *record.Doc) bool {
	v, ok := doc.Get(e.field)
	if !ok || v.Null {
		return false
	}
	switch e.op {
	case tokEq:
		return compareEqual(v, e.operand)
	case tokNotEq:
		return !compareEqual(v, e.operand)
	case tokLess:
		return compareOrder(v, e.operand, func(c int) bool { return c < 0 })
	case tokLessEq:
		return compareOrder(v, e.operand, func(c int) bool { return c <= 0 })
	case tokGreater:
		return compareOrder(v, e.operand, func(c int) bool { return c > 0 })
	case tokGreaterEq:
		return compareOrder(v, e.operand, func(c int) bool { return c >= 0 })
	default:
		return false
	}
}

type inExpr struct {
	field string
	items []literal
}

func (e *inExpr) Matches(doc *record.Doc) bool {
	v, ok := doc.Get(e.field)
	if !ok || v.Null {
		return false
	}
	for _, item := range e.items {
		if compareEqual(v, item) {
			return true
		}
	}
	return false
}

func compareEqual(v record.Value, lit literal) bool {
	switch lit.kind {
	case litNumber:
		f, ok := asFloat64(v)
		return ok && f == lit.f
	case litString:
		return v.Type == record.TypeString && v.Str == lit.s
	case litBool:
		return v.Type == record.TypeBool && v.Bool == lit.b
	default:
		return false
	}
}

func compareOrder(v record.Value, lit literal, accept func(int) bool) bool {
	switch lit.kind {
	case litNumber:
		f, ok := asFloat64(v)
		if !ok {
			return false
		}
		switch {
		case f < lit.f:
			return accept(-1)
		case f > lit.f:
			return accept(1)
		default:
			return accept(0)
		}
	case litString:
		if v.Type != record.TypeString {
			return false
		}
		switch {
		case v.Str < lit.s:
			return accept(-1)
		case v.Str > lit.s:
			return accept(1)
		default:
			return accept(0)
		}
	default:
		return false
	}
}

func asFloat64(v record.Value) (float64, bool) {
	switch v.Type {
	case record.TypeInt32, record.TypeInt64:
		return float64(v.Int), true
	case record.TypeUint32, record.TypeUint64:
		return float64(v.Uint), true
	case record.TypeFloat32, record.TypeFloat64:
		return v.Float, true
	default:
		return 0, false
	}
}
