package filter

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokEq
	tokNotEq
	tokLess
	tokLessEq
	tokGreater
	tokGreaterEq
	tokLParen
	tokRParen
	tokComma
	tokAnd
	tokOr
	tokNot
	tokIn
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch c {
	case '(':
		l.pos++
		return token{kind: tokLParen, text: "(", pos: start}, nil
	case ')':
		l.pos++
		return token{kind: tokRParen, text: ")", pos: start}, nil
	case ',':
		l.pos++
		return token{kind: tokComma, text: ",", pos: start}, nil
	case '=':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
		}
		return token{kind: tokEq, text: "=", pos: start}, nil
	case '!':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return token{kind: tokNotEq, text: "!=", pos: start}, nil
		}
		return token{}, fmt.Errorf("unexpected character %q at offset %d", c, start)
	case '<':
		l.pos++
		if l.pos < len(l.input) {
			switch l.input[l.pos] {
			case '=':
				l.pos++
				return token{kind: tokLessEq, text: "<=", pos: start}, nil
			case '>':
				l.pos++
				return token{kind: tokNotEq, text: "<>", pos: start}, nil
			}
		}
		return token{kind: tokLess, text: "<", pos: start}, nil
	case '>':
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return token{kind: tokGreaterEq, text: ">=", pos: start}, nil
		}
		return token{kind: tokGreater, text: ">", pos: start}, nil
	case '\'', '"':
		return l.lexString(c)
	}

	if c == '-' || c == '+' || isDigit(c) {
		return l.lexNumber()
	}

	if isIdentStart(c) {
		for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
			l.pos++
		}
		text := l.input[start:l.pos]
		switch strings.ToUpper(text) {
		case "AND":
			return token{kind: tokAnd, text: text, pos: start}, nil
		case "OR":
			return token{kind: tokOr, text: text, pos: start}, nil
		case "NOT":
			return token{kind: tokNot, text: text, pos: start}, nil
		case "IN":
			return token{kind: tokIn, text: text, pos: start}, nil
		default:
			return token{kind: tokIdent, text: text, pos: start}, nil
		}
	}

	return token{}, fmt.Errorf("unexpected character %q at offset %d", c, start)
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == '\\' && l.pos+1 < len(l.input) {
			l.pos++
			sb.WriteByte(l.input[l.pos])
			l.pos++
			continue
		}
		if c == quote {
			l.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		}
		sb.WriteByte(c)
		l.pos++
	}
	return token{}, fmt.Errorf("unterminated string at offset %d", start)
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	if l.input[l.pos] == '-' || l.input[l.pos] == '+' {
		l.pos++
	}
	digits := false
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
		digits = true
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
			digits = true
		}
	}
	if !digits {
		return token{}, fmt.Errorf("malformed number at offset %d", start)
	}
	return token{kind: tokNumber, text: l.input[start:l.pos], pos: start}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
