// Package filter implements the expression language for selecting issue
// subsets, plus a pure evaluator over issue snapshots.
//
// The language is term-based:
//   - field:value            equality (status:todo, assignee:kim)
//   - field:v1,v2            OR within a field (label:bug,regression)
//   - text:"some phrase"     substring match over title + description
//   - updated:<30d           comparisons on dates, estimates and priority
//   - -label:wontfix         negation prefix
//   - assignee:none          empty-field check (also label:none, parent:none)
//
// Terms separated by whitespace combine with implicit AND; a literal AND
// between terms is accepted and means the same thing. An empty expression
// matches every issue in scope.
package filter

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseError describes a malformed filter or sort expression. The operation
// that received the expression is never attempted.
type ParseError struct {
	Pos int    // byte offset in the input
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Msg)
}

func parseErrorf(pos int, format string, args ...any) *ParseError {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// term is one whitespace-delimited unit of the expression.
type term struct {
	Neg   bool
	Field string
	Value string
	Pos   int
}

// lexer splits an expression into terms, respecting quoted values.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

// nextTerm returns the next term, or nil at end of input.
func (l *lexer) nextTerm() (*term, error) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return nil, nil
	}

	start := l.pos
	t := &term{Pos: start}

	if l.input[l.pos] == '-' {
		t.Neg = true
		l.pos++
		if l.pos >= len(l.input) || unicode.IsSpace(rune(l.input[l.pos])) {
			return nil, parseErrorf(start, "dangling '-' with no term to negate")
		}
	}

	// Read the field name up to ':'.
	fieldStart := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != ':' && !unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos >= len(l.input) || l.input[l.pos] != ':' {
		return nil, parseErrorf(fieldStart, "expected field:value, got %q", l.input[fieldStart:l.pos])
	}
	t.Field = strings.ToLower(l.input[fieldStart:l.pos])
	if t.Field == "" {
		return nil, parseErrorf(fieldStart, "missing field name before ':'")
	}
	l.pos++ // consume ':'

	// Read the value: quoted or bare.
	if l.pos < len(l.input) && (l.input[l.pos] == '"' || l.input[l.pos] == '\'') {
		value, err := l.readQuoted()
		if err != nil {
			return nil, err
		}
		t.Value = value
		return t, nil
	}

	valueStart := l.pos
	for l.pos < len(l.input) && !unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
	t.Value = l.input[valueStart:l.pos]
	if t.Value == "" {
		return nil, parseErrorf(valueStart, "missing value for field %q", t.Field)
	}
	return t, nil
}

// readQuoted consumes a quoted value, handling backslash escapes.
func (l *lexer) readQuoted() (string, error) {
	quote := l.input[l.pos]
	start := l.pos
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch c {
		case quote:
			l.pos++
			return sb.String(), nil
		case '\\':
			l.pos++
			if l.pos >= len(l.input) {
				return "", parseErrorf(l.pos-1, "unterminated escape sequence")
			}
			sb.WriteByte(l.input[l.pos])
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return "", parseErrorf(start, "unterminated quoted string")
}

// terms tokenizes the whole input. Literal AND separators are dropped.
func (l *lexer) terms() ([]*term, error) {
	var out []*term
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			return out, nil
		}
		// A bare AND keyword between terms is an explicit conjunction.
		if rest := l.input[l.pos:]; len(rest) >= 3 && strings.EqualFold(rest[:3], "AND") &&
			(len(rest) == 3 || unicode.IsSpace(rune(rest[3]))) {
			l.pos += 3
			continue
		}
		t, err := l.nextTerm()
		if err != nil {
			return nil, err
		}
		if t == nil {
			return out, nil
		}
		out = append(out, t)
	}
}
