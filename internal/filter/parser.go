package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/droverhq/drover/internal/timeparsing"
	"github.com/droverhq/drover/internal/types"
)

// Expr is a node in the immutable filter AST.
type Expr interface {
	expr() // marker method
	String() string
}

// CompareOp represents a comparison operator.
type CompareOp int

// Comparison operators
const (
	OpEquals CompareOp = iota
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpIsEmpty // field:none
)

// String returns the operator's surface form.
func (op CompareOp) String() string {
	switch op {
	case OpEquals:
		return ""
	case OpLess:
		return "<"
	case OpLessEq:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEq:
		return ">="
	case OpIsEmpty:
		return "none"
	default:
		return "?"
	}
}

// MatchAll matches every issue. The empty expression parses to this.
type MatchAll struct{}

func (*MatchAll) expr()          {}
func (*MatchAll) String() string { return "*" }

// Compare is a single field comparison. For duration-valued fields
// (created, updated, estimate) Dur holds the parsed duration; for priority
// Prio holds the parsed level; otherwise Value is compared as a string.
type Compare struct {
	Field string
	Op    CompareOp
	Value string
	Dur   time.Duration
	Prio  types.Priority
}

func (*Compare) expr() {}
func (n *Compare) String() string {
	if n.Op == OpIsEmpty {
		return n.Field + ":none"
	}
	return n.Field + ":" + n.Op.String() + n.Value
}

// SetMember matches when the field equals any of the listed values
// (OR within a field).
type SetMember struct {
	Field  string
	Values []string
}

func (*SetMember) expr() {}
func (n *SetMember) String() string {
	return n.Field + ":" + strings.Join(n.Values, ",")
}

// TextMatch is a case-insensitive substring match over title + description.
type TextMatch struct {
	Substr string
}

func (*TextMatch) expr()            {}
func (n *TextMatch) String() string { return fmt.Sprintf("text:%q", n.Substr) }

// Not negates its operand.
type Not struct {
	Operand Expr
}

func (*Not) expr()            {}
func (n *Not) String() string { return "-" + n.Operand.String() }

// And is the conjunction of all its children.
type And struct {
	Children []Expr
}

func (*And) expr() {}
func (n *And) String() string {
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// knownFields lists the fields the language accepts. Unknown fields fail the
// parse rather than silently matching nothing.
var knownFields = map[string]bool{
	"id":       true,
	"title":    true,
	"status":   true,
	"priority": true,
	"label":    true,
	"labels":   true, // alias
	"assignee": true,
	"parent":   true,
	"created":  true,
	"updated":  true,
	"estimate": true,
	"text":     true,
}

// fieldAlias canonicalizes aliases.
func fieldAlias(f string) string {
	if f == "labels" {
		return "label"
	}
	return f
}

// durationFields take compact-duration comparison values.
var durationFields = map[string]bool{
	"created":  true,
	"updated":  true,
	"estimate": true,
}

// Parse parses a filter expression. An empty or all-whitespace expression
// returns MatchAll (used for "everything in scope" queries where scoping
// happens adapter-side).
func Parse(text string) (Expr, error) {
	terms, err := newLexer(text).terms()
	if err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return &MatchAll{}, nil
	}

	children := make([]Expr, 0, len(terms))
	for _, t := range terms {
		node, err := parseTerm(t)
		if err != nil {
			return nil, err
		}
		if t.Neg {
			node = &Not{Operand: node}
		}
		children = append(children, node)
	}

	if len(children) == 1 {
		return children[0], nil
	}
	return &And{Children: children}, nil
}

// parseTerm converts one lexed term into an AST node.
func parseTerm(t *term) (Expr, error) {
	field := fieldAlias(t.Field)
	if !knownFields[t.Field] {
		return nil, parseErrorf(t.Pos, "unknown field %q (known fields: id, title, status, priority, label, assignee, parent, created, updated, estimate, text)", t.Field)
	}

	if field == "text" {
		if t.Value == "" {
			return nil, parseErrorf(t.Pos, "text match needs a non-empty value")
		}
		return &TextMatch{Substr: t.Value}, nil
	}

	// Comparison operators.
	if op, rest, ok := splitCompareOp(t.Value); ok {
		return parseComparison(t, field, op, rest)
	}

	// Empty-field checks.
	if isNoneValue(t.Value) {
		switch field {
		case "assignee", "label", "parent", "estimate":
			return &Compare{Field: field, Op: OpIsEmpty}, nil
		default:
			return nil, parseErrorf(t.Pos, "field %q does not support %s:none", field, field)
		}
	}

	// Duration-valued fields accept nothing but comparisons.
	if durationFields[field] {
		return nil, parseErrorf(t.Pos, "field %q needs a comparison operator (e.g. %s:<30d)", field, field)
	}

	// Comma list: OR within the field.
	if strings.Contains(t.Value, ",") {
		values := splitList(t.Value)
		if len(values) == 0 {
			return nil, parseErrorf(t.Pos, "empty value list for field %q", field)
		}
		if err := validateValues(t, field, values); err != nil {
			return nil, err
		}
		return &SetMember{Field: field, Values: values}, nil
	}

	if err := validateValues(t, field, []string{t.Value}); err != nil {
		return nil, err
	}
	return &Compare{Field: field, Op: OpEquals, Value: t.Value}, nil
}

// parseComparison handles <, <=, >, >= values.
func parseComparison(t *term, field string, op CompareOp, rest string) (Expr, error) {
	if rest == "" {
		return nil, parseErrorf(t.Pos, "missing value after comparison operator for field %q", field)
	}
	switch {
	case durationFields[field]:
		d, err := timeparsing.ParseCompactDuration(rest)
		if err != nil {
			return nil, parseErrorf(t.Pos, "field %q: %v", field, err)
		}
		return &Compare{Field: field, Op: op, Value: rest, Dur: d}, nil
	case field == "priority":
		p, err := types.ParsePriority(rest)
		if err != nil {
			return nil, parseErrorf(t.Pos, "field priority: %v", err)
		}
		return &Compare{Field: field, Op: op, Value: rest, Prio: p}, nil
	default:
		return nil, parseErrorf(t.Pos, "field %q does not support comparison operators", field)
	}
}

// validateValues rejects values that can never match so typos surface at
// parse time instead of returning empty result sets.
func validateValues(t *term, field string, values []string) error {
	for _, v := range values {
		switch field {
		case "status":
			if !types.Status(strings.ToLower(v)).IsValid() {
				return parseErrorf(t.Pos, "invalid status %q (todo, in_progress, blocked, done, closed)", v)
			}
		case "priority":
			if _, err := types.ParsePriority(v); err != nil {
				return parseErrorf(t.Pos, "invalid priority %q (p0..p3)", v)
			}
		}
	}
	return nil
}

func splitCompareOp(value string) (CompareOp, string, bool) {
	switch {
	case strings.HasPrefix(value, "<="):
		return OpLessEq, value[2:], true
	case strings.HasPrefix(value, ">="):
		return OpGreaterEq, value[2:], true
	case strings.HasPrefix(value, "<"):
		return OpLess, value[1:], true
	case strings.HasPrefix(value, ">"):
		return OpGreater, value[1:], true
	default:
		return 0, value, false
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isNoneValue(v string) bool {
	lower := strings.ToLower(v)
	return lower == "none" || lower == "null"
}
