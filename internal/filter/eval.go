package filter

import (
	"strings"
	"time"

	"github.com/droverhq/drover/internal/types"
)

// Evaluate reports whether the issue matches the expression. It is a pure
// function of (expr, issue, now): no side effects, deterministic for a fixed
// now. The reference time anchors age comparisons like updated:<30d.
func Evaluate(expr Expr, issue *types.Issue, now time.Time) bool {
	switch n := expr.(type) {
	case *MatchAll:
		return true
	case *And:
		for _, c := range n.Children {
			if !Evaluate(c, issue, now) {
				return false
			}
		}
		return true
	case *Not:
		return !Evaluate(n.Operand, issue, now)
	case *TextMatch:
		needle := strings.ToLower(n.Substr)
		return strings.Contains(strings.ToLower(issue.Title), needle) ||
			strings.Contains(strings.ToLower(issue.Description), needle)
	case *SetMember:
		for _, v := range n.Values {
			if fieldEquals(n.Field, v, issue) {
				return true
			}
		}
		return false
	case *Compare:
		return evalCompare(n, issue, now)
	default:
		return false
	}
}

// Select evaluates the expression over a snapshot and returns the matching
// issues in input order.
func Select(expr Expr, issues []types.Issue, now time.Time) []types.Issue {
	var out []types.Issue
	for i := range issues {
		if Evaluate(expr, &issues[i], now) {
			out = append(out, issues[i])
		}
	}
	return out
}

func evalCompare(n *Compare, issue *types.Issue, now time.Time) bool {
	if n.Op == OpIsEmpty {
		switch n.Field {
		case "assignee":
			return issue.Assignee == ""
		case "label":
			return len(issue.Labels) == 0
		case "parent":
			return issue.Parent == nil
		case "estimate":
			return issue.Estimate == nil
		default:
			return false
		}
	}

	switch n.Field {
	case "created":
		return compareAge(now.Sub(issue.CreatedAt), n.Op, n.Dur)
	case "updated":
		return compareAge(now.Sub(issue.UpdatedAt), n.Op, n.Dur)
	case "estimate":
		if issue.Estimate == nil {
			return false
		}
		return compareDuration(*issue.Estimate, n.Op, n.Dur)
	case "priority":
		// Equality terms carry the value as text; only ordered comparisons
		// populate Prio.
		if n.Op == OpEquals {
			return fieldEquals("priority", n.Value, issue)
		}
		return compareInt(int(issue.Priority), n.Op, int(n.Prio))
	default:
		// Remaining fields only reach here with OpEquals.
		return fieldEquals(n.Field, n.Value, issue)
	}
}

// fieldEquals implements the per-field equality rules shared by Compare and
// SetMember nodes.
func fieldEquals(field, value string, issue *types.Issue) bool {
	switch field {
	case "id":
		return issue.Ref.String() == value || issue.Ref.ID == value
	case "title":
		return strings.Contains(strings.ToLower(issue.Title), strings.ToLower(value))
	case "status":
		return issue.Status == types.Status(strings.ToLower(value))
	case "priority":
		p, err := types.ParsePriority(value)
		return err == nil && issue.Priority == p
	case "label":
		return issue.HasLabel(value)
	case "assignee":
		return strings.EqualFold(issue.Assignee, value)
	case "parent":
		if issue.Parent == nil {
			return false
		}
		return issue.Parent.String() == value || issue.Parent.ID == value
	default:
		return false
	}
}

// compareAge interprets duration comparisons on timestamps as age checks:
// updated:<30d matches issues updated within the last 30 days, updated:>30d
// matches issues untouched for longer than 30 days.
func compareAge(age time.Duration, op CompareOp, threshold time.Duration) bool {
	return compareDuration(age, op, threshold)
}

func compareDuration(have time.Duration, op CompareOp, want time.Duration) bool {
	switch op {
	case OpLess:
		return have < want
	case OpLessEq:
		return have <= want
	case OpGreater:
		return have > want
	case OpGreaterEq:
		return have >= want
	case OpEquals:
		return have == want
	default:
		return false
	}
}

func compareInt(have int, op CompareOp, want int) bool {
	switch op {
	case OpLess:
		return have < want
	case OpLessEq:
		return have <= want
	case OpGreater:
		return have > want
	case OpGreaterEq:
		return have >= want
	case OpEquals:
		return have == want
	default:
		return false
	}
}
