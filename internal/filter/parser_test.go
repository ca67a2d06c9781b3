package filter

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string // String() of the resulting AST
		wantErr string // substring of the parse error
	}{
		{
			name:  "empty matches all",
			input: "",
			want:  "*",
		},
		{
			name:  "whitespace matches all",
			input: "   ",
			want:  "*",
		},
		{
			name:  "single equality",
			input: "status:todo",
			want:  "status:todo",
		},
		{
			name:  "implicit and",
			input: "status:todo priority:p1",
			want:  "status:todo priority:p1",
		},
		{
			name:  "explicit AND keyword",
			input: "label:needs-triage AND assignee:none",
			want:  "label:needs-triage assignee:none",
		},
		{
			name:  "value list is set membership",
			input: "label:bug,regression",
			want:  "label:bug,regression",
		},
		{
			name:  "negation",
			input: "-label:wontfix",
			want:  "-label:wontfix",
		},
		{
			name:  "quoted text match",
			input: `text:"timeout in prod"`,
			want:  `text:"timeout in prod"`,
		},
		{
			name:  "date comparison",
			input: "updated:<30d",
			want:  "updated:<30d",
		},
		{
			name:  "estimate comparison",
			input: "estimate:>=8h",
			want:  "estimate:>=8h",
		},
		{
			name:  "priority comparison",
			input: "priority:<=p1",
			want:  "priority:<=p1",
		},
		{
			name:  "labels alias",
			input: "labels:bug",
			want:  "label:bug",
		},
		{
			name:    "unknown field",
			input:   "sprint:12",
			wantErr: `unknown field "sprint"`,
		},
		{
			name:    "bare word",
			input:   "urgent",
			wantErr: "expected field:value",
		},
		{
			name:    "missing value",
			input:   "label:",
			wantErr: "missing value",
		},
		{
			name:    "unterminated quote",
			input:   `text:"oops`,
			wantErr: "unterminated quoted string",
		},
		{
			name:    "dangling negation",
			input:   "status:todo -",
			wantErr: "dangling '-'",
		},
		{
			name:    "invalid status value",
			input:   "status:wontfix",
			wantErr: `invalid status "wontfix"`,
		},
		{
			name:    "invalid priority value",
			input:   "priority:p9",
			wantErr: "invalid priority",
		},
		{
			name:    "date without operator",
			input:   "updated:30d",
			wantErr: "needs a comparison operator",
		},
		{
			name:    "bad duration",
			input:   "updated:<3months",
			wantErr: "not a compact duration",
		},
		{
			name:    "comparison on string field",
			input:   "assignee:<kim",
			wantErr: "does not support comparison",
		},
		{
			name:    "list on duration field",
			input:   "status:todo created:a,b",
			wantErr: "needs a comparison operator",
		},
		{
			name:    "none on unsupported field",
			input:   "status:none",
			wantErr: "does not support",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.input)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Parse(%q) succeeded, want error containing %q", tt.input, tt.wantErr)
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("Parse(%q) error type = %T, want *ParseError", tt.input, err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse(%q) error = %q, want substring %q", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got := expr.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseNoneChecks(t *testing.T) {
	for _, field := range []string{"assignee", "label", "parent", "estimate"} {
		expr, err := Parse(field + ":none")
		if err != nil {
			t.Fatalf("Parse(%s:none) error = %v", field, err)
		}
		cmp, ok := expr.(*Compare)
		if !ok {
			t.Fatalf("Parse(%s:none) = %T, want *Compare", field, expr)
		}
		if cmp.Op != OpIsEmpty {
			t.Errorf("Parse(%s:none) op = %v, want OpIsEmpty", field, cmp.Op)
		}
	}
}
