package types

import (
	"strings"
	"testing"
	"time"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Ref
		wantErr bool
	}{
		{
			name:  "github ref",
			input: "github:acme/api#412",
			want:  Ref{Platform: "github", ID: "acme/api#412"},
		},
		{
			name:  "linear ref",
			input: "linear:ENG-1042",
			want:  Ref{Platform: "linear", ID: "ENG-1042"},
		},
		{
			name:    "missing platform",
			input:   ":ENG-1042",
			wantErr: true,
		},
		{
			name:    "missing id",
			input:   "linear:",
			wantErr: true,
		},
		{
			name:    "no separator",
			input:   "ENG-1042",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRef(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !IsValidation(err) {
					t.Errorf("ParseRef(%q) error is not a ValidationError", tt.input)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseRef(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.String() != tt.input {
				t.Errorf("round trip: got %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestIssueValidation(t *testing.T) {
	ref := Ref{Platform: "linear", ID: "ENG-1"}
	negative := -time.Hour

	tests := []struct {
		name    string
		issue   Issue
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid issue",
			issue: Issue{
				Ref:      ref,
				Title:    "Valid issue",
				Status:   StatusTodo,
				Priority: P2,
			},
			wantErr: false,
		},
		{
			name: "missing ref",
			issue: Issue{
				Title:    "No ref",
				Status:   StatusTodo,
				Priority: P2,
			},
			wantErr: true,
			errMsg:  "issue ref is required",
		},
		{
			name: "missing title",
			issue: Issue{
				Ref:      ref,
				Status:   StatusTodo,
				Priority: P2,
			},
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name: "title too long",
			issue: Issue{
				Ref:      ref,
				Title:    strings.Repeat("x", 501),
				Status:   StatusTodo,
				Priority: P2,
			},
			wantErr: true,
			errMsg:  "title must be 500 characters or less",
		},
		{
			name: "invalid status",
			issue: Issue{
				Ref:      ref,
				Title:    "Bad status",
				Status:   Status("wontfix"),
				Priority: P2,
			},
			wantErr: true,
			errMsg:  "invalid status",
		},
		{
			name: "priority out of range",
			issue: Issue{
				Ref:      ref,
				Title:    "Bad priority",
				Status:   StatusTodo,
				Priority: Priority(4),
			},
			wantErr: true,
			errMsg:  "priority must be between 0 and 3",
		},
		{
			name: "negative estimate",
			issue: Issue{
				Ref:      ref,
				Title:    "Bad estimate",
				Status:   StatusTodo,
				Priority: P2,
				Estimate: &negative,
			},
			wantErr: true,
			errMsg:  "estimate cannot be negative",
		},
		{
			name: "self parent",
			issue: Issue{
				Ref:      ref,
				Title:    "Self parent",
				Status:   StatusTodo,
				Priority: P2,
				Parent:   &ref,
			},
			wantErr: true,
			errMsg:  "cannot be its own parent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.issue.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want substring %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusTodo, StatusInProgress, true},
		{StatusTodo, StatusDone, false},
		{StatusInProgress, StatusDone, true},
		{StatusBlocked, StatusInProgress, true},
		{StatusBlocked, StatusDone, false},
		{StatusDone, StatusTodo, true},
		{StatusClosed, StatusTodo, true},
		{StatusClosed, StatusInProgress, false},
		{StatusBlocked, StatusBlocked, true}, // same-status is a no-op
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input   string
		want    Priority
		wantErr bool
	}{
		{"p0", P0, false},
		{"P1", P1, false},
		{"2", P2, false},
		{"p3", P3, false},
		{"p4", 0, true},
		{"critical", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParsePriority(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParsePriority(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDetectParentCycle(t *testing.T) {
	mk := func(id string, parent string) Issue {
		iss := Issue{
			Ref:      Ref{Platform: "fake", ID: id},
			Title:    id,
			Status:   StatusTodo,
			Priority: P2,
		}
		if parent != "" {
			p := Ref{Platform: "fake", ID: parent}
			iss.Parent = &p
		}
		return iss
	}

	t.Run("tree is fine", func(t *testing.T) {
		issues := []Issue{mk("a", ""), mk("b", "a"), mk("c", "a"), mk("d", "b")}
		if err := DetectParentCycle(issues); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("cycle detected", func(t *testing.T) {
		issues := []Issue{mk("a", "c"), mk("b", "a"), mk("c", "b")}
		err := DetectParentCycle(issues)
		if err == nil {
			t.Fatal("expected cycle error, got nil")
		}
		if !IsValidation(err) {
			t.Errorf("expected ValidationError, got %T", err)
		}
	})

	t.Run("parent outside snapshot", func(t *testing.T) {
		issues := []Issue{mk("b", "external")}
		if err := DetectParentCycle(issues); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
