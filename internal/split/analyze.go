// Package split sizes issues and decomposes oversized ones into sub-issues.
// Analysis is advisory: it never mutates anything. Splitting is a two-step
// flow, SuggestSplit for review and Commit to create the stubs.
package split

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/droverhq/drover/internal/types"
)

// MaxIssueHours is the estimate above which a split is always recommended.
const MaxIssueHours = 16

// Level buckets the complexity score.
type Level string

// Complexity levels.
const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Report is the outcome of analyzing one issue.
type Report struct {
	Ref              types.Ref `json:"ref"`
	Level            Level     `json:"level"`
	Score            int       `json:"score"`
	EstimatedHours   float64   `json:"estimated_hours,omitempty"`
	SplitRecommended bool      `json:"split_recommended"`
	Signals          []string  `json:"signals,omitempty"`
}

// domainLabels are the labels that mark an issue as spanning a component.
var domainLabels = map[string]bool{
	"backend":  true,
	"frontend": true,
	"database": true,
	"infra":    true,
	"api":      true,
	"design":   true,
}

var bulletRe = regexp.MustCompile(`(?m)^\s*(?:[-*+]\s|\d+[.)]\s|\[[ xX]\]\s)`)

// Analyze scores the issue's complexity from its description structure,
// domain spread, and estimate. Scores 5 and up are high, 3 and up medium.
func Analyze(iss *types.Issue) Report {
	rep := Report{Ref: iss.Ref}
	score := 0

	bullets := len(bulletRe.FindAllString(iss.Description, -1))
	switch {
	case bullets > 5:
		score += 2
		rep.Signals = append(rep.Signals, fmt.Sprintf("%d checklist items", bullets))
	case bullets > 2:
		score++
		rep.Signals = append(rep.Signals, fmt.Sprintf("%d checklist items", bullets))
	}

	domains := domainsOf(iss)
	switch {
	case len(domains) >= 3:
		score += 2
		rep.Signals = append(rep.Signals, "spans "+strings.Join(domains, ", "))
	case len(domains) == 2:
		score++
		rep.Signals = append(rep.Signals, "spans "+strings.Join(domains, ", "))
	}

	if iss.Estimate != nil {
		rep.EstimatedHours = iss.Estimate.Hours()
		if rep.EstimatedHours > MaxIssueHours {
			score += 3
			rep.Signals = append(rep.Signals,
				fmt.Sprintf("estimate %.0fh exceeds %dh cap", rep.EstimatedHours, MaxIssueHours))
		}
	}

	switch n := len(iss.Description); {
	case n > 2000:
		score += 2
		rep.Signals = append(rep.Signals, "long description")
	case n > 800:
		score++
		rep.Signals = append(rep.Signals, "long description")
	}

	rep.Score = score
	switch {
	case score >= 5:
		rep.Level = LevelHigh
	case score >= 3:
		rep.Level = LevelMedium
	default:
		rep.Level = LevelLow
	}
	rep.SplitRecommended = rep.Level == LevelHigh ||
		(iss.Estimate != nil && iss.Estimate.Hours() > MaxIssueHours)
	return rep
}

// domainsOf returns the issue's domain labels in label order.
func domainsOf(iss *types.Issue) []string {
	var out []string
	for _, l := range iss.Labels {
		if domainLabels[strings.ToLower(l)] {
			out = append(out, strings.ToLower(l))
		}
	}
	return out
}

// estimateOrZero is a nil-safe estimate accessor.
func estimateOrZero(iss *types.Issue) time.Duration {
	if iss.Estimate == nil {
		return 0
	}
	return *iss.Estimate
}
