package split

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/droverhq/drover/internal/types"
)

// Strategy selects how stubs are derived from the parent.
type Strategy string

// Split strategies.
const (
	StrategyAcceptanceCriteria Strategy = "acceptance-criteria"
	StrategyComponent          Strategy = "component"
	StrategyFixedCount         Strategy = "fixed-count"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyAcceptanceCriteria, StrategyComponent, StrategyFixedCount:
		return Strategy(s), nil
	}
	return "", types.Validationf("unknown split strategy %q (expected acceptance-criteria, component or fixed-count)", s)
}

// preservedPrefixes are label namespaces that always carry over to stubs.
var preservedPrefixes = []string{"project:", "team:", "area:"}

// Stub is one proposed sub-issue.
type Stub struct {
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Labels      []string       `json:"labels,omitempty" yaml:"labels,omitempty"`
	Estimate    *time.Duration `json:"estimate,omitempty" yaml:"estimate,omitempty"`
}

// Suggestion is a reviewable split proposal. It holds no tracker state;
// nothing exists until Commit.
type Suggestion struct {
	Parent      types.Ref `json:"parent" yaml:"parent"`
	ParentTitle string    `json:"parent_title" yaml:"parent_title"`
	Strategy    Strategy  `json:"strategy" yaml:"strategy"`
	Stubs       []Stub    `json:"stubs" yaml:"stubs"`
	Confidence  float64   `json:"confidence" yaml:"confidence"`
}

// SuggestOptions tune stub derivation.
type SuggestOptions struct {
	// Count is the stub count for the fixed-count strategy.
	Count int
	// PreserveAll copies every parent label to stubs, not just the
	// project:/team:/area: namespaces.
	PreserveAll bool
}

// SuggestSplit derives sub-issue stubs from the parent using the given
// strategy. The parent's estimate is divided across the stubs so the stub
// total equals the parent exactly. A strategy that cannot produce at least
// one stub is a validation error, not an empty suggestion.
func SuggestSplit(iss *types.Issue, strategy Strategy, opts SuggestOptions) (*Suggestion, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}

	sug := &Suggestion{
		Parent:      iss.Ref,
		ParentTitle: iss.Title,
		Strategy:    strategy,
	}
	labels := inheritLabels(iss.Labels, opts.PreserveAll)

	switch strategy {
	case StrategyAcceptanceCriteria:
		criteria, fromHeading := extractCriteria(iss.Description)
		if len(criteria) == 0 {
			return nil, types.Validationf("%s: no acceptance criteria found in description", iss.Ref)
		}
		for _, c := range criteria {
			sug.Stubs = append(sug.Stubs, Stub{
				Title:       stubTitle(iss.Title, c),
				Description: fmt.Sprintf("Split from %s.\n\n%s", iss.Ref, c),
				Labels:      labels,
			})
		}
		sug.Confidence = 0.7
		if fromHeading {
			sug.Confidence = 0.9
		}

	case StrategyComponent:
		domains := domainsOf(iss)
		if len(domains) == 0 {
			return nil, types.Validationf("%s: no component labels to split by", iss.Ref)
		}
		for _, d := range domains {
			sug.Stubs = append(sug.Stubs, Stub{
				Title:       stubTitle(iss.Title, d+" work"),
				Description: fmt.Sprintf("Split from %s: the %s portion.", iss.Ref, d),
				Labels:      append(append([]string(nil), labels...), d),
			})
		}
		sug.Confidence = 0.75

	case StrategyFixedCount:
		if opts.Count < 2 {
			return nil, types.Validationf("fixed-count split needs at least 2 stubs (got %d)", opts.Count)
		}
		for i := 1; i <= opts.Count; i++ {
			sug.Stubs = append(sug.Stubs, Stub{
				Title:       stubTitle(iss.Title, fmt.Sprintf("part %d of %d", i, opts.Count)),
				Description: fmt.Sprintf("Split from %s (part %d of %d).", iss.Ref, i, opts.Count),
				Labels:      labels,
			})
		}
		sug.Confidence = 0.5
	}

	apportionEstimate(estimateOrZero(iss), sug.Stubs)
	return sug, nil
}

// EncodeYAML renders the suggestion as a reviewable document.
func (s *Suggestion) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// apportionEstimate divides the parent estimate evenly; the first stub takes
// the remainder so the stub total equals the parent exactly.
func apportionEstimate(total time.Duration, stubs []Stub) {
	if total <= 0 || len(stubs) == 0 {
		return
	}
	share := total / time.Duration(len(stubs))
	remainder := total - share*time.Duration(len(stubs))
	for i := range stubs {
		est := share
		if i == 0 {
			est += remainder
		}
		stubs[i].Estimate = &est
	}
}

// inheritLabels keeps the preserved namespaces, or everything with preserveAll.
func inheritLabels(labels []string, preserveAll bool) []string {
	if preserveAll {
		return append([]string(nil), labels...)
	}
	var out []string
	for _, l := range labels {
		for _, p := range preservedPrefixes {
			if strings.HasPrefix(l, p) {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// extractCriteria pulls bullet items from an "Acceptance Criteria" section
// when one exists, otherwise from the whole description. The second return
// reports whether a heading was found.
func extractCriteria(desc string) ([]string, bool) {
	lines := strings.Split(desc, "\n")

	start := -1
	for i, line := range lines {
		h := strings.ToLower(strings.TrimLeft(strings.TrimSpace(line), "# "))
		if strings.HasPrefix(h, "acceptance criteria") {
			start = i + 1
			break
		}
	}

	scan := lines
	fromHeading := false
	if start >= 0 {
		fromHeading = true
		scan = lines[start:]
		// Section ends at the next heading.
		for i, line := range scan {
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				scan = scan[:i]
				break
			}
		}
	}

	var out []string
	for _, line := range scan {
		item := strings.TrimSpace(line)
		if m := bulletRe.FindString(line); m != "" {
			item = strings.TrimSpace(strings.TrimPrefix(item, strings.TrimSpace(m)))
			item = strings.TrimSpace(strings.TrimPrefix(item, "[ ]"))
			item = strings.TrimSpace(strings.TrimPrefix(item, "[x]"))
			if item != "" {
				out = append(out, item)
			}
		}
	}
	return out, fromHeading
}

func stubTitle(parent, suffix string) string {
	title := parent + ": " + suffix
	if len(title) > 500 {
		title = title[:497] + "..."
	}
	return title
}
