package blocker

import (
	"strings"

	"github.com/droverhq/drover/internal/types"
)

// CriticalPath returns the longest chain of unresolved blocking edges leading
// away from target: target first, then the issue blocking it, and so on to
// the root blocker. A cycle in the unresolved graph is a validation error
// naming the cycle, never a truncated or looping path.
func CriticalPath(rels []Relation, target types.Ref) ([]types.Ref, error) {
	blockedBy := make(map[types.Ref][]types.Ref)
	for _, r := range rels {
		if r.State() == StateResolved || r.Blocking == nil {
			continue
		}
		blockedBy[r.Blocked] = append(blockedBy[r.Blocked], *r.Blocking)
	}

	onPath := make(map[types.Ref]bool)
	var walk func(ref types.Ref, path []types.Ref) ([]types.Ref, error)
	walk = func(ref types.Ref, path []types.Ref) ([]types.Ref, error) {
		if onPath[ref] {
			return nil, types.Validationf("blocking cycle detected: %s", cycleString(path, ref))
		}
		onPath[ref] = true
		defer delete(onPath, ref)

		path = append(path, ref)
		longest := append([]types.Ref(nil), path...)
		for _, next := range blockedBy[ref] {
			sub, err := walk(next, path)
			if err != nil {
				return nil, err
			}
			if len(sub) > len(longest) {
				longest = sub
			}
		}
		return longest, nil
	}

	return walk(target, nil)
}

func cycleString(path []types.Ref, repeat types.Ref) string {
	parts := make([]string, 0, len(path)+2)
	started := false
	for _, r := range path {
		if r == repeat {
			started = true
		}
		if started {
			parts = append(parts, r.String())
		}
	}
	parts = append(parts, repeat.String())
	return strings.Join(parts, " -> ")
}
