// Package badge decides which badges a user has newly earned.
//
// Evaluation is a pure function over a snapshot of the user's metrics —
// no database, no clock, no side effects. The caller (the engagement
// service) persists the grants afterwards; because a grant is recorded
// at most once and never revoked, evaluating the same snapshot twice can
// never produce a duplicate grant.
package badge

// Kind identifies one badge in the fixed catalog.
//
// Badges are a closed set, so we model them as a typed enum rather than
// comparing name strings scattered through the code. The display name is
// derived from the Kind in one place (String).
type Kind int

const (
	// Century is earned at 100 points.
	Century Kind = iota
	// Millennium is earned at 1000 points.
	Millennium
	// Coder is earned at 5 published snippets.
	Coder
	// Prolific is earned at 20 published snippets.
	Prolific
)

// String returns the catalog name of the badge, as stored in the badges
// table and shown to users.
func (k Kind) String() string {
	switch k {
	case Century:
		return "Century"
	case Millennium:
		return "Millennium"
	case Coder:
		return "Coder"
	case Prolific:
		return "Prolific"
	default:
		return "Unknown"
	}
}

// Description returns the catalog description for the badge.
func (k Kind) Description() string {
	switch k {
	case Century:
		return "Earned 100 points"
	case Millennium:
		return "Earned 1000 points"
	case Coder:
		return "Shared 5 snippets"
	case Prolific:
		return "Shared 20 snippets"
	default:
		return ""
	}
}

// All lists every badge in the catalog, in grant-check order.
func All() []Kind {
	return []Kind{Century, Millennium, Coder, Prolific}
}

// Metrics is the snapshot a badge decision is made against.
type Metrics struct {
	Points       int
	SnippetCount int
}

// qualifies reports whether the metrics meet the badge's threshold.
// Thresholds are inclusive: exactly 100 points earns Century.
func (k Kind) qualifies(m Metrics) bool {
	switch k {
	case Century:
		return m.Points >= 100
	case Millennium:
		return m.Points >= 1000
	case Coder:
		return m.SnippetCount >= 5
	case Prolific:
		return m.SnippetCount >= 20
	default:
		return false
	}
}

// Evaluate returns the badges newly qualified by the given metrics,
// excluding any the user already holds. held maps badge names (Kind.String)
// the user currently has.
//
// The result is deterministic and idempotent: applying the returned grants
// and evaluating again with the same metrics yields an empty result.
func Evaluate(m Metrics, held map[string]bool) []Kind {
	var earned []Kind
	for _, k := range All() {
		if held[k.String()] {
			continue
		}
		if k.qualifies(m) {
			earned = append(earned, k)
		}
	}
	return earned
}
