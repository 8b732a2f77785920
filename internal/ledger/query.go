package ledger

import (
	"iter"
	"strings"

	"budgetbook/internal/core"
)

// Filter narrows Query. Zero fields match everything.
type Filter struct {
	// Search is matched case-insensitively against the description and the
	// formatted Date/Time value.
	Search string
	// Category must match exactly when set.
	Category core.Category
}

// Matches reports whether r passes the filter.
func (f Filter) Matches(r core.Record) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(r.Description), q) ||
		strings.Contains(strings.ToLower(r.FormattedTime()), q)
}

// Query returns the records matching f in ledger order. The sequence reads
// the ledger each time it is ranged over, so it reflects later mutations.
func (l *Ledger) Query(f Filter) iter.Seq[core.Record] {
	return func(yield func(core.Record) bool) {
		for _, r := range l.records {
			if !f.Matches(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}
