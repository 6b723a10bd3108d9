package modifier

import "sort"

// Entry is one numeric bonus found in a free-text field.
type Entry struct {
	Path   string  `json:"path"`
	Value  float64 `json:"value"`
	Source string  `json:"source"`
}

// Ledger is the per-entity record of every textual modifier found during a
// derivation pass. It is regenerated from scratch each pass and never persisted.
type Ledger struct {
	Breakdown []Entry            `json:"breakdown"`
	Totals    map[string]float64 `json:"totals"`
}

// NewLedger sums entries per path.
//
// Postcondition: Totals[p] == sum of Value over every entry with Path p.
func NewLedger(entries []Entry) Ledger {
	l := Ledger{
		Breakdown: make([]Entry, 0, len(entries)),
		Totals:    make(map[string]float64),
	}
	for _, e := range entries {
		l.Breakdown = append(l.Breakdown, e)
		l.Totals[e.Path] += e.Value
	}
	return l
}

// Paths returns the paths with a nonzero total in lexical order.
func (l Ledger) Paths() []string {
	out := make([]string, 0, len(l.Totals))
	for p, v := range l.Totals {
		if v != 0 {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
