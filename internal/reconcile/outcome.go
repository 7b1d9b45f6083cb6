package reconcile

import (
	"reelsync/internal/export"
	"reelsync/internal/library"
	"reelsync/internal/movie"
)

// Outcome is the terminal state of one export row.
type Outcome int

const (
	// OutcomeSkipped rows were filtered before any search.
	OutcomeSkipped Outcome = iota
	// OutcomeMatched rows resolved to exactly one library item.
	OutcomeMatched
	// OutcomeMissing rows had no library item and were recorded as missing.
	OutcomeMissing
	// OutcomeIgnored rows matched a show and were added to the ignore list.
	OutcomeIgnored
	// OutcomeDeclined rows had several candidates and no choice was made.
	OutcomeDeclined
)

var outcomeNames = map[Outcome]string{
	OutcomeSkipped:  "skipped",
	OutcomeMatched:  "matched",
	OutcomeMissing:  "missing",
	OutcomeIgnored:  "ignored",
	OutcomeDeclined: "declined",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Result describes how one row was classified.
type Result struct {
	Row export.Row
	// Source is the identity parsed from the row.
	Source movie.Identity
	// Identity is the library-facing identity after remapping and bridging.
	Identity movie.Identity
	Outcome  Outcome
	Reason   string
	// Item is set for matched rows.
	Item library.Item
}

// Report collects the results of one run in input order.
type Report struct {
	RunID   string
	Run     string
	Results []Result
}

// Count returns how many rows ended in outcome.
func (r Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Matched returns the matched results, keeping the first row per library item.
func (r Report) Matched() []Result {
	seen := make(map[string]struct{})
	var out []Result
	for _, res := range r.Results {
		if res.Outcome != OutcomeMatched {
			continue
		}
		if _, dup := seen[res.Item.Key]; dup {
			continue
		}
		seen[res.Item.Key] = struct{}{}
		out = append(out, res)
	}
	return out
}

// MatchedItems returns the library items of Matched.
func (r Report) MatchedItems() []library.Item {
	matched := r.Matched()
	items := make([]library.Item, 0, len(matched))
	for _, res := range matched {
		items = append(items, res.Item)
	}
	return items
}
