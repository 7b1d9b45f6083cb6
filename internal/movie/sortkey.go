package movie

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// StopWords holds leading articles ignored when ordering titles.
type StopWords struct {
	words  map[string]struct{}
	folder cases.Caser
}

// NewStopWords builds a case-insensitive stop word set.
func NewStopWords(words []string) StopWords {
	sw := StopWords{words: make(map[string]struct{}, len(words)), folder: cases.Fold()}
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		sw.words[sw.folder.String(w)] = struct{}{}
	}
	return sw
}

// SortKey folds the title and strips leading stop words. "The Matrix" and
// "Matrix" share a key; "A Bug's Life" loses only its leading "a".
func (s StopWords) SortKey(title string) string {
	fields := strings.Fields(s.folder.String(strings.TrimSpace(title)))
	for len(fields) > 1 {
		if _, ok := s.words[fields[0]]; !ok {
			break
		}
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// Less orders two titles by their sort keys, falling back to the raw title so
// the ordering stays total.
func (s StopWords) Less(a, b string) bool {
	ka, kb := s.SortKey(a), s.SortKey(b)
	if ka != kb {
		return ka < kb
	}
	return a < b
}

// SortByTitle stably orders items using the title accessor.
func SortByTitle[T any](items []T, sw StopWords, title func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return sw.Less(title(items[i]), title(items[j]))
	})
}
