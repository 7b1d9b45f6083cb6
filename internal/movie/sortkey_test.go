package movie

import "testing"

func TestSortKeyStripsLeadingStopWords(t *testing.T) {
	sw := NewStopWords([]string{"the", "a"})
	if sw.SortKey("The Matrix") != sw.SortKey("Matrix") {
		t.Fatalf("expected equal keys, got %q and %q", sw.SortKey("The Matrix"), sw.SortKey("Matrix"))
	}
	if got := sw.SortKey("A Bug's Life"); got != "bug's life" {
		t.Fatalf("SortKey(A Bug's Life) = %q", got)
	}
	if got := sw.SortKey("THE the Thing"); got != "thing" {
		t.Fatalf("expected repeated leading stop words stripped, got %q", got)
	}
	if got := sw.SortKey("The"); got != "the" {
		t.Fatalf("a title made only of a stop word keeps it, got %q", got)
	}
	if got := sw.SortKey("Matrix, The"); got != "matrix, the" {
		t.Fatalf("only leading words are stripped, got %q", got)
	}
}

func TestSortByTitle(t *testing.T) {
	sw := NewStopWords([]string{"the", "a"})
	titles := []string{"The Zodiac Killer", "A Bug's Life", "Matrix", "Alien"}
	SortByTitle(titles, sw, func(s string) string { return s })
	want := []string{"Alien", "A Bug's Life", "Matrix", "The Zodiac Killer"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("order = %v, want %v", titles, want)
		}
	}
}
