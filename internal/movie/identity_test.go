package movie

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestNewParsesYear(t *testing.T) {
	id, err := New(" Oldboy ", "2003")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if id.Name != "Oldboy" || id.Year != 2003 || !id.Valid() {
		t.Fatalf("unexpected identity %+v", id)
	}

	blank, err := New("Oldboy", "")
	if err != nil {
		t.Fatalf("New blank year: %v", err)
	}
	if blank.Valid() {
		t.Fatal("identity without year must not be valid")
	}
	if (Identity{Name: "  ", Year: 2003}).Valid() {
		t.Fatal("identity with blank name must not be valid")
	}

	if _, err := New("Oldboy", "soon"); err == nil {
		t.Fatal("expected error for non-numeric year")
	}
}

func TestParseYearAcceptsDates(t *testing.T) {
	year, err := ParseYear("2003-11-21")
	if err != nil || year != 2003 {
		t.Fatalf("ParseYear = %d, %v", year, err)
	}
}

func TestEqualityIsExact(t *testing.T) {
	a := Identity{Name: "Oldboy", Year: 2003}
	if !a.Equal(Identity{Name: "Oldboy", Year: 2003}) {
		t.Fatal("expected equal identities")
	}
	if a.Equal(Identity{Name: "oldboy", Year: 2003}) {
		t.Fatal("equality must be case sensitive")
	}
	if a.Equal(Identity{Name: "Oldboy", Year: 2013}) {
		t.Fatal("equality must include the year")
	}
}

func TestYearWindow(t *testing.T) {
	got := Identity{Name: "T", Year: 2020}.YearWindow()
	want := []int{2020, 2019, 2021}
	if !slices.Equal(got, want) {
		t.Fatalf("YearWindow = %v, want %v", got, want)
	}
}

func TestIdentityJSONAcceptsStringYear(t *testing.T) {
	var ids []Identity
	if err := json.Unmarshal([]byte(`[{"name":"Oldboy","year":"2003"},{"name":"Heat","year":1995},{"name":"Odd","year":null}]`), &ids); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ids[0].Year != 2003 || ids[1].Year != 1995 || ids[2].Year != 0 {
		t.Fatalf("unexpected years %+v", ids)
	}
	data, err := json.Marshal(ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"name":"Oldboy","year":2003}` {
		t.Fatalf("unexpected encoding %s", data)
	}
}

func TestString(t *testing.T) {
	if got := (Identity{Name: "Oldboy", Year: 2003}).String(); got != "Oldboy (2003)" {
		t.Fatalf("String = %q", got)
	}
	if got := (Identity{Name: "Oldboy"}).String(); got != "Oldboy" {
		t.Fatalf("String = %q", got)
	}
}
