package rows

import (
	"testing"
)

func table(ids ...string) *Table {
	t := NewTable()
	for _, id := range ids {
		t.Append(NewRow(map[Field]string{ID: id}))
	}
	return t
}

func TestFieldByName(t *testing.T) {
	for _, f := range Fields() {
		got, ok := FieldByName(f.String())
		if !ok || got != f {
			t.Errorf("FieldByName(%q) = %v, %v; expected %v", f.String(), got, ok, f)
		}
	}

	if _, ok := FieldByName("amount"); ok {
		t.Errorf("FieldByName(%q) should not match", "amount")
	}
}

func TestGroups(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		expected []Group
	}{
		{"empty", nil, nil},
		{"single", []string{"INV1"}, []Group{{"INV1", 0, 1}}},
		{"blank inherits", []string{"INV1", "", ""}, []Group{{"INV1", 0, 3}}},
		{
			"two documents",
			[]string{"INV1", "", "INV2", "INV2"},
			[]Group{{"INV1", 0, 2}, {"INV2", 2, 4}},
		},
		{
			"leading blanks",
			[]string{"", "", "INV1"},
			[]Group{{"", 0, 2}, {"INV1", 2, 3}},
		},
		{
			"repeated id is a new group",
			[]string{"A", "B", "A"},
			[]Group{{"A", 0, 1}, {"B", 1, 2}, {"A", 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Groups(table(tt.ids...))
			if len(result) != len(tt.expected) {
				t.Fatalf("Groups() returned %d groups, expected %d: %+v", len(result), len(tt.expected), result)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("group %d = %+v, expected %+v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestFillIDs(t *testing.T) {
	tbl := table("INV1", "", "INV2", "")
	FillIDs(tbl, Groups(tbl))

	expected := []string{"INV1", "INV1", "INV2", "INV2"}
	for i, id := range expected {
		if got := tbl.Get(i, ID); got != id {
			t.Errorf("row %d id = %q, expected %q", i, got, id)
		}
	}
}

func TestIterateWithDeletion(t *testing.T) {
	tbl := table("a", "b", "c", "d")
	var visited []string

	tbl.Iterate(func(i int, r *Row) bool {
		visited = append(visited, r.Get(ID))
		return r.Get(ID) == "b" || r.Get(ID) == "c"
	})

	if len(visited) != 4 {
		t.Errorf("Iterate visited %v, expected all four rows", visited)
	}
	if tbl.Len() != 2 || tbl.Get(0, ID) != "a" || tbl.Get(1, ID) != "d" {
		t.Errorf("table after deletion = %v, expected [a d]", ids(tbl))
	}
}

func TestRemoveRange(t *testing.T) {
	tbl := table("a", "b", "c", "d")
	tbl.RemoveRange(1, 3)
	if got := ids(tbl); len(got) != 2 || got[0] != "a" || got[1] != "d" {
		t.Errorf("RemoveRange(1, 3) left %v, expected [a d]", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("RemoveRange out of bounds should panic")
		}
	}()
	tbl.RemoveRange(1, 5)
}

func ids(t *Table) []string {
	var out []string
	for _, r := range t.Rows() {
		out = append(out, r.Get(ID))
	}
	return out
}
