package rows

// Group is a contiguous run of rows [Start, End) sharing one effective
// document id.
type Group struct {
	ID    string
	Start int
	End   int
}

// Len returns the number of rows in the group.
func (g Group) Len() int {
	return g.End - g.Start
}

// Groups partitions the table into document groups. A row with a blank id
// belongs to the group of the row before it; leading blank rows form a group
// with an empty id. The table is not modified.
func Groups(t *Table) []Group {
	var groups []Group
	current := ""

	for i, r := range t.rows {
		id := r.Get(ID)
		if id == "" {
			id = current
		}

		if len(groups) == 0 || id != current {
			groups = append(groups, Group{ID: id, Start: i, End: i + 1})
			current = id
			continue
		}
		groups[len(groups)-1].End = i + 1
	}

	return groups
}

// FillIDs writes each group's effective id into the rows that left it blank.
func FillIDs(t *Table, groups []Group) {
	for _, g := range groups {
		for i := g.Start; i < g.End; i++ {
			if t.rows[i].Get(ID) == "" {
				t.rows[i].Set(ID, g.ID)
			}
		}
	}
}
