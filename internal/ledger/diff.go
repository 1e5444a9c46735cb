package ledger

// Diff lists entries present in only one of two ledgers.
type Diff struct {
	Added   []Entry `json:"added,omitempty"`
	Removed []Entry `json:"removed,omitempty"`
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffEntries compares stored against expected as multisets, so a pure
// reordering yields an empty diff.
func DiffEntries(stored, expected []Entry) Diff {
	used := make([]bool, len(stored))

	var d Diff

	for _, want := range expected {
		found := false

		for i, have := range stored {
			if !used[i] && have.Equal(want) {
				used[i] = true
				found = true

				break
			}
		}

		if !found {
			d.Added = append(d.Added, want)
		}
	}

	for i, have := range stored {
		if !used[i] {
			d.Removed = append(d.Removed, have)
		}
	}

	return d
}
