package videos

// CleanStats describes what Clean removed.
type CleanStats struct {
	Input   int
	Kept    int
	Dropped int
	// MissingByColumn counts missing cells per count column over the input.
	MissingByColumn map[string]int
}

// Clean returns a new table holding only the records whose likes, comments
// and views are all present. Rows with a missing count are dropped without
// imputation. The input table is not modified.
func Clean(t *Table) (*Table, CleanStats) {
	st := CleanStats{Input: t.Len(), MissingByColumn: map[string]int{}}
	if t == nil {
		return &Table{}, st
	}
	out := t.derive(len(t.Records))
	for _, r := range t.Records {
		if !r.Likes.Valid {
			st.MissingByColumn[ColLikes]++
		}
		if !r.Comments.Valid {
			st.MissingByColumn[ColComments]++
		}
		if !r.Views.Valid {
			st.MissingByColumn[ColViews]++
		}
		if !r.Complete() {
			continue
		}
		out.Records = append(out.Records, r)
	}
	st.Kept = len(out.Records)
	st.Dropped = st.Input - st.Kept
	return out, st
}
