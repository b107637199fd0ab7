package query

import "sort"

// sortValue returns row r's value for key k, consulting its projected
// Values first (cheap) and falling back to rendering directly from the
// document when k was not part of the output projection.
func sortValue(r Row, k string) string {
	if v, ok := r.Values[k]; ok {
		return v
	}
	return render(r.Doc, k)
}

// sortRows performs a stable multi-key sort. Earlier keys take priority;
// sort keys need not appear in the row's projected Values (spec §4.7), so
// ties or absent data fall back to comparing the row's Path.
func sortRows(rows []Row, keys []SortKey) {
	if len(keys) == 0 {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			a, b := sortValue(rows[i], k.Key), sortValue(rows[j], k.Key)
			if a == b {
				continue
			}
			less := naturalLess(a, b)
			if k.Descending {
				return !less
			}
			return less
		}
		return rows[i].Path < rows[j].Path
	})
}
