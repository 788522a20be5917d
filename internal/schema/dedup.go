package schema

// Deduplicate collapses rows sharing an identifier, keeping the last-seen
// occurrence (ingestion order defines "last"). The surviving row keeps the
// position of its last occurrence, so output order stays deterministic and
// follows ingestion order.
func Deduplicate(rows []TabularRow) []TabularRow {
	if len(rows) < 2 {
		return rows
	}

	lastIndex := make(map[int64]int, len(rows))
	for i, row := range rows {
		lastIndex[row.ID] = i
	}

	unique := make([]TabularRow, 0, len(lastIndex))
	for i, row := range rows {
		if lastIndex[row.ID] == i {
			unique = append(unique, row)
		}
	}
	return unique
}
