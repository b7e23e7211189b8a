package paging

// FetchSize is how many rows a probing backend should request: one more
// than the limit, or 0 (no limit) for an unbounded request.
func FetchSize(info Info) int {
	if !info.Bounded() {
		return 0
	}
	return info.Limit + 1
}

// Probe builds a page from rows fetched with FetchSize, sorted by key and
// starting after the cursor. When the extra row is present it is dropped and
// NextCursor becomes the key of the last returned row.
func Probe[T any](rows []T, info Info, key func(T) string) Result[T] {
	if rows == nil {
		rows = []T{}
	}
	if !info.Bounded() || len(rows) <= info.Limit {
		return Result[T]{Items: rows}
	}
	page := rows[:info.Limit]
	return Result[T]{
		NextCursor: key(page[len(page)-1]),
		Items:      page,
	}
}
