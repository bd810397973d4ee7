package pipeline

import "math/rand/v2"

// Sample deterministically selects exactly n rows using seed, preserving
// input order. Rows are returned unchanged when there are n or fewer.
func Sample[T any](rows []T, n int, seed uint64) []T {
	if n < 0 {
		n = 0
	}
	if len(rows) <= n {
		return rows
	}

	// Selection sampling: each row is kept with probability
	// (still needed) / (still remaining), which yields exactly n rows.
	r := rand.New(rand.NewPCG(seed, seed))
	out := make([]T, 0, n)
	remaining := len(rows)
	for i := range rows {
		if len(out) == n {
			break
		}
		if r.IntN(remaining) < n-len(out) {
			out = append(out, rows[i])
		}
		remaining--
	}
	return out
}
