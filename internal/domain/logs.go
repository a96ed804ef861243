package domain

import "sort"

// NormalizeLogs turns a raw reading sequence into forecaster input: duplicate
// timestamps resolve last-write-wins (later position in the input wins), and
// the result is strictly ascending by timestamp. The input is not modified.
func NormalizeLogs(entries []TankLogEntry) []TankLogEntry {
	if len(entries) == 0 {
		return nil
	}

	latest := make(map[int64]TankLogEntry, len(entries))
	for _, e := range entries {
		latest[e.Timestamp.UnixNano()] = e
	}

	out := make([]TankLogEntry, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
