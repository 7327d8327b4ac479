package ledger

// Seed injects records into an in-memory store without a transaction. Test
// helper only.
func Seed(s Store, recs ...Record) {
	mem, ok := s.(*memoryStore)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	for _, rec := range recs {
		mem.records[rec.ID] = entry{rec: rec}
	}
}

// CountUnconsumed reports how many live records of a kind an in-memory
// store holds. Test helper only.
func CountUnconsumed(s Store, kind Kind) int {
	mem, ok := s.(*memoryStore)
	if !ok {
		return 0
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	n := 0
	for _, e := range mem.records {
		if !e.consumed && e.rec.Kind == kind {
			n++
		}
	}
	return n
}
