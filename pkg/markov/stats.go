package markov

// ModelStats holds aggregated statistics for a trained model.
type ModelStats struct {
	Order        int // The window length
	Windows      int // The number of distinct windows
	Transitions  int // The number of distinct window->character links
	Observations int // The sum of all counts; the number of trained transitions
	Alphabet     int // The number of distinct characters that follow some window
}

// Stats returns a snapshot of statistics for the trained table.
func (m *Model) Stats() (ModelStats, error) {
	if m.table == nil {
		return ModelStats{}, ErrNotTrained
	}

	alphabet := make(map[rune]struct{})
	stats := ModelStats{
		Order:   m.order,
		Windows: m.table.Len(),
	}
	for _, list := range m.table.lists {
		stats.Transitions += len(list.entries)
		stats.Observations += list.total()
		for _, cd := range list.entries {
			alphabet[cd.Char] = struct{}{}
		}
	}
	stats.Alphabet = len(alphabet)

	return stats, nil
}
