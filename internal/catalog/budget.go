package catalog

// BudgetMap caps outbound lookups per source for one run. A consumption is
// charged for every outbound attempt, successful or not, so the cap bounds
// the calls actually placed rather than the answers obtained.
type BudgetMap struct {
	remaining map[SourceName]int
}

// NewBudgetMap creates per-source budgets. Sources not present in limits
// are unlimited.
func NewBudgetMap(limits map[SourceName]int) *BudgetMap {
	remaining := make(map[SourceName]int, len(limits))
	for name, n := range limits {
		remaining[name] = n
	}
	return &BudgetMap{remaining: remaining}
}

// TryConsume charges one lookup against the source's budget. It returns
// false, without charging, once the budget is exhausted.
func (b *BudgetMap) TryConsume(name SourceName) bool {
	n, capped := b.remaining[name]
	if !capped {
		return true
	}
	if n <= 0 {
		return false
	}
	b.remaining[name] = n - 1
	return true
}

// Remaining returns the unused budget for a source, or -1 when unlimited.
func (b *BudgetMap) Remaining(name SourceName) int {
	n, capped := b.remaining[name]
	if !capped {
		return -1
	}
	return n
}
