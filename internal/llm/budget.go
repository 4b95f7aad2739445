package llm

// CostTracker counts calls and tokens against a per-brand call budget.
// The budget is calls, not tokens: token totals are reported for
// operators but never enforced.
type CostTracker struct {
	MaxCalls          int
	TotalCalls        int
	TotalInputTokens  int
	TotalOutputTokens int
}

func NewCostTracker(maxCalls int) *CostTracker {
	return &CostTracker{MaxCalls: maxCalls}
}

func (t *CostTracker) BudgetRemaining() int {
	if r := t.MaxCalls - t.TotalCalls; r > 0 {
		return r
	}
	return 0
}

func (t *CostTracker) BudgetExceeded() bool {
	return t.TotalCalls >= t.MaxCalls
}

func (t *CostTracker) CanCall() bool {
	return t.TotalCalls < t.MaxCalls
}

func (t *CostTracker) RecordCall(inputTokens, outputTokens int) {
	t.TotalCalls++
	t.TotalInputTokens += inputTokens
	t.TotalOutputTokens += outputTokens
}

// Summary is the operator-facing snapshot of the counters.
type Summary struct {
	TotalCalls        int  `json:"total_calls"`
	TotalInputTokens  int  `json:"total_input_tokens"`
	TotalOutputTokens int  `json:"total_output_tokens"`
	BudgetRemaining   int  `json:"budget_remaining"`
	BudgetExceeded    bool `json:"budget_exceeded"`
}

func (t *CostTracker) Summary() Summary {
	return Summary{
		TotalCalls:        t.TotalCalls,
		TotalInputTokens:  t.TotalInputTokens,
		TotalOutputTokens: t.TotalOutputTokens,
		BudgetRemaining:   t.BudgetRemaining(),
		BudgetExceeded:    t.BudgetExceeded(),
	}
}
