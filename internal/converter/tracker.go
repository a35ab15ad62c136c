package converter

import "github.com/ginjaninja78/ledger-import/internal/types"

// Outcome is the end-to-end result for one row.
type Outcome int

const (
	Succeeded Outcome = iota
	FailedTransform
	FailedSubmission
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case FailedTransform:
		return "failed_transform"
	case FailedSubmission:
		return "failed_submission"
	default:
		return "unknown"
	}
}

// ReconciliationResult partitions the input rows. Every input row is in
// exactly one of the two slices, in input order.
type ReconciliationResult struct {
	Successful []types.RawRow
	Failed     []types.RawRow

	// Counts holds the number of rows per outcome.
	Counts map[Outcome]int
}

// Total is the number of rows recorded.
func (r ReconciliationResult) Total() int {
	return len(r.Successful) + len(r.Failed)
}

// Tracker buckets rows by outcome. It is append-only and not safe for
// concurrent use.
type Tracker struct {
	successful []types.RawRow
	failed     []types.RawRow
	counts     map[Outcome]int
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{counts: make(map[Outcome]int)}
}

// Record files row under successful when outcome is Succeeded and under
// failed otherwise. Each row must be recorded exactly once.
func (t *Tracker) Record(row types.RawRow, outcome Outcome) {
	if outcome == Succeeded {
		t.successful = append(t.successful, row)
	} else {
		t.failed = append(t.failed, row)
	}
	t.counts[outcome]++
}

// Result returns the partition recorded so far.
func (t *Tracker) Result() ReconciliationResult {
	counts := make(map[Outcome]int, len(t.counts))
	for k, v := range t.counts {
		counts[k] = v
	}
	return ReconciliationResult{
		Successful: append([]types.RawRow(nil), t.successful...),
		Failed:     append([]types.RawRow(nil), t.failed...),
		Counts:     counts,
	}
}
