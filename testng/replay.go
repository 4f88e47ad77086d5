package testng

import (
	"context"
	"fmt"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Listener receives replayed outcomes the way a live test runner would send them
type Listener interface {
	OnTestSuccess(ctx context.Context, outcome types.Outcome)
	OnTestFailure(ctx context.Context, outcome types.Outcome)
	OnTestSkipped(ctx context.Context, outcome types.Outcome)
}

// Summary counts the replayed outcomes
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// String implements the Stringer interface for Summary
func (s Summary) String() string {
	return fmt.Sprintf("%d tests: %d passed, %d failed, %d skipped", s.Total, s.Passed, s.Failed, s.Skipped)
}

// Replay feeds records to l in order. It stops early when ctx is cancelled.
func Replay(ctx context.Context, l Listener, records []Record) (Summary, error) {
	var summary Summary
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		switch rec.Status {
		case types.TestStatusPass:
			l.OnTestSuccess(ctx, rec.Outcome)
			summary.Passed++
		case types.TestStatusFail:
			l.OnTestFailure(ctx, rec.Outcome)
			summary.Failed++
		case types.TestStatusSkip:
			l.OnTestSkipped(ctx, rec.Outcome)
			summary.Skipped++
		default:
			return summary, fmt.Errorf("cannot replay %s.%s with status %q", rec.Outcome.ClassName, rec.Outcome.Name, rec.Status)
		}
		summary.Total++
	}
	return summary, nil
}
