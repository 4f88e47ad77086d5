package reporter

import (
	"context"
	"time"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// TimestampFormat is the layout of run timestamps, e.g. "20210704_1540"
const TimestampFormat = "20060102_1504"

// Timestamp formats t as a run timestamp
func Timestamp(t time.Time) string {
	return t.Format(TimestampFormat)
}

// Listener adapts test runner lifecycle callbacks to a Recorder. It owns the
// run timestamp used for screenshot names.
type Listener struct {
	recorder  *Recorder
	timestamp string
}

// NewListener creates a listener feeding recorder
func NewListener(recorder *Recorder, timestamp string) *Listener {
	return &Listener{recorder: recorder, timestamp: timestamp}
}

// Timestamp returns the run timestamp
func (l *Listener) Timestamp() string {
	return l.timestamp
}

// OnTestSuccess records a passed test
func (l *Listener) OnTestSuccess(ctx context.Context, outcome types.Outcome) {
	l.recorder.RecordSuccess(ctx, outcome)
}

// OnTestFailure records a failed test with a screenshot when a driver is available
func (l *Listener) OnTestFailure(ctx context.Context, outcome types.Outcome) {
	l.recorder.RecordFailure(ctx, outcome, l.timestamp)
}

// OnTestSkipped records a skipped test
func (l *Listener) OnTestSkipped(ctx context.Context, outcome types.Outcome) {
	l.recorder.RecordSkipped(ctx, outcome)
}

// OnFinish writes the report once the run is over
func (l *Listener) OnFinish(ctx context.Context) error {
	return l.recorder.Finalize(ctx)
}
