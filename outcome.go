package ordr

import (
	"errors"
	"time"
)

// OutcomeKind is the tag of a terminal Outcome.
type OutcomeKind int

const (
	// Completed means every target identity reached Done or Skipped.
	Completed OutcomeKind = iota
	// Failed means a producer returned a failure, or an internal
	// consistency error occurred, and no later outcome overrides it.
	Failed
	// Cancelled means Stop was called (directly, via CancellationHandle,
	// or via the Worker's own context) before the run otherwise
	// terminated, and no failure was recorded first.
	Cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Outcome is the terminal verdict of a Worker run, plus the store snapshot
// at termination and the wall-clock duration of the run.
type Outcome struct {
	Kind     OutcomeKind
	Node     Identity // set when Kind == Failed
	Reason   string   // set when Kind == Failed
	Duration time.Duration

	snapshot Snapshot
}

// Snapshot returns the store snapshot captured at the moment this Outcome
// was reached. It is always present, regardless of Kind, so callers can
// resume a Failed or Cancelled run with Builder.WithData.
func (o Outcome) Snapshot() Snapshot {
	return o.snapshot
}

// Err returns the offending node's Failure when Kind == Failed, and nil
// otherwise.
func (o Outcome) Err() error {
	if o.Kind != Failed {
		return nil
	}
	return newFailure(o.Node, errors.New(o.Reason))
}
