package monitor

import (
	"fmt"

	"github.com/wycontir/rocketviewer/internal/telemetry"
)

// OutcomeKind classifies the result of one poll cycle.
type OutcomeKind int

const (
	// OutcomeNoData means no bytes arrived, or no frame completed yet. The
	// normal idle result, not an error.
	OutcomeNoData OutcomeKind = iota
	// OutcomeAccepted means a frame decoded successfully and the telemetry
	// state was updated.
	OutcomeAccepted
	// OutcomeMalformed means the newest complete frame failed to decode, or
	// the pending buffer overflowed without a newline. The previous state is
	// retained and the session continues.
	OutcomeMalformed
	// OutcomeTransportError means the byte source itself failed. The session
	// aborts back to idle; the error is surfaced through Status.
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoData:
		return "no_data"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the tagged result of one poll cycle. Record is valid only for
// OutcomeAccepted; Err only for OutcomeMalformed and OutcomeTransportError.
type Outcome struct {
	Kind   OutcomeKind
	Record telemetry.Record
	Err    error
}

func noData() Outcome {
	return Outcome{Kind: OutcomeNoData}
}

func accepted(rec telemetry.Record) Outcome {
	return Outcome{Kind: OutcomeAccepted, Record: rec}
}

func malformed(err error) Outcome {
	return Outcome{Kind: OutcomeMalformed, Err: err}
}

func transportFailure(err error) Outcome {
	return Outcome{Kind: OutcomeTransportError, Err: err}
}
