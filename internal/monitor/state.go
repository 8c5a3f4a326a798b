package monitor

import "gonum.org/v1/gonum/num/quat"

// State is the renderer-facing snapshot of the most recently accepted
// telemetry record: the device orientation and the device timestamp that
// produced it. Snapshots are immutable copies, so a reader on another
// goroutine always sees a fully formed record, never a torn one.
type State struct {
	Quat quat.Number
	Time uint32
}

// IdentityState is the state a session starts with before the first frame is
// accepted: identity orientation at device time zero.
func IdentityState() State {
	return State{Quat: quat.Number{Real: 1}}
}
