package monitor

import "github.com/wycontir/rocketviewer/internal/telemetry"

// Recorder receives everything the session accepts so it can be reviewed
// later. The sqlite store implements it; tests and dev runs without a
// database use DiscardRecorder.
type Recorder interface {
	// RecordSample stores one accepted telemetry record.
	RecordSample(rec telemetry.Record) error

	// RecordRawFrame stores one complete frame exactly as it came off the
	// wire, decodable or not.
	RecordRawFrame(line string) error
}

// DiscardRecorder is a Recorder that drops everything.
type DiscardRecorder struct{}

func (DiscardRecorder) RecordSample(telemetry.Record) error { return nil }
func (DiscardRecorder) RecordRawFrame(string) error         { return nil }
