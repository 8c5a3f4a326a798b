// Package telemetry implements the wire decoder for orientation telemetry
// streamed by the flight controller: newline-delimited JSON records carrying a
// unit quaternion and a device timestamp. The package is pure buffer and
// parse logic; it performs no I/O.
package telemetry

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
)

// Record is one decoded telemetry sample: the orientation quaternion
// components reported by the device and its millisecond uptime counter.
type Record struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Z    float32 `json:"z"`
	W    float32 `json:"w"`
	Time uint32  `json:"timestamp"`
}

// wireRecord mirrors Record with pointer fields so a decode can distinguish an
// absent field from a zero value. The device always sends all five fields.
type wireRecord struct {
	X         *float32 `json:"x"`
	Y         *float32 `json:"y"`
	Z         *float32 `json:"z"`
	W         *float32 `json:"w"`
	Timestamp *uint32  `json:"timestamp"`
}

// DecodeFrame parses a single frame (one line, newline already stripped) into
// a Record. Field order on the wire is not significant, but all five fields
// must be present. A failed decode returns an error describing the first
// problem found; it never panics, so one corrupt line cannot take down a
// monitoring session.
func DecodeFrame(frame []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(frame, &w); err != nil {
		return Record{}, fmt.Errorf("malformed telemetry frame: %w", err)
	}

	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"x", w.X != nil},
		{"y", w.Y != nil},
		{"z", w.Z != nil},
		{"w", w.W != nil},
		{"timestamp", w.Timestamp != nil},
	} {
		if !f.ok {
			return Record{}, fmt.Errorf("malformed telemetry frame: missing field %q", f.name)
		}
	}

	return Record{
		X:    *w.X,
		Y:    *w.Y,
		Z:    *w.Z,
		W:    *w.W,
		Time: *w.Timestamp,
	}, nil
}

// EncodeWire renders the record in the device's wire format without the
// trailing newline. Used by the fixture generator and tests; the monitor
// itself never writes telemetry.
func (r Record) EncodeWire() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode telemetry record: %w", err)
	}
	return b, nil
}

// Quat returns the record's orientation as a quaternion. The device is
// expected to send unit quaternions; no normalisation is applied here.
func (r Record) Quat() quat.Number {
	return quat.Number{
		Real: float64(r.W),
		Imag: float64(r.X),
		Jmag: float64(r.Y),
		Kmag: float64(r.Z),
	}
}

// Norm returns the magnitude of the record's quaternion. Useful as a
// diagnostic for a miscalibrated sensor; a healthy stream stays close to 1.
func (r Record) Norm() float64 {
	return quat.Abs(r.Quat())
}
