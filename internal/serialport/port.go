// Package serialport abstracts the polled serial transport the telemetry
// monitor reads from. The abstraction keeps the monitoring core free of
// hardware concerns and lets tests script byte arrival, timeouts and faults
// without a real device on the bench.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Status classifies the result of one poll of a byte source.
type Status int

const (
	// StatusOK means the poll completed normally; the byte count may still
	// be zero.
	StatusOK Status = iota
	// StatusTimedOut means no bytes arrived within the poll budget. This is
	// the idle case, not a fault.
	StatusTimedOut
	// StatusFailed means the transport itself failed; the accompanying
	// error describes the fault and the source is no longer usable.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTimedOut:
		return "timed_out"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ByteSource is the duplex transport the monitor polls once per tick. Poll
// must return within the source's configured budget: it fills p with whatever
// bytes are available and reports how the poll ended. The error is non-nil
// exactly when the status is StatusFailed.
type ByteSource interface {
	Poll(p []byte) (int, Status, error)
	Close() error
}

// Port is a ByteSource backed by a real serial port. Reads are bounded by the
// read timeout configured at open time, so a poll never blocks the caller's
// tick for longer than the budget.
type Port struct {
	port serial.Port
	path string
}

// Poll reads whatever bytes the port has buffered. go.bug.st/serial signals
// an expired read timeout as a zero-byte read with a nil error, which maps to
// StatusTimedOut here.
func (p *Port) Poll(buf []byte) (int, Status, error) {
	n, err := p.port.Read(buf)
	if err != nil {
		return 0, StatusFailed, fmt.Errorf("serial read on %s: %w", p.path, err)
	}
	if n == 0 {
		return 0, StatusTimedOut, nil
	}
	return n, StatusOK, nil
}

// Close releases the underlying serial port.
func (p *Port) Close() error {
	return p.port.Close()
}

// Path returns the device path the port was opened with.
func (p *Port) Path() string {
	return p.path
}

// SetReadTimeout adjusts the per-poll budget.
func (p *Port) SetReadTimeout(d time.Duration) error {
	return p.port.SetReadTimeout(d)
}
