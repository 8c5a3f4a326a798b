package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultReadTimeout bounds a single poll of a real port. The monitor ticks
// faster than this, but go.bug.st/serial returns as soon as any bytes are
// buffered, so the full budget is only spent on an idle line.
const DefaultReadTimeout = 5 * time.Millisecond

// Factory creates byte sources. Injecting a factory lets the session layer
// open ports on demand while tests and dev mode substitute scripted sources.
type Factory interface {
	Open(path string, opts PortOptions) (ByteSource, error)
}

// SerialFactory opens real serial ports.
type SerialFactory struct {
	// ReadTimeout is the per-poll budget applied to opened ports. Zero
	// selects DefaultReadTimeout.
	ReadTimeout time.Duration
}

// Open opens the serial port at path with the given options and applies the
// factory's read timeout so polls never block past their budget.
func (f *SerialFactory) Open(path string, opts PortOptions) (ByteSource, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	timeout := f.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
	}

	return &Port{port: port, path: path}, nil
}

// ListPorts enumerates the serial ports present on the host for the UI
// layer's port picker.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}
