package telemetry

import (
	"bytes"
	"errors"
)

// DefaultMaxFrameBytes bounds how much unterminated input the buffer will
// hold before declaring the stream stuck. Telemetry lines are well under a
// hundred bytes, so the cap only trips on a noisy or misconfigured port.
const DefaultMaxFrameBytes = 1024

// ErrFrameTooLong is reported when the pending buffer exceeds the configured
// cap without a newline ever arriving. The pending bytes are discarded so the
// buffer cannot grow without bound on a stuck transport.
var ErrFrameTooLong = errors.New("frame too long")

// A FrameBuffer reassembles newline-delimited frames from the raw chunks a
// polled transport hands back. Chunks arrive cut at arbitrary positions, so a
// frame may span several polls and one poll may complete several frames. The
// buffer holds at most one partial frame between calls; complete frames are
// handed out exactly once.
type FrameBuffer struct {
	pending []byte
	max     int
}

// NewFrameBuffer returns a FrameBuffer that tolerates unterminated input up
// to maxFrameBytes. A non-positive cap selects DefaultMaxFrameBytes.
func NewFrameBuffer(maxFrameBytes int) *FrameBuffer {
	if maxFrameBytes <= 0 {
		maxFrameBytes = DefaultMaxFrameBytes
	}
	return &FrameBuffer{max: maxFrameBytes}
}

// Ingest appends one chunk of raw input and returns every frame it completes,
// in arrival order, with the newline (and any preceding carriage return)
// stripped. Bytes after the last newline stay buffered for the next call, so
// a frame split across poll boundaries is never lost.
//
// If the retained partial frame would exceed the cap, the pending bytes are
// dropped and ErrFrameTooLong is returned alongside any frames that did
// complete. The error fires once per overflow; the buffer starts empty again
// afterwards.
func (b *FrameBuffer) Ingest(chunk []byte) ([][]byte, error) {
	b.pending = append(b.pending, chunk...)

	var frames [][]byte
	for {
		i := bytes.IndexByte(b.pending, '\n')
		if i < 0 {
			break
		}
		line := b.pending[:i]
		// serial devices commonly terminate with \r\n
		line = bytes.TrimSuffix(line, []byte{'\r'})
		frame := make([]byte, len(line))
		copy(frame, line)
		frames = append(frames, frame)
		b.pending = b.pending[i+1:]
	}

	// Reclaim the backing array once everything buffered was consumed, so a
	// long session does not pin an ever-growing slice.
	if len(b.pending) == 0 {
		b.pending = nil
		return frames, nil
	}

	if len(b.pending) > b.max {
		b.pending = nil
		return frames, ErrFrameTooLong
	}

	return frames, nil
}

// PendingBytes reports how much unterminated input is currently buffered.
func (b *FrameBuffer) PendingBytes() int {
	return len(b.pending)
}

// Reset discards any buffered partial frame. Called when a session restarts
// so stale bytes from a previous port cannot prefix the first new frame.
func (b *FrameBuffer) Reset() {
	b.pending = nil
}
