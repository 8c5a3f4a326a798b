package serialport

import (
	"errors"
	"sync"
)

// ErrSourceClosed is returned by mock sources once Close has been called.
var ErrSourceClosed = errors.New("byte source closed")

// pollStep is one scripted response from a TestSource.
type pollStep struct {
	data   []byte
	status Status
	err    error
}

// TestSource implements ByteSource with a scripted sequence of poll results.
// Each queued step is consumed by exactly one Poll call; once the script is
// exhausted, polls report StatusTimedOut. It provides fine-grained control
// over how the transport slices frames across polls.
type TestSource struct {
	mu     sync.Mutex
	steps  []pollStep
	polls  int
	closed bool
}

// NewTestSource creates an empty TestSource. Queue behaviour with the Queue*
// methods before handing it to the session under test.
func NewTestSource() *TestSource {
	return &TestSource{}
}

// QueueChunk schedules data to be returned, with StatusOK, by a future Poll.
func (t *TestSource) QueueChunk(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, pollStep{data: data, status: StatusOK})
}

// QueueTimeout schedules one empty poll reporting StatusTimedOut.
func (t *TestSource) QueueTimeout() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, pollStep{status: StatusTimedOut})
}

// QueueError schedules a transport fault.
func (t *TestSource) QueueError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, pollStep{status: StatusFailed, err: err})
}

// Poll consumes the next scripted step.
func (t *TestSource) Poll(p []byte) (int, Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.polls++
	if t.closed {
		return 0, StatusFailed, ErrSourceClosed
	}
	if len(t.steps) == 0 {
		return 0, StatusTimedOut, nil
	}

	step := t.steps[0]
	t.steps = t.steps[1:]
	if step.status != StatusOK {
		return 0, step.status, step.err
	}

	n := copy(p, step.data)
	// anything that did not fit is delivered by the next poll
	if n < len(step.data) {
		t.steps = append([]pollStep{{data: step.data[n:], status: StatusOK}}, t.steps...)
	}
	return n, StatusOK, nil
}

// Polls reports how many times Poll was called.
func (t *TestSource) Polls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.polls
}

// Close marks the source closed; later polls fail.
func (t *TestSource) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// ReplaySource implements ByteSource by replaying a fixture byte stream in
// bounded chunks, looping forever. Dev mode uses it to exercise the whole
// pipeline without hardware; the ragged chunk size reproduces the partial
// frames a real port delivers.
type ReplaySource struct {
	mu     sync.Mutex
	data   []byte
	offset int
	chunk  int
	closed bool
}

// NewReplaySource creates a ReplaySource over data, delivering at most
// chunkSize bytes per poll. A non-positive chunkSize defaults to 128, the
// read buffer size of the original monitor.
func NewReplaySource(data []byte, chunkSize int) *ReplaySource {
	if chunkSize <= 0 {
		chunkSize = 128
	}
	return &ReplaySource{data: data, chunk: chunkSize}
}

// Poll returns the next slice of the fixture stream, wrapping at the end.
func (r *ReplaySource) Poll(p []byte) (int, Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, StatusFailed, ErrSourceClosed
	}
	if len(r.data) == 0 {
		return 0, StatusTimedOut, nil
	}

	if r.offset >= len(r.data) {
		r.offset = 0
	}

	limit := r.chunk
	if limit > len(p) {
		limit = len(p)
	}
	end := r.offset + limit
	if end > len(r.data) {
		end = len(r.data)
	}

	n := copy(p, r.data[r.offset:end])
	r.offset += n
	return n, StatusOK, nil
}

// Close marks the source closed.
func (r *ReplaySource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// MockFactory implements Factory for tests and dev mode: Open returns the
// configured source (or error) and records the call.
type MockFactory struct {
	mu sync.Mutex

	// Source is returned by Open when Err is nil.
	Source ByteSource

	// Err, when set, is returned by Open.
	Err error

	// OpenFunc, when set, overrides Source and Err and builds the source per
	// call. Dev mode uses it to hand out a fresh replay on every restart.
	OpenFunc func(path string, opts PortOptions) (ByteSource, error)

	// OpenCalls records every Open invocation.
	OpenCalls []MockOpenCall
}

// MockOpenCall records the arguments of one Open call.
type MockOpenCall struct {
	Path string
	Opts PortOptions
}

// Open returns the configured source or error.
func (f *MockFactory) Open(path string, opts PortOptions) (ByteSource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.OpenCalls = append(f.OpenCalls, MockOpenCall{Path: path, Opts: opts})
	if f.OpenFunc != nil {
		return f.OpenFunc(path, opts)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Source, nil
}

// LastCall returns the most recent Open call, or nil if none happened.
func (f *MockFactory) LastCall() *MockOpenCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.OpenCalls) == 0 {
		return nil
	}
	return &f.OpenCalls[len(f.OpenCalls)-1]
}
