// Package monitor owns the telemetry monitoring session: the poll loop that
// drains the byte source once per tick, reassembles and decodes frames, and
// maintains the latest-orientation snapshot consumed by the UI layer.
//
// The session is a two-state machine. It is Idle until Start opens a byte
// source and launches the poll loop; it monitors until Stop is called or the
// transport fails. Malformed frames never leave the Monitoring state — they
// are counted, logged and dropped, and the previous snapshot stands.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wycontir/rocketviewer/internal/monitoring"
	"github.com/wycontir/rocketviewer/internal/serialport"
	"github.com/wycontir/rocketviewer/internal/telemetry"
	"github.com/wycontir/rocketviewer/internal/timeutil"
)

// Phase is the session state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMonitoring
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMonitoring:
		return "monitoring"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrAlreadyMonitoring is returned by Start while a session is running.
var ErrAlreadyMonitoring = errors.New("session already monitoring")

// Config tunes the poll loop.
type Config struct {
	// PollInterval is the tick period of the poll loop. Defaults to 16ms,
	// one display frame at 60Hz like the original viewer.
	PollInterval time.Duration

	// ChunkSize is the per-poll read buffer size. Defaults to 128 bytes.
	ChunkSize int

	// MaxFrameBytes caps the retained partial frame; see
	// telemetry.FrameBuffer.
	MaxFrameBytes int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 16 * time.Millisecond
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 128
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = telemetry.DefaultMaxFrameBytes
	}
	return c
}

// Session drives telemetry monitoring. It owns the frame buffer and the
// current state exclusively; the poll loop is the single writer, and readers
// take copies through Snapshot and Status.
type Session struct {
	factory  serialport.Factory
	recorder Recorder
	clock    timeutil.Clock
	cfg      Config

	// state holds the latest accepted snapshot, swapped atomically so the
	// HTTP layer can read it from other goroutines without locking.
	state atomic.Pointer[State]

	mu       sync.Mutex // guards everything below
	phase    Phase
	src      serialport.ByteSource
	buf      *telemetry.FrameBuffer
	scratch  []byte
	portPath string
	portOpts serialport.PortOptions
	cancel   context.CancelFunc
	done     chan struct{}
	lastErr  error

	accepted  uint64
	malformed uint64
	dropped   uint64
	frames    uint64

	subMu       sync.Mutex
	subscribers map[string]chan string
}

// Status is a point-in-time description of the session for the API layer.
type Status struct {
	Phase        string                 `json:"phase"`
	PortPath     string                 `json:"port_path,omitempty"`
	Options      serialport.PortOptions `json:"options"`
	Accepted     uint64                 `json:"accepted"`
	Malformed    uint64                 `json:"malformed"`
	Dropped      uint64                 `json:"dropped"`
	Frames       uint64                 `json:"frames"`
	PendingBytes int                    `json:"pending_bytes"`
	LastError    string                 `json:"last_error,omitempty"`
}

// NewSession creates an idle session. The factory opens byte sources on
// Start; recorder receives accepted samples and raw frames; clock drives the
// poll loop.
func NewSession(factory serialport.Factory, recorder Recorder, clock timeutil.Clock, cfg Config) *Session {
	if recorder == nil {
		recorder = DiscardRecorder{}
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	s := &Session{
		factory:     factory,
		recorder:    recorder,
		clock:       clock,
		cfg:         cfg.withDefaults(),
		subscribers: make(map[string]chan string),
	}
	initial := IdentityState()
	s.state.Store(&initial)
	return s
}

// Start opens the byte source at path and launches the poll loop. The ctx
// bounds the whole monitoring run; cancelling it is equivalent to Stop.
func (s *Session) Start(ctx context.Context, path string, opts serialport.PortOptions) error {
	opts, err := opts.Normalize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseMonitoring {
		return ErrAlreadyMonitoring
	}

	src, err := s.factory.Open(path, opts)
	if err != nil {
		return fmt.Errorf("failed to start monitoring on %s: %w", path, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.phase = PhaseMonitoring
	s.src = src
	s.buf = telemetry.NewFrameBuffer(s.cfg.MaxFrameBytes)
	s.scratch = make([]byte, s.cfg.ChunkSize)
	s.portPath = path
	s.portOpts = opts
	s.cancel = cancel
	s.done = make(chan struct{})
	s.lastErr = nil
	s.accepted, s.malformed, s.dropped, s.frames = 0, 0, 0, 0

	initial := IdentityState()
	s.state.Store(&initial)

	go s.run(runCtx, s.done)

	monitoring.Logf("monitoring started on %s at %d baud", path, opts.BaudRate)
	return nil
}

// Stop ends the monitoring run, if any, and waits for the poll loop to
// settle back to idle. Safe to call when already idle.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.teardown(nil)
			return
		case <-ticker.C():
			out := s.PollCycle()
			switch out.Kind {
			case OutcomeMalformed:
				monitoring.Logf("dropped malformed frame: %v", out.Err)
			case OutcomeTransportError:
				monitoring.Logf("transport failed, aborting session: %v", out.Err)
				s.teardown(out.Err)
				return
			}
		}
	}
}

// teardown closes the source and returns the session to idle. err records
// why the run ended; nil means a clean stop.
func (s *Session) teardown(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src != nil {
		if cerr := s.src.Close(); cerr != nil {
			monitoring.Logf("error closing byte source: %v", cerr)
		}
		s.src = nil
	}
	s.phase = PhaseIdle
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if err != nil {
		s.lastErr = err
	}
	monitoring.Logf("monitoring stopped on %s", s.portPath)
}

// PollCycle runs one ingest → decode → update cycle and reports how it went.
// When several frames complete in one poll only the newest is decoded and
// applied; the session keeps a most-recent-orientation cache, not a log, so
// dropping the older frames under load is deliberate. A decode failure
// leaves the previous state untouched.
func (s *Session) PollCycle() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseMonitoring || s.src == nil {
		return noData()
	}

	n, status, err := s.src.Poll(s.scratch)
	switch status {
	case serialport.StatusFailed:
		s.lastErr = err
		return transportFailure(err)
	case serialport.StatusTimedOut:
		// an idle line is not an error
		return noData()
	}

	frames, ferr := s.buf.Ingest(s.scratch[:n])
	if ferr != nil {
		s.malformed++
	}

	for _, f := range frames {
		s.frames++
		line := string(f)
		s.publish(line)
		if rerr := s.recorder.RecordRawFrame(line); rerr != nil {
			monitoring.Logf("failed to record raw frame: %v", rerr)
		}
	}

	if len(frames) == 0 {
		if ferr != nil {
			return malformed(ferr)
		}
		return noData()
	}

	s.dropped += uint64(len(frames) - 1)

	rec, derr := telemetry.DecodeFrame(frames[len(frames)-1])
	if derr != nil {
		s.malformed++
		return malformed(derr)
	}

	if norm := rec.Norm(); math.Abs(norm-1) > 0.05 {
		monitoring.Logf("quaternion norm %.3f deviates from unit at device time %d", norm, rec.Time)
	}

	s.accepted++
	next := &State{Quat: rec.Quat(), Time: rec.Time}
	s.state.Store(next)
	if rerr := s.recorder.RecordSample(rec); rerr != nil {
		monitoring.Logf("failed to record sample: %v", rerr)
	}

	return accepted(rec)
}

// Snapshot returns a copy of the latest accepted state. Callers on any
// goroutine get either the previous record or the new one, never a partial
// update.
func (s *Session) Snapshot() State {
	return *s.state.Load()
}

// Status reports the session phase, port, counters and last error.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Phase:     s.phase.String(),
		PortPath:  s.portPath,
		Options:   s.portOpts,
		Accepted:  s.accepted,
		Malformed: s.malformed,
		Dropped:   s.dropped,
		Frames:    s.frames,
	}
	if s.buf != nil {
		st.PendingBytes = s.buf.PendingBytes()
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Phase returns the current state machine position.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Subscribe registers a channel receiving every complete frame as it comes
// off the wire. Feeds the live tail in the UI layer. Slow subscribers miss
// frames rather than stall the poll loop.
func (s *Session) Subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, 16)
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Session) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

func (s *Session) publish(line string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- line:
		default:
			// never let a stuck subscriber block the poll loop
		}
	}
}
