package serialport

import (
	"bytes"
	"errors"
	"testing"
)

func TestTestSource_ScriptedPolls(t *testing.T) {
	src := NewTestSource()
	src.QueueChunk([]byte("abc"))
	src.QueueTimeout()
	src.QueueError(errors.New("device unplugged"))

	buf := make([]byte, 16)

	n, status, err := src.Poll(buf)
	if status != StatusOK || err != nil || string(buf[:n]) != "abc" {
		t.Fatalf("first poll = (%d, %v, %v), want (3, ok, nil)", n, status, err)
	}

	n, status, err = src.Poll(buf)
	if status != StatusTimedOut || err != nil || n != 0 {
		t.Fatalf("second poll = (%d, %v, %v), want (0, timed_out, nil)", n, status, err)
	}

	n, status, err = src.Poll(buf)
	if status != StatusFailed || err == nil || n != 0 {
		t.Fatalf("third poll = (%d, %v, %v), want (0, failed, err)", n, status, err)
	}

	// exhausted script reads as an idle line
	_, status, _ = src.Poll(buf)
	if status != StatusTimedOut {
		t.Errorf("post-script poll status = %v, want timed_out", status)
	}

	if src.Polls() != 4 {
		t.Errorf("Polls() = %d, want 4", src.Polls())
	}
}

func TestTestSource_ChunkLargerThanBuffer(t *testing.T) {
	src := NewTestSource()
	src.QueueChunk([]byte("0123456789"))

	buf := make([]byte, 4)
	var got []byte
	for i := 0; i < 3; i++ {
		n, status, err := src.Poll(buf)
		if status != StatusOK || err != nil {
			t.Fatalf("poll %d = (%v, %v), want ok", i, status, err)
		}
		got = append(got, buf[:n]...)
	}

	if string(got) != "0123456789" {
		t.Errorf("reassembled %q, want 0123456789", got)
	}
}

func TestTestSource_ClosedPollsFail(t *testing.T) {
	src := NewTestSource()
	src.Close()

	_, status, err := src.Poll(make([]byte, 4))
	if status != StatusFailed || !errors.Is(err, ErrSourceClosed) {
		t.Errorf("poll after close = (%v, %v), want failed/ErrSourceClosed", status, err)
	}
}

func TestReplaySource_LoopsOverFixture(t *testing.T) {
	data := []byte("line one\nline two\n")
	src := NewReplaySource(data, 5)

	buf := make([]byte, 64)
	var got bytes.Buffer
	for got.Len() < 2*len(data) {
		n, status, err := src.Poll(buf)
		if status != StatusOK || err != nil {
			t.Fatalf("poll = (%v, %v), want ok", status, err)
		}
		if n == 0 || n > 5 {
			t.Fatalf("poll returned %d bytes, want 1..5", n)
		}
		got.Write(buf[:n])
	}

	want := append(append([]byte{}, data...), data...)
	if !bytes.Equal(got.Bytes()[:2*len(data)], want) {
		t.Errorf("replayed %q, want %q", got.Bytes()[:2*len(data)], want)
	}
}

func TestMockFactory_RecordsCalls(t *testing.T) {
	src := NewTestSource()
	f := &MockFactory{Source: src}

	opened, err := f.Open("/dev/ttyUSB0", PortOptions{BaudRate: 115200})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if opened != src {
		t.Error("Open did not return the configured source")
	}

	call := f.LastCall()
	if call == nil {
		t.Fatal("LastCall returned nil")
	}
	if call.Path != "/dev/ttyUSB0" || call.Opts.BaudRate != 115200 {
		t.Errorf("recorded call = %+v", call)
	}

	f.Err = errors.New("no such port")
	if _, err := f.Open("/dev/ttyUSB1", PortOptions{}); err == nil {
		t.Error("Open succeeded, want configured error")
	}
}
