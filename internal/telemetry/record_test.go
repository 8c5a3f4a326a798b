package telemetry

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeFrame(t *testing.T) {
	rec, err := DecodeFrame([]byte(`{"timestamp":42,"x":0.0,"y":0.0,"z":0.0,"w":1.0}`))
	if err != nil {
		t.Fatalf("DecodeFrame returned error: %v", err)
	}

	want := Record{X: 0, Y: 0, Z: 0, W: 1, Time: 42}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFrame_FieldOrderIrrelevant(t *testing.T) {
	a, err := DecodeFrame([]byte(`{"timestamp":7,"x":0.1,"y":0.2,"z":0.3,"w":0.9}`))
	if err != nil {
		t.Fatalf("DecodeFrame returned error: %v", err)
	}
	b, err := DecodeFrame([]byte(`{"w":0.9,"z":0.3,"y":0.2,"x":0.1,"timestamp":7}`))
	if err != nil {
		t.Fatalf("DecodeFrame returned error: %v", err)
	}
	if a != b {
		t.Errorf("field order changed the record: %+v vs %+v", a, b)
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr string
	}{
		{"missing w", `{"timestamp":1,"x":0.0,"y":0.0,"z":0.0}`, `missing field "w"`},
		{"missing timestamp", `{"x":0.0,"y":0.0,"z":0.0,"w":1.0}`, `missing field "timestamp"`},
		{"missing x", `{"timestamp":1,"y":0.0,"z":0.0,"w":1.0}`, `missing field "x"`},
		{"bad syntax", `{"timestamp":1,"x":`, "malformed telemetry frame"},
		{"wrong type", `{"timestamp":"soon","x":0.0,"y":0.0,"z":0.0,"w":1.0}`, "malformed telemetry frame"},
		{"negative timestamp", `{"timestamp":-5,"x":0.0,"y":0.0,"z":0.0,"w":1.0}`, "malformed telemetry frame"},
		{"empty", ``, "malformed telemetry frame"},
		{"not json", `hello world`, "malformed telemetry frame"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.frame))
			if err == nil {
				t.Fatalf("DecodeFrame(%q) succeeded, want error", tt.frame)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	records := []Record{
		{X: 0, Y: 0, Z: 0, W: 1, Time: 0},
		{X: 0.5, Y: -0.5, Z: 0.5, W: -0.5, Time: 1234567890},
		{X: 0.7071, Y: 0, Z: 0.7071, W: 0, Time: math.MaxUint32},
	}

	for _, want := range records {
		wire, err := want.EncodeWire()
		if err != nil {
			t.Fatalf("EncodeWire(%+v) returned error: %v", want, err)
		}
		got, err := DecodeFrame(wire)
		if err != nil {
			t.Fatalf("DecodeFrame(%s) returned error: %v", wire, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestRecord_Quat(t *testing.T) {
	rec := Record{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9, Time: 1}
	q := rec.Quat()

	if q.Real != float64(rec.W) || q.Imag != float64(rec.X) ||
		q.Jmag != float64(rec.Y) || q.Kmag != float64(rec.Z) {
		t.Errorf("Quat() = %+v, want w→Real x→Imag y→Jmag z→Kmag of %+v", q, rec)
	}
}

func TestRecord_Norm(t *testing.T) {
	identity := Record{W: 1}
	if n := identity.Norm(); math.Abs(n-1) > 1e-9 {
		t.Errorf("identity norm = %v, want 1", n)
	}

	skewed := Record{X: 3, Y: 4, Time: 9}
	if n := skewed.Norm(); math.Abs(n-5) > 1e-6 {
		t.Errorf("norm = %v, want 5", n)
	}
}
