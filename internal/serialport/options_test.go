package serialport

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptions_NormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if opts.BaudRate != DefaultBaudRate {
		t.Errorf("BaudRate = %d, want %d", opts.BaudRate, DefaultBaudRate)
	}
	if opts.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", opts.DataBits)
	}
	if opts.StopBits != 1 {
		t.Errorf("StopBits = %d, want 1", opts.StopBits)
	}
	if opts.Parity != "N" {
		t.Errorf("Parity = %q, want N", opts.Parity)
	}
}

func TestPortOptions_NormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"unsupported baud", PortOptions{BaudRate: 12345}},
		{"negative baud", PortOptions{BaudRate: -9600}},
		{"bad data bits", PortOptions{DataBits: 9}},
		{"bad stop bits", PortOptions{StopBits: 3}},
		{"bad parity", PortOptions{Parity: "X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Normalize(); err == nil {
				t.Errorf("Normalize(%+v) succeeded, want error", tt.opts)
			}
		})
	}
}

func TestPortOptions_ParityAliases(t *testing.T) {
	for _, alias := range []string{"n", "none", "NONE", " N "} {
		opts, err := PortOptions{Parity: alias}.Normalize()
		if err != nil {
			t.Fatalf("Normalize(parity=%q) returned error: %v", alias, err)
		}
		if opts.Parity != "N" {
			t.Errorf("Normalize(parity=%q).Parity = %q, want N", alias, opts.Parity)
		}
	}
}

func TestPortOptions_Equal(t *testing.T) {
	a := PortOptions{BaudRate: 9600}
	b := PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "none"}
	if !a.Equal(b) {
		t.Errorf("expected %+v to equal %+v after normalization", a, b)
	}

	c := PortOptions{BaudRate: 115200}
	if a.Equal(c) {
		t.Errorf("expected %+v to differ from %+v", a, c)
	}
}

func TestPortOptions_Mode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, Parity: "even"}.Mode()
	if err != nil {
		t.Fatalf("Mode returned error: %v", err)
	}
	if mode.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("Parity = %v, want EvenParity", mode.Parity)
	}
	if mode.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", mode.DataBits)
	}
	if mode.StopBits != serial.OneStopBit {
		t.Errorf("StopBits = %v, want OneStopBit", mode.StopBits)
	}
}

func TestIsSupportedBaudRate(t *testing.T) {
	for _, baud := range SupportedBaudRates {
		if !IsSupportedBaudRate(baud) {
			t.Errorf("IsSupportedBaudRate(%d) = false, want true", baud)
		}
	}
	for _, baud := range []int{0, -1, 110, 250000} {
		if IsSupportedBaudRate(baud) {
			t.Errorf("IsSupportedBaudRate(%d) = true, want false", baud)
		}
	}
}

func TestDefaultBaudRateIsSupported(t *testing.T) {
	if !IsSupportedBaudRate(DefaultBaudRate) {
		t.Errorf("default baud %d missing from SupportedBaudRates", DefaultBaudRate)
	}
}
