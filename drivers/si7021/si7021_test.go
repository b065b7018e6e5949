package si7021

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeBus answers every transaction with a fixed reading
type fakeBus struct {
	addr  uint16
	w     []byte
	reply []byte
	err   error
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	b.addr = addr
	b.w = append([]byte(nil), w...)
	if b.err != nil {
		return b.err
	}
	copy(r, b.reply)
	return nil
}

func (b *fakeBus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, buf)
}

func (b *fakeBus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), append([]byte{reg}, buf...), nil)
}

func near(a, b, tol float32) bool {
	d := a - b
	return d < tol && d > -tol
}

func TestConversion(t *testing.T) {
	tests := []struct {
		raw   uint16
		wantC float32
		wantF float32
	}{
		{0x664C, 23.367, 74.06},
		{0x0000, -46.85, -52.33},
		{0x7A1C, 36.967, 98.54},
	}
	for _, tt := range tests {
		if c := Celsius(tt.raw); !near(c, tt.wantC, 0.01) {
			t.Errorf("Celsius(0x%04X): expected %.3f, got %.3f", tt.raw, tt.wantC, c)
		}
		if f := Fahrenheit(tt.raw); !near(f, tt.wantF, 0.02) {
			t.Errorf("Fahrenheit(0x%04X): expected %.2f, got %.2f", tt.raw, tt.wantF, f)
		}
	}
}

func TestRawFromCelsius(t *testing.T) {
	for _, c := range []float32{-40, 0, 22.5, 30, 85} {
		raw := RawFromCelsius(c)
		if got := Celsius(raw); !near(got, c, 0.005) {
			t.Errorf("Celsius(RawFromCelsius(%v)) = %v", c, got)
		}
	}
	if RawFromCelsius(-100) != 0 || RawFromCelsius(200) != 65535 {
		t.Error("Expected out-of-range temperatures to clamp")
	}
}

func TestReadTemperature(t *testing.T) {
	bus := &fakeBus{reply: []byte{0x66, 0x4C}}
	dev := New(bus)

	milli, err := dev.ReadTemperature()
	if err != nil {
		t.Fatalf("ReadTemperature failed: %v", err)
	}
	if milli < 23360 || milli > 23375 {
		t.Errorf("Expected about 23367 m°C, got %d", milli)
	}
	if bus.addr != Address {
		t.Errorf("Expected address 0x%02X, got 0x%02X", Address, bus.addr)
	}
	if diff := cmp.Diff([]byte{CmdMeasureTempNoHold}, bus.w); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestReadTemperatureErrors(t *testing.T) {
	dev := New(&fakeBus{reply: []byte{0, 0}})
	if _, err := dev.ReadTemperature(); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}

	busErr := errors.New("bus stuck")
	dev = New(&fakeBus{err: busErr})
	if _, err := dev.ReadTemperatureRaw(); !errors.Is(err, busErr) {
		t.Errorf("Expected bus error, got %v", err)
	}
}
