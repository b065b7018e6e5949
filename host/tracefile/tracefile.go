// Package tracefile stores core trace dumps as CBOR so a run can be
// inspected after the fact.
package tracefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"sensornode/core"
	"sensornode/protocol"
)

// Version is the file format version written by Write
const Version = 1

// Event is one trace record. Keys are small integers to keep dumps compact.
type Event struct {
	Kind  uint8  `cbor:"1,keyasint"`
	Code  uint8  `cbor:"2,keyasint"`
	Clock uint32 `cbor:"3,keyasint"`
	Value uint32 `cbor:"4,keyasint"`
}

// File is a trace dump plus what the run looked like when it was taken
type File struct {
	Version   int      `cbor:"1,keyasint"`
	Reason    string   `cbor:"2,keyasint,omitempty"` // fault text, empty for a clean stop
	Residency []uint64 `cbor:"3,keyasint"`           // microseconds per energy mode
	Events    []Event  `cbor:"4,keyasint"`
	Check     uint16   `cbor:"5,keyasint"` // CRC16 of the encoded events
}

// ErrChecksum is returned when the events do not match the stored checksum
var ErrChecksum = errors.New("trace checksum mismatch")

func eventsCRC(events []Event) (uint16, error) {
	data, err := cbor.Marshal(events)
	if err != nil {
		return 0, err
	}
	return protocol.CRC16(data), nil
}

// New builds a file from trace events and per-mode residency
func New(events []core.TraceEvent, residency []time.Duration, reason string) *File {
	f := &File{Version: Version, Reason: reason}
	for _, d := range residency {
		f.Residency = append(f.Residency, uint64(d/time.Microsecond))
	}
	for _, e := range events {
		f.Events = append(f.Events, Event{Kind: uint8(e.Kind), Code: e.Code, Clock: e.Clock, Value: e.Value})
	}
	return f
}

// TraceEvents converts the records back to core trace events
func (f *File) TraceEvents() []core.TraceEvent {
	out := make([]core.TraceEvent, 0, len(f.Events))
	for _, e := range f.Events {
		out = append(out, core.TraceEvent{Kind: core.TraceKind(e.Kind), Code: e.Code, Clock: e.Clock, Value: e.Value})
	}
	return out
}

// Encode stamps f with its checksum and writes it to w
func Encode(w io.Writer, f *File) error {
	sum, err := eventsCRC(f.Events)
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	f.Check = sum
	data, err := cbor.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	return nil
}

// Decode reads one file from r
func Decode(r io.Reader) (*File, error) {
	var f File
	if err := cbor.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	if f.Version != Version {
		return nil, fmt.Errorf("unsupported trace version %d", f.Version)
	}
	sum, err := eventsCRC(f.Events)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trace: %w", err)
	}
	if sum != f.Check {
		return nil, fmt.Errorf("%w: stored 0x%04X, computed 0x%04X", ErrChecksum, f.Check, sum)
	}
	return &f, nil
}

// WriteFile encodes f to path
func WriteFile(path string, f *File) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadFile decodes the file at path
func ReadFile(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return Decode(in)
}
