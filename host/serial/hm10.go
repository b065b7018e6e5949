package serial

import (
	"errors"
	"fmt"
	"io"
)

// HM10MaxName is the longest name the HM-10 module stores
const HM10MaxName = 12

// ErrHM10Reply is wrapped when the module answers a command unexpectedly
var ErrHM10Reply = errors.New("unexpected HM-10 reply")

// hm10Step is one AT command and the reply the module sends for it. Replies
// carry no line terminator.
type hm10Step struct {
	command string
	reply   string
}

// HM10Setup drops any BLE connection, programs name into the module and
// resets it so the name takes effect. rw must be the module's UART with
// the node's own firmware off the line.
func HM10Setup(rw io.ReadWriter, name string) error {
	if name == "" || len(name) > HM10MaxName {
		return fmt.Errorf("HM-10 name %q must be 1 to %d bytes", name, HM10MaxName)
	}
	steps := []hm10Step{
		{"AT", "OK"},
		{"AT+NAME" + name, "OK+Set:" + name},
		{"AT+RESET", "OK+RESET"},
	}
	for _, s := range steps {
		if err := s.run(rw); err != nil {
			return err
		}
	}
	return nil
}

func (s hm10Step) run(rw io.ReadWriter) error {
	if _, err := io.WriteString(rw, s.command); err != nil {
		return fmt.Errorf("send %s: %w", s.command, err)
	}
	got := make([]byte, len(s.reply))
	if _, err := io.ReadFull(rw, got); err != nil {
		return fmt.Errorf("%s: read reply: %w", s.command, err)
	}
	if string(got) != s.reply {
		return fmt.Errorf("%w to %s: got %q, want %q", ErrHM10Reply, s.command, got, s.reply)
	}
	return nil
}
