package serial

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"sensornode/protocol"
)

// SendCommand writes body to w as one transceiver frame
func SendCommand(w io.Writer, body string) error {
	frame := protocol.EncodeFrame(body)
	if len(frame) > protocol.MaxFrame {
		return fmt.Errorf("frame %q is %d bytes, limit is %d", frame, len(frame), protocol.MaxFrame)
	}
	if _, err := io.WriteString(w, frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadLines calls fn with every newline-terminated line read from r until
// ctx is done or r fails. Blank lines are skipped. When ctx ends and r is
// also an io.Closer, r is closed so the blocked read returns, and ReadLines
// waits for the reader to finish.
func ReadLines(ctx context.Context, r io.Reader, fn func(line string)) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				c.Close()
				<-done
			}
			return nil
		case line := <-lines:
			if line = strings.TrimRight(line, "\r"); line != "" {
				fn(line)
			}
		case err := <-errc:
			return err
		}
	}
}
