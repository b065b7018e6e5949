package protocol

import "strings"

// Transceiver command framing: a command travels as StartMarker + body +
// EndMarker, e.g. "#TEMP C!". The receiver ignores everything outside a frame.
const (
	StartMarker = '#'
	EndMarker   = '!'

	// MaxFrame is the receive buffer of the device, markers included
	MaxFrame = 64
)

// EncodeFrame wraps a command body in frame markers
func EncodeFrame(body string) string {
	return string(StartMarker) + body + string(EndMarker)
}

// DecodeFrame strips the markers from a received frame. ok is false when
// text is not a complete frame.
func DecodeFrame(text string) (body string, ok bool) {
	if len(text) < 2 || text[0] != StartMarker || text[len(text)-1] != EndMarker {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// FrameScanner extracts frames from a raw byte stream the way the receive
// engine does: bytes before a start marker are dropped, a second start
// marker restarts the frame, and the end marker completes it.
type FrameScanner struct {
	buf      []byte
	inFrame  bool
	maxFrame int
}

// NewFrameScanner creates a scanner that drops frames longer than maxFrame
func NewFrameScanner(maxFrame int) *FrameScanner {
	if maxFrame < 2 {
		maxFrame = 2
	}
	return &FrameScanner{maxFrame: maxFrame}
}

// Feed consumes data and returns the frames completed by it, markers included
func (s *FrameScanner) Feed(data []byte) []string {
	var frames []string
	for _, b := range data {
		switch {
		case b == StartMarker:
			s.buf = append(s.buf[:0], b)
			s.inFrame = true
		case !s.inFrame:
			// Outside a frame; discard.
		case b == EndMarker:
			s.buf = append(s.buf, b)
			frames = append(frames, string(s.buf))
			s.buf = s.buf[:0]
			s.inFrame = false
		case len(s.buf) >= s.maxFrame-1:
			// Too long to ever complete; resynchronise on the next marker.
			s.buf = s.buf[:0]
			s.inFrame = false
		default:
			s.buf = append(s.buf, b)
		}
	}
	return frames
}

// SplitLines splits transmitted report text into trimmed non-empty lines
func SplitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimRight(l, "\r"); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
