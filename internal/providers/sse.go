package providers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxSSELineSize bounds a single SSE line. bufio's 64 KiB default is too
// small for long completions delivered in one frame.
const maxSSELineSize = 1 << 20

// doneSentinel terminates OpenAI-compatible streams.
const doneSentinel = "[DONE]"

// Frame is one server-sent event.
type Frame struct {
	Event string
	Data  string
}

// SSEScanner reads server-sent events. Comment lines are skipped and
// consecutive data lines are joined with newlines.
type SSEScanner struct {
	scanner *bufio.Scanner
}

func NewSSEScanner(r io.Reader) *SSEScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &SSEScanner{scanner: s}
}

// Next returns the next frame. It returns io.EOF at end of input or when the
// [DONE] sentinel arrives.
func (s *SSEScanner) Next() (Frame, error) {
	var (
		event string
		data  []string
	)
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if len(data) > 0 {
				return Frame{Event: event, Data: strings.Join(data, "\n")}, nil
			}
			event = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			if strings.TrimSpace(value) == doneSentinel {
				return Frame{}, io.EOF
			}
			data = append(data, value)
		}
	}
	if err := s.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("sse read: %w", err)
	}
	if len(data) > 0 {
		return Frame{Event: event, Data: strings.Join(data, "\n")}, nil
	}
	return Frame{}, io.EOF
}
