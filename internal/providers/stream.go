package providers

import (
	"errors"
	"io"
	"log/slog"

	"github.com/codeforge-ai/codeforge/internal/router"
)

// ErrStreamDone is returned by a FrameDecoder when the vendor's end-of-stream
// marker arrives.
var ErrStreamDone = errors.New("stream done")

// FrameDecoder turns one SSE frame into a text fragment. An empty fragment
// with a nil error is skipped. A *router.ParseError marks a malformed frame,
// which is logged and skipped. Any other error ends the stream.
type FrameDecoder func(Frame) (string, error)

// ReadStream adapts an SSE response body into a router.Stream.
func ReadStream(providerID string, body io.ReadCloser, decode FrameDecoder, logger *slog.Logger) *router.Stream {
	if logger == nil {
		logger = slog.Default()
	}
	seq := func(yield func(string, error) bool) {
		sc := NewSSEScanner(body)
		for {
			frame, err := sc.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			text, err := decode(frame)
			var pe *router.ParseError
			switch {
			case errors.Is(err, ErrStreamDone):
				return
			case errors.As(err, &pe):
				logger.Debug("skipping malformed stream frame",
					slog.String("provider", providerID),
					slog.String("error", pe.Err.Error()))
				continue
			case err != nil:
				yield("", err)
				return
			}
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
	return router.NewStream(seq, body)
}
