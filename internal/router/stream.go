package router

import (
	"errors"
	"io"
	"iter"
	"strings"
	"sync"
)

// ErrStreamConsumed is yielded when Fragments is ranged over a second time.
var ErrStreamConsumed = errors.New("stream already consumed")

// Stream is a lazy, forward-only sequence of text fragments. It may be
// iterated once. The underlying connection is released when iteration ends,
// when the consumer stops early, or on Close.
type Stream struct {
	seq    iter.Seq2[string, error]
	closer io.Closer

	mu       sync.Mutex
	consumed bool
	once     sync.Once
}

// NewStream wraps seq. closer may be nil.
func NewStream(seq iter.Seq2[string, error], closer io.Closer) *Stream {
	return &Stream{seq: seq, closer: closer}
}

// Fragments returns the fragment iterator. A transport failure is yielded as
// a final ("", err) pair.
func (s *Stream) Fragments() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		s.mu.Lock()
		if s.consumed {
			s.mu.Unlock()
			yield("", ErrStreamConsumed)
			return
		}
		s.consumed = true
		s.mu.Unlock()

		defer s.Close()
		for frag, err := range s.seq {
			if !yield(frag, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the underlying connection. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.once.Do(func() {
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}

// Collect drains the stream and joins every fragment.
func (s *Stream) Collect() (string, error) {
	var b strings.Builder
	for frag, err := range s.Fragments() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}
