package router

import (
	"errors"
	"iter"
	"testing"
)

type countingCloser struct{ n int }

func (c *countingCloser) Close() error { c.n++; return nil }

func seqOf(frags []string, tail error) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, f := range frags {
			if !yield(f, nil) {
				return
			}
		}
		if tail != nil {
			yield("", tail)
		}
	}
}

func TestStreamCollect(t *testing.T) {
	c := &countingCloser{}
	s := NewStream(seqOf([]string{"a", "b", "c"}, nil), c)
	got, err := s.Collect()
	if err != nil {
		t.Fatal(err)
	}
	if got != "abc" {
		t.Errorf("got %q", got)
	}
	if c.n != 1 {
		t.Errorf("closer called %d times, want 1", c.n)
	}
}

func TestStreamEarlyBreakCloses(t *testing.T) {
	c := &countingCloser{}
	s := NewStream(seqOf([]string{"a", "b", "c"}, nil), c)
	for frag := range s.Fragments() {
		if frag == "a" {
			break
		}
	}
	if c.n != 1 {
		t.Errorf("closer called %d times, want 1", c.n)
	}
	_ = s.Close()
	if c.n != 1 {
		t.Errorf("Close after iteration should be a no-op, got %d calls", c.n)
	}
}

func TestStreamNotRestartable(t *testing.T) {
	s := NewStream(seqOf([]string{"x"}, nil), nil)
	if _, err := s.Collect(); err != nil {
		t.Fatal(err)
	}
	_, err := s.Collect()
	if !errors.Is(err, ErrStreamConsumed) {
		t.Errorf("expected ErrStreamConsumed, got %v", err)
	}
}

func TestStreamTailError(t *testing.T) {
	boom := errors.New("connection reset")
	s := NewStream(seqOf([]string{"partial"}, boom), nil)
	got, err := s.Collect()
	if !errors.Is(err, boom) {
		t.Fatalf("expected tail error, got %v", err)
	}
	if got != "partial" {
		t.Errorf("got %q", got)
	}
}

func TestStreamCloseWithoutIteration(t *testing.T) {
	c := &countingCloser{}
	s := NewStream(seqOf(nil, nil), c)
	_ = s.Close()
	_ = s.Close()
	if c.n != 1 {
		t.Errorf("closer called %d times, want 1", c.n)
	}
}
