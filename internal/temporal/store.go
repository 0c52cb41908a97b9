package temporal

import (
	"github.com/lu-w/stars-logic-mtcq/internal/kb"
)

// Instant is one observation point: a label (usually the tick time) and the
// mappable roots observed at it.
type Instant struct {
	Label string
	Roots []any
}

// Frame is the snapshot built for one instant.
type Frame struct {
	Label    string
	Snapshot *kb.Snapshot
}

// Store is an ordered sequence of frames, one per input instant.
// It is immutable once assembled.
type Store struct {
	frames []Frame
}

// NewStore wraps frames as a store. The slice is not copied.
func NewStore(frames []Frame) *Store {
	return &Store{frames: frames}
}

// Len returns the number of frames.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.frames)
}

// Frame returns the i-th frame.
func (s *Store) Frame(i int) Frame { return s.frames[i] }

// Frames returns a copy of the frame list.
func (s *Store) Frames() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Labels lists the frame labels in order.
func (s *Store) Labels() []string {
	labels := make([]string, len(s.frames))
	for i, f := range s.frames {
		labels[i] = f.Label
	}
	return labels
}

// FactCount sums the facts of all frames.
func (s *Store) FactCount() int {
	n := 0
	for _, f := range s.frames {
		n += f.Snapshot.Len()
	}
	return n
}
