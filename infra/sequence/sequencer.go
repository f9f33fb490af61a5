package sequence

import "sync/atomic"

// Sequencer hands out strictly monotonic sequence numbers. The
// journal stamps every record with one; replay resets the sequencer
// to the last sequence it saw.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer that will issue start+1 first. Fresh
// systems pass 0.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset moves the sequencer to v. Only replay calls this, before the
// write path starts.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
