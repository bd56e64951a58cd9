// Package testutil holds helpers shared by tests and the scenario harness.
package testutil

import "sync"

// Sequence is a resettable monotonic counter used to number trace events.
//
// The same scenario run against a fresh Sequence produces identical numbers,
// which keeps golden traces stable.
//
// Thread-safety: all methods are safe for concurrent use.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// NewSequence returns a sequence starting at 0. The first Next returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the sequence number.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last number handed out, without incrementing.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset rewinds the sequence to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
