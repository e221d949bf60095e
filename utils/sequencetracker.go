package utils

import (
	"sync"
)

// MissingSequenceTracker counts gaps in sequence numbers, such as the
// datagram sequence of an sFlow agent or the sample sequence of one of its
// sources.
type MissingSequenceTracker struct {
	counters   map[string]int64
	countersMu *sync.Mutex

	maxNegativeSequenceDifference int
}

func NewMissingSequenceTracker(maxNegativeSequenceDifference int) *MissingSequenceTracker {
	return &MissingSequenceTracker{
		counters:                      make(map[string]int64),
		countersMu:                    &sync.Mutex{},
		maxNegativeSequenceDifference: maxNegativeSequenceDifference,
	}
}

// CountMissing records a message covering count sequence steps and returns
// how many were missed since the first message of the key. The value goes
// down again when late messages arrive. A large backwards jump is treated as
// a restart of the sender: the key starts over at seqnum and reset is true.
func (s *MissingSequenceTracker) CountMissing(key string, seqnum uint32, count uint32) (missing int64, reset bool) {
	s.countersMu.Lock()
	defer s.countersMu.Unlock()

	if _, ok := s.counters[key]; !ok {
		s.counters[key] = int64(seqnum)
	} else {
		s.counters[key] += int64(count)
	}
	missing = int64(seqnum) - s.counters[key]

	if missing <= -int64(s.maxNegativeSequenceDifference) {
		s.counters[key] = int64(seqnum)
		return 0, true
	}
	return missing, false
}

// Forget drops the state of a key.
func (s *MissingSequenceTracker) Forget(key string) {
	s.countersMu.Lock()
	delete(s.counters, key)
	s.countersMu.Unlock()
}
