package consensus

import (
	"sort"
	"sync"
)

type storeKey struct {
	round uint64
	phase Phase
}

// MessageStore keeps at most one packet for each round, phase and origin; the
// first one wins. Nothing is ever pruned.
type MessageStore struct {
	sync.Mutex

	cond    *sync.Cond
	closed  bool
	packets map[storeKey][]Packet
	origins map[storeKey]map[uint64]struct{}
}

func NewMessageStore() *MessageStore {
	s := &MessageStore{
		packets: map[storeKey][]Packet{},
		origins: map[storeKey]map[uint64]struct{}{},
	}
	s.cond = sync.NewCond(&s.Mutex)

	return s
}

// Record reports whether the packet was kept. A packet from an origin already
// recorded for the same round and phase is ignored.
func (s *MessageStore) Record(p Packet) bool {
	s.Lock()
	defer s.Unlock()

	key := storeKey{round: p.Round, phase: p.Phase}
	origins, found := s.origins[key]
	if !found {
		origins = map[uint64]struct{}{}
		s.origins[key] = origins
	}
	if _, found := origins[p.Origin]; found {
		return false
	}

	origins[p.Origin] = struct{}{}
	s.packets[key] = append(s.packets[key], p)
	s.cond.Broadcast()

	return true
}

func (s *MessageStore) Count(round uint64, phase Phase) int {
	s.Lock()
	defer s.Unlock()

	return len(s.packets[storeKey{round: round, phase: phase}])
}

// Read returns a copy of the recorded packets in arrival order.
func (s *MessageStore) Read(round uint64, phase Phase) []Packet {
	s.Lock()
	defer s.Unlock()

	recorded := s.packets[storeKey{round: round, phase: phase}]
	packets := make([]Packet, len(recorded))
	copy(packets, recorded)

	return packets
}

// WaitQuorum blocks until at least `quorum` distinct origins are recorded for
// the round and phase. There is no timeout; it returns false only when the
// store is closed before the quorum is reached.
func (s *MessageStore) WaitQuorum(round uint64, phase Phase, quorum int) bool {
	s.Lock()
	defer s.Unlock()

	key := storeKey{round: round, phase: phase}
	for len(s.packets[key]) < quorum {
		if s.closed {
			return false
		}
		s.cond.Wait()
	}

	return true
}

// Close releases every waiter. Recording still works after Close.
func (s *MessageStore) Close() {
	s.Lock()
	defer s.Unlock()

	s.closed = true
	s.cond.Broadcast()
}

func (s *MessageStore) Rounds() []uint64 {
	s.Lock()
	defer s.Unlock()

	seen := map[uint64]struct{}{}
	var rounds []uint64
	for key := range s.packets {
		if _, found := seen[key.round]; found {
			continue
		}
		seen[key.round] = struct{}{}
		rounds = append(rounds, key.round)
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i] < rounds[j] })

	return rounds
}
