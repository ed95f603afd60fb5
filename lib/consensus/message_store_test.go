package consensus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessageStoreEmpty(t *testing.T) {
	s := NewMessageStore()

	require.Equal(t, 0, s.Count(1, PhaseRoundVote))
	require.Empty(t, s.Read(1, PhaseRoundVote))
	require.Empty(t, s.Rounds())
}

func TestMessageStoreRecordIsIdempotentPerOrigin(t *testing.T) {
	s := NewMessageStore()

	require.True(t, s.Record(NewPacket(PhaseRoundVote, 1, 1, ValueZero)))
	require.False(t, s.Record(NewPacket(PhaseRoundVote, 1, 1, ValueOne)))
	require.False(t, s.Record(NewPacket(PhaseRoundVote, 1, 1, ValueZero)))

	require.Equal(t, 1, s.Count(1, PhaseRoundVote))
	require.Equal(t, []Packet{NewPacket(PhaseRoundVote, 1, 1, ValueZero)}, s.Read(1, PhaseRoundVote))

	tally := NewTally(s.Read(1, PhaseRoundVote))
	require.Equal(t, 1, tally[ValueZero])
	require.Equal(t, 0, tally[ValueOne])
}

func TestMessageStoreKeys(t *testing.T) {
	s := NewMessageStore()

	// same origin in another phase or round is a different key
	require.True(t, s.Record(NewPacket(PhaseRoundVote, 1, 1, ValueZero)))
	require.True(t, s.Record(NewPacket(PhasePropose, 1, 1, ValueUnknown)))
	require.True(t, s.Record(NewPacket(PhaseRoundVote, 1, 2, ValueOne)))
	require.True(t, s.Record(NewPacket(PhaseRoundVote, 2, 1, ValueOne)))

	require.Equal(t, 2, s.Count(1, PhaseRoundVote))
	require.Equal(t, 1, s.Count(1, PhasePropose))
	require.Equal(t, 1, s.Count(2, PhaseRoundVote))
	require.Equal(t, 0, s.Count(2, PhasePropose))
	require.Equal(t, []uint64{1, 2}, s.Rounds())
}

func TestMessageStoreReadKeepsArrivalOrder(t *testing.T) {
	s := NewMessageStore()

	origins := []uint64{3, 0, 2, 1}
	for _, origin := range origins {
		s.Record(NewPacket(PhaseRoundVote, origin, 1, ValueOne))
	}

	var read []uint64
	for _, p := range s.Read(1, PhaseRoundVote) {
		read = append(read, p.Origin)
	}
	require.Equal(t, origins, read)

	// the returned slice is a copy
	packets := s.Read(1, PhaseRoundVote)
	packets[0].Content = ValueZero
	require.Equal(t, ValueOne, s.Read(1, PhaseRoundVote)[0].Content)
}

func TestMessageStoreWaitQuorum(t *testing.T) {
	s := NewMessageStore()

	done := make(chan bool)
	go func() {
		done <- s.WaitQuorum(1, PhaseRoundVote, 3)
	}()

	s.Record(NewPacket(PhaseRoundVote, 0, 1, ValueZero))
	s.Record(NewPacket(PhaseRoundVote, 1, 1, ValueZero))
	s.Record(NewPacket(PhaseRoundVote, 1, 1, ValueOne))  // duplicated origin
	s.Record(NewPacket(PhasePropose, 2, 1, ValueZero))   // other phase
	s.Record(NewPacket(PhaseRoundVote, 2, 2, ValueZero)) // other round

	select {
	case <-done:
		t.Fatal("quorum must not be reached with 2 origins")
	case <-time.After(50 * time.Millisecond):
	}

	s.Record(NewPacket(PhaseRoundVote, 2, 1, ValueOne))

	select {
	case reached := <-done:
		require.True(t, reached)
	case <-time.After(time.Second):
		t.Fatal("quorum must be reached with 3 origins")
	}
}

func TestMessageStoreWaitQuorumAlreadyReached(t *testing.T) {
	s := NewMessageStore()
	s.Record(NewPacket(PhasePropose, 0, 1, ValueZero))

	require.True(t, s.WaitQuorum(1, PhasePropose, 1))
	require.True(t, s.WaitQuorum(1, PhasePropose, 0))
}

func TestMessageStoreClose(t *testing.T) {
	s := NewMessageStore()

	var wg sync.WaitGroup
	results := make([]bool, 3)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.WaitQuorum(1, PhaseRoundVote, 4)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	s.Close()
	wg.Wait()

	require.Equal(t, []bool{false, false, false}, results)
}

func TestMessageStoreConcurrentRecord(t *testing.T) {
	s := NewMessageStore()

	var wg sync.WaitGroup
	for origin := uint64(0); origin < 50; origin++ {
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(origin uint64, i int) {
				defer wg.Done()
				s.Record(NewPacket(PhaseRoundVote, origin, 1, ValueOne))
			}(origin, i)
		}
	}
	wg.Wait()

	require.Equal(t, 50, s.Count(1, PhaseRoundVote))
}
