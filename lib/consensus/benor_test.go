package consensus

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"boscoin.io/benor/lib/errors"
)

type fixedCoin Value

func (c fixedCoin) Flip() Value {
	return Value(c)
}

type recordingTransport struct {
	packets chan Packet
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{packets: make(chan Packet, 100)}
}

func (r *recordingTransport) Broadcast(p Packet) {
	r.packets <- p
}

func (r *recordingTransport) wait(t *testing.T) Packet {
	select {
	case p := <-r.packets:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no packet was broadcast")
	}

	return Packet{}
}

func (r *recordingTransport) requireNothing(t *testing.T) {
	select {
	case p := <-r.packets:
		t.Fatalf("unexpected broadcast: %s", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func startEngine(b *BenOr) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Start()
	}()

	return done
}

func waitDone(t *testing.T, done chan struct{}) {
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func receiveAll(t *testing.T, b *BenOr, phase Phase, round uint64, values ...Value) {
	for origin, v := range values {
		_, err := b.Receive(NewPacket(phase, uint64(origin), round, v))
		require.NoError(t, err)
	}
}

func TestBenOrNewWithInvalidInitial(t *testing.T) {
	_, err := NewBenOr(0, ValueUnknown, false, NewThresholdPolicy(4, 1), newRecordingTransport(), fixedCoin(ValueOne))
	require.True(t, errors.InvalidInitialValue.Equal(err))

	// faulty node does not need the initial value
	_, err = NewBenOr(0, ValueAbsent, true, NewThresholdPolicy(4, 1), newRecordingTransport(), fixedCoin(ValueOne))
	require.NoError(t, err)
}

func TestBenOrFaultyNodeIsNoop(t *testing.T) {
	transport := newRecordingTransport()
	b, err := NewBenOr(3, ValueOne, true, NewThresholdPolicy(4, 1), transport, fixedCoin(ValueOne))
	require.NoError(t, err)

	var states []EngineState
	b.SetTransitSignal(func(s EngineState) { states = append(states, s) })

	done := startEngine(b)
	waitDone(t, done)
	transport.requireNothing(t)

	require.Equal(t, NodeState{Faulty: true}, b.State())
	require.Equal(t, `{"killed":null,"estimate":null,"decided":null,"round":null}`, b.State().String())
	require.Equal(t, EngineStateHALTED, b.EngineState())
	require.Equal(t, []EngineState{EngineStateHALTED}, states)

	// packets are still taken
	recorded, err := b.Receive(NewPacket(PhaseRoundVote, 0, 1, ValueOne))
	require.NoError(t, err)
	require.True(t, recorded)
	require.Equal(t, NodeState{Faulty: true}, b.State())
}

func TestBenOrStateBeforeStart(t *testing.T) {
	b, err := NewBenOr(0, ValueZero, false, NewThresholdPolicy(4, 1), newRecordingTransport(), fixedCoin(ValueOne))
	require.NoError(t, err)

	require.Equal(t, EngineStateIDLE, b.EngineState())
	require.Equal(t, `{"killed":null,"estimate":null,"decided":null,"round":null}`, b.State().String())

	b.Stop()
	require.Equal(t, `{"killed":true,"estimate":null,"decided":null,"round":null}`, b.State().String())
}

func TestBenOrQuorumGating(t *testing.T) {
	transport := newRecordingTransport()
	b, err := NewBenOr(0, ValueZero, false, NewThresholdPolicy(4, 1), transport, fixedCoin(ValueOne))
	require.NoError(t, err)

	startEngine(b)
	defer b.Store().Close()

	require.Equal(t, NewPacket(PhaseRoundVote, 0, 1, ValueZero), transport.wait(t))
	require.Equal(t, EngineStateRUNNING, b.EngineState())

	// n - f - 1 round votes
	receiveAll(t, b, PhaseRoundVote, 1, ValueZero, ValueZero)
	transport.requireNothing(t)

	// duplicates from the same origins do not count
	receiveAll(t, b, PhaseRoundVote, 1, ValueOne, ValueOne)
	transport.requireNothing(t)

	_, err = b.Receive(NewPacket(PhaseRoundVote, 2, 1, ValueZero))
	require.NoError(t, err)
	require.Equal(t, NewPacket(PhasePropose, 0, 1, ValueZero), transport.wait(t))
}

func TestBenOrAdoptsSingleProposal(t *testing.T) {
	transport := newRecordingTransport()
	b, err := NewBenOr(0, ValueOne, false, NewThresholdPolicy(4, 1), transport, fixedCoin(ValueOne))
	require.NoError(t, err)

	done := startEngine(b)

	transport.wait(t)
	receiveAll(t, b, PhaseRoundVote, 1, ValueOne, ValueZero, ValueZero)

	// neither value has more than n/2 round votes
	require.Equal(t, NewPacket(PhasePropose, 0, 1, ValueUnknown), transport.wait(t))

	// {ZERO: 1, UNKNOWN: 2}: 1 is less than f+1, ZERO is adopted
	receiveAll(t, b, PhasePropose, 1, ValueUnknown, ValueZero, ValueUnknown)
	require.Equal(t, NewPacket(PhaseRoundVote, 0, 2, ValueZero), transport.wait(t))

	state := b.State()
	require.False(t, state.Decided)
	require.Equal(t, ValueZero, state.Estimate)
	require.Equal(t, uint64(2), state.Round)

	// {ZERO: 2, UNKNOWN: 1} decides ZERO
	receiveAll(t, b, PhaseRoundVote, 2, ValueZero, ValueZero, ValueZero)
	require.Equal(t, NewPacket(PhasePropose, 0, 2, ValueZero), transport.wait(t))
	receiveAll(t, b, PhasePropose, 2, ValueZero, ValueUnknown, ValueZero)

	waitDone(t, done)
	transport.requireNothing(t)

	require.Equal(t, EngineStateDECIDED, b.EngineState())
	require.Equal(t, NodeState{Started: true, Estimate: ValueZero, Decided: true, Round: 2}, b.State())
}

func TestBenOrFlipsCoinWithoutProposal(t *testing.T) {
	transport := newRecordingTransport()
	b, err := NewBenOr(0, ValueZero, false, NewThresholdPolicy(4, 1), transport, fixedCoin(ValueOne))
	require.NoError(t, err)

	startEngine(b)
	defer b.Store().Close()

	transport.wait(t)
	receiveAll(t, b, PhaseRoundVote, 1, ValueZero, ValueOne, ValueZero, ValueOne)
	require.Equal(t, NewPacket(PhasePropose, 0, 1, ValueUnknown), transport.wait(t))

	receiveAll(t, b, PhasePropose, 1, ValueUnknown, ValueUnknown, ValueUnknown)
	require.Equal(t, NewPacket(PhaseRoundVote, 0, 2, ValueOne), transport.wait(t))
	require.Equal(t, ValueOne, b.State().Estimate)
}

func TestBenOrStopTakesEffectAtRoundBoundary(t *testing.T) {
	transport := newRecordingTransport()
	b, err := NewBenOr(0, ValueZero, false, NewThresholdPolicy(4, 1), transport, fixedCoin(ValueOne))
	require.NoError(t, err)

	var states []EngineState
	var lock sync.Mutex
	b.SetTransitSignal(func(s EngineState) {
		lock.Lock()
		defer lock.Unlock()
		states = append(states, s)
	})

	done := startEngine(b)
	transport.wait(t)

	b.Stop()
	require.True(t, b.State().Killed)

	// a killed node rejects packets
	recorded, err := b.Receive(NewPacket(PhaseRoundVote, 1, 1, ValueZero))
	require.False(t, recorded)
	require.Equal(t, errors.NodeStopped, err)
	require.Equal(t, 0, b.Store().Count(1, PhaseRoundVote))

	// the waits of the current round still have to be satisfied
	for origin := uint64(0); origin < 3; origin++ {
		b.Store().Record(NewPacket(PhaseRoundVote, origin, 1, ValueZero))
	}
	require.Equal(t, PhasePropose, transport.wait(t).Phase)
	for origin := uint64(0); origin < 3; origin++ {
		b.Store().Record(NewPacket(PhasePropose, origin, 1, ValueUnknown))
	}

	waitDone(t, done)
	transport.requireNothing(t)

	require.Equal(t, EngineStateHALTED, b.EngineState())
	require.Equal(t, uint64(1), b.State().Round)
	require.False(t, b.State().Decided)

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, []EngineState{EngineStateRUNNING, EngineStateHALTED}, states)
}

func TestBenOrStopBeforeStart(t *testing.T) {
	transport := newRecordingTransport()
	b, err := NewBenOr(0, ValueZero, false, NewThresholdPolicy(4, 1), transport, fixedCoin(ValueOne))
	require.NoError(t, err)

	b.Stop()
	waitDone(t, startEngine(b))
	transport.requireNothing(t)

	require.Equal(t, EngineStateHALTED, b.EngineState())
	require.Equal(t, uint64(0), b.State().Round)
}

func TestBenOrClosedStoreHalts(t *testing.T) {
	transport := newRecordingTransport()
	b, err := NewBenOr(0, ValueZero, false, NewThresholdPolicy(4, 1), transport, fixedCoin(ValueOne))
	require.NoError(t, err)

	done := startEngine(b)
	transport.wait(t)

	b.Store().Close()
	waitDone(t, done)
	require.Equal(t, EngineStateHALTED, b.EngineState())
}

func TestBenOrDecidedNode(t *testing.T) {
	transport := newRecordingTransport()
	b, err := NewBenOr(0, ValueOne, false, NewThresholdPolicy(1, 0), transport, fixedCoin(ValueZero))
	require.NoError(t, err)

	// a single node only hears itself
	b.transport = TransportFunc(func(p Packet) {
		transport.Broadcast(p)
		b.Receive(p)
	})

	waitDone(t, startEngine(b))
	require.Equal(t, NewPacket(PhaseRoundVote, 0, 1, ValueOne), transport.wait(t))
	require.Equal(t, NewPacket(PhasePropose, 0, 1, ValueOne), transport.wait(t))
	require.Equal(t, EngineStateDECIDED, b.EngineState())

	// decided node accepts packets without recording them
	recorded, err := b.Receive(NewPacket(PhaseRoundVote, 0, 2, ValueZero))
	require.NoError(t, err)
	require.False(t, recorded)
	require.Equal(t, 0, b.Store().Count(2, PhaseRoundVote))

	// start again does nothing
	waitDone(t, startEngine(b))
	transport.requireNothing(t)
	require.Equal(t, NodeState{Started: true, Estimate: ValueOne, Decided: true, Round: 1}, b.State())
}

// cluster delivers every broadcast to every engine in its own goroutine,
// after a random delay.
type cluster struct {
	engines []*BenOr
	delay   time.Duration
}

func (c *cluster) Broadcast(p Packet) {
	for _, e := range c.engines {
		go func(e *BenOr) {
			if c.delay > 0 {
				time.Sleep(time.Duration(rand.Int63n(int64(c.delay))))
			}
			e.Receive(p)
		}(e)
	}
}

func runCluster(t *testing.T, nodes, faulty int, initial func(int) Value, seed int64) []NodeState {
	c := &cluster{delay: time.Millisecond}
	policy := NewThresholdPolicy(nodes, faulty)

	for i := 0; i < nodes; i++ {
		b, err := NewBenOr(uint64(i), initial(i), i < faulty, policy, c, NewRandomCoin(seed+int64(i)))
		require.NoError(t, err)
		c.engines = append(c.engines, b)
	}

	var wg sync.WaitGroup
	for _, e := range c.engines {
		wg.Add(1)
		go func(e *BenOr) {
			defer wg.Done()
			e.Start()
		}(e)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(20 * time.Second):
		t.Fatal("cluster did not terminate")
	}

	var states []NodeState
	for _, e := range c.engines {
		states = append(states, e.State())
	}

	return states
}

func TestBenOrClusterValidity(t *testing.T) {
	for _, v := range []Value{ValueZero, ValueOne} {
		states := runCluster(t, 4, 1, func(int) Value { return v }, 1)

		require.Equal(t, NodeState{Faulty: true}, states[0])
		for _, s := range states[1:] {
			require.True(t, s.Decided)
			require.Equal(t, v, s.Estimate)
			require.Equal(t, uint64(1), s.Round, "unanimous nodes decide in the first round")
		}
	}
}

func TestBenOrClusterAgreement(t *testing.T) {
	cases := []struct {
		nodes  int
		faulty int
	}{
		{4, 1},
		{5, 1},
		{7, 2},
		{3, 0},
	}

	for _, c := range cases {
		for seed := int64(0); seed < 5; seed++ {
			states := runCluster(t, c.nodes, c.faulty, func(i int) Value {
				if i%2 == 0 {
					return ValueZero
				}
				return ValueOne
			}, seed*100)

			var decided Value
			for i, s := range states {
				if i < c.faulty {
					require.Equal(t, NodeState{Faulty: true}, s)
					continue
				}

				require.True(t, s.Decided, "n=%d f=%d node=%d", c.nodes, c.faulty, i)
				require.True(t, s.Estimate.IsBinary())
				if decided == ValueAbsent {
					decided = s.Estimate
				}
				require.Equal(t, decided, s.Estimate, "n=%d f=%d seed=%d", c.nodes, c.faulty, seed)
			}
		}
	}
}
