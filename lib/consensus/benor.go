package consensus

import (
	"strconv"
	"sync"

	logging "github.com/inconshreveable/log15"

	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/metrics"
)

// Transport delivers a packet to every node, this node included. It reports
// nothing back and must not block on an unreachable peer.
type Transport interface {
	Broadcast(Packet)
}

type TransportFunc func(Packet)

func (f TransportFunc) Broadcast(p Packet) {
	f(p)
}

// BenOr runs the randomized binary agreement of one node.
type BenOr struct {
	sync.RWMutex

	id        uint64
	initial   Value
	policy    ThresholdPolicy
	transport Transport
	coin      Coin
	store     *MessageStore

	state         EngineState
	nodeState     NodeState
	transitSignal func(EngineState)

	metrics *metrics.ConsensusMetrics
	label   string
	log     logging.Logger
}

func NewBenOr(id uint64, initial Value, faulty bool, policy ThresholdPolicy, transport Transport, coin Coin) (*BenOr, error) {
	if !faulty && !initial.IsBinary() {
		return nil, errors.InvalidInitialValue.Clone().SetData("value", initial.String())
	}

	label := strconv.FormatUint(id, 10)

	return &BenOr{
		id:            id,
		initial:       initial,
		policy:        policy,
		transport:     transport,
		coin:          coin,
		store:         NewMessageStore(),
		state:         EngineStateIDLE,
		nodeState:     NodeState{Faulty: faulty},
		transitSignal: func(EngineState) {},
		metrics:       metrics.NopConsensusMetrics(),
		label:         label,
		log:           log.New(logging.Ctx{"node": label}),
	}, nil
}

func (b *BenOr) ID() uint64 {
	return b.id
}

func (b *BenOr) Policy() ThresholdPolicy {
	return b.policy
}

func (b *BenOr) Store() *MessageStore {
	return b.store
}

func (b *BenOr) IsFaulty() bool {
	return b.nodeState.Faulty
}

func (b *BenOr) SetTransitSignal(f func(EngineState)) {
	b.Lock()
	defer b.Unlock()

	b.transitSignal = f
}

func (b *BenOr) SetMetrics(m *metrics.ConsensusMetrics) {
	b.Lock()
	defer b.Unlock()

	b.metrics = m
}

func (b *BenOr) EngineState() EngineState {
	b.RLock()
	defer b.RUnlock()

	return b.state
}

func (b *BenOr) State() NodeState {
	b.RLock()
	defer b.RUnlock()

	return b.nodeState
}

// Stop marks the node killed. A running round finishes its waits first; the
// engine halts at the next round boundary.
func (b *BenOr) Stop() {
	b.Lock()
	b.nodeState.Killed = true
	b.Unlock()

	b.log.Debug("node killed")
}

// Receive is called for every packet delivered to this node. A killed node
// rejects the packet, a decided node takes it without recording. It reports
// whether the packet was recorded.
func (b *BenOr) Receive(p Packet) (bool, error) {
	b.RLock()
	killed, decided := b.nodeState.Killed, b.nodeState.Decided
	b.RUnlock()

	if killed {
		return false, errors.NodeStopped
	}
	if decided {
		return false, nil
	}

	return b.store.Record(p), nil
}

// Start runs rounds until the node decides or is killed. For a faulty node,
// and for a node already started, it returns at once.
func (b *BenOr) Start() {
	b.Lock()
	if b.nodeState.Faulty {
		b.Unlock()
		b.log.Debug("faulty node does not participate")
		b.transit(EngineStateHALTED)
		return
	}
	if b.nodeState.Started {
		b.Unlock()
		return
	}

	b.nodeState.Started = true
	b.nodeState.Estimate = b.initial
	b.metrics.SetEstimate(b.label, b.initial.Int())
	b.metrics.SetDecided(b.label, -1)
	b.Unlock()

	b.log.Debug("consensus started", "initial", b.initial, "policy", b.policy)
	b.transit(EngineStateRUNNING)

	for {
		state := b.runRound()
		if state == EngineStateRUNNING {
			continue
		}

		b.transit(state)
		return
	}
}

func (b *BenOr) runRound() EngineState {
	b.Lock()
	if b.nodeState.Killed {
		round := b.nodeState.Round
		b.Unlock()
		b.log.Info("consensus halted", "round", round)
		return EngineStateHALTED
	}

	b.nodeState.Round++
	round, estimate := b.nodeState.Round, b.nodeState.Estimate
	b.Unlock()

	b.metrics.SetRound(b.label, round)
	logger := b.log.New(logging.Ctx{"round": round})
	logger.Debug("round started", "estimate", estimate)

	b.broadcast(NewPacket(PhaseRoundVote, b.id, round, estimate))
	if !b.store.WaitQuorum(round, PhaseRoundVote, b.policy.Quorum()) {
		logger.Info("message store closed while waiting round votes")
		return EngineStateHALTED
	}

	proposal := NewTally(b.store.Read(round, PhaseRoundVote)).Majority(b.policy)
	logger.Debug("round votes reached quorum", "proposal", proposal)

	b.broadcast(NewPacket(PhasePropose, b.id, round, proposal))
	if !b.store.WaitQuorum(round, PhasePropose, b.policy.Quorum()) {
		logger.Info("message store closed while waiting proposals")
		return EngineStateHALTED
	}

	tally := NewTally(b.store.Read(round, PhasePropose))

	if decided, ok := tally.Decision(b.policy); ok {
		b.Lock()
		b.nodeState.Estimate = decided
		b.nodeState.Decided = true
		b.Unlock()

		b.metrics.SetEstimate(b.label, decided.Int())
		b.metrics.SetDecided(b.label, decided.Int())
		logger.Info("decided", "value", decided, "tally", tally)

		return EngineStateDECIDED
	}

	next, ok := tally.Adoption()
	if ok {
		logger.Debug("adopted", "value", next, "tally", tally)
	} else {
		next = b.coin.Flip()
		b.metrics.AddCoinFlip(b.label)
		logger.Debug("flipped coin", "value", next, "tally", tally)
	}

	b.Lock()
	b.nodeState.Estimate = next
	b.Unlock()
	b.metrics.SetEstimate(b.label, next.Int())

	return EngineStateRUNNING
}

func (b *BenOr) broadcast(p Packet) {
	b.metrics.AddBroadcast(b.label, p.Phase.String())
	b.transport.Broadcast(p)
}

func (b *BenOr) transit(state EngineState) {
	b.Lock()
	b.state = state
	signal := b.transitSignal
	b.Unlock()

	signal(state)
}
