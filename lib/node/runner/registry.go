package runner

import (
	"context"
	"sort"
	"sync"

	"github.com/GianlucaGuarini/go-observable"

	"boscoin.io/benor/lib/common/observer"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/errors"
)

// Registry keeps the node runners of one process and shares an observer
// between them, so the decisions of any node can be waited.
type Registry struct {
	sync.RWMutex

	runners  map[uint64]*NodeRunner
	observer *observable.Observable
}

func NewRegistry() *Registry {
	return &Registry{
		runners:  map[uint64]*NodeRunner{},
		observer: observer.New(),
	}
}

func (r *Registry) Observer() *observable.Observable {
	return r.observer
}

func (r *Registry) Add(nr *NodeRunner) error {
	r.Lock()
	defer r.Unlock()

	id := nr.Node().ID()
	if _, found := r.runners[id]; found {
		return errors.NodeAlreadyRegistered.Clone().SetData("id", id)
	}

	nr.SetObserver(r.observer)
	r.runners[id] = nr

	return nil
}

func (r *Registry) Get(id uint64) (*NodeRunner, error) {
	r.RLock()
	defer r.RUnlock()

	nr, found := r.runners[id]
	if !found {
		return nil, errors.UnknownNode.Clone().SetData("id", id)
	}

	return nr, nil
}

// Runners returns the runners ordered by node id.
func (r *Registry) Runners() []*NodeRunner {
	r.RLock()
	defer r.RUnlock()

	var runners []*NodeRunner
	for _, nr := range r.runners {
		runners = append(runners, nr)
	}
	sort.Slice(runners, func(i, j int) bool { return runners[i].Node().ID() < runners[j].Node().ID() })

	return runners
}

func (r *Registry) States() map[uint64]consensus.NodeState {
	states := map[uint64]consensus.NodeState{}
	for _, nr := range r.Runners() {
		states[nr.Node().ID()] = nr.State()
	}

	return states
}

// WaitDecided blocks until every given node has decided. A node which halts
// without deciding makes it return `errors.NodeStopped`.
func (r *Registry) WaitDecided(ctx context.Context, ids ...uint64) error {
	type finished struct {
		id      uint64
		decided bool
	}

	ch := make(chan finished, len(ids)*2)
	notify := func(f finished) {
		select {
		case ch <- f:
		default:
		}
	}
	onDecided := func(args ...interface{}) {
		notify(finished{id: args[0].(uint64), decided: true})
	}
	onHalted := func(args ...interface{}) {
		notify(finished{id: args[0].(uint64), decided: false})
	}

	waiting := map[uint64]bool{}
	for _, id := range ids {
		nr, err := r.Get(id)
		if err != nil {
			return err
		}

		r.observer.On(observer.NodeEvent(observer.EventDecided, id), onDecided)
		r.observer.On(observer.NodeEvent(observer.EventHalted, id), onHalted)
		defer r.observer.Off(observer.NodeEvent(observer.EventDecided, id), onDecided)
		defer r.observer.Off(observer.NodeEvent(observer.EventHalted, id), onHalted)

		switch nr.Consensus().EngineState() {
		case consensus.EngineStateDECIDED:
			continue
		case consensus.EngineStateHALTED:
			return errors.NodeStopped.Clone().SetData("id", id)
		}
		waiting[id] = true
	}

	for len(waiting) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-ch:
			if !waiting[f.id] {
				continue
			}
			if !f.decided {
				return errors.NodeStopped.Clone().SetData("id", f.id)
			}
			delete(waiting, f.id)
		}
	}

	return nil
}
