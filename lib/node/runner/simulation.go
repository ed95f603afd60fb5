package runner

import (
	"context"
	"math/rand"
	"time"

	logging "github.com/inconshreveable/log15"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/network"
	"boscoin.io/benor/lib/node"
	"boscoin.io/benor/lib/storage"
)

type SimulationConfig struct {
	Nodes          int
	FaultTolerance int
	Faulty         []uint64

	// Initial values by node id; the missing ones are drawn from `Seed`.
	Initial map[uint64]consensus.Value
	Seed    int64

	// MaxDelay makes every delivery asynchronous, delayed randomly up to it.
	MaxDelay time.Duration

	Journal *storage.Journal
}

// Simulation runs every node of an agreement in this process, connected by
// memory networks.
type Simulation struct {
	config   SimulationConfig
	registry *Registry
	faulty   map[uint64]bool
	initial  map[uint64]consensus.Value
	log      logging.Logger
}

func NewSimulation(config SimulationConfig) (*Simulation, error) {
	if config.Nodes < 1 {
		return nil, errors.InvalidSimulationConfig.Clone().SetData("nodes", config.Nodes)
	}

	faulty := map[uint64]bool{}
	for _, id := range config.Faulty {
		if id >= uint64(config.Nodes) {
			return nil, errors.InvalidSimulationConfig.Clone().SetData("faulty", id)
		}
		faulty[id] = true
	}

	r := rand.New(rand.NewSource(config.Seed))
	initial := map[uint64]consensus.Value{}
	for i := 0; i < config.Nodes; i++ {
		id := uint64(i)
		v, found := config.Initial[id]
		if !found {
			v = consensus.ValueZero
			if r.Intn(2) == 1 {
				v = consensus.ValueOne
			}
		}
		if !faulty[id] && !v.IsBinary() {
			return nil, errors.InvalidInitialValue.Clone().SetData("id", id)
		}
		initial[id] = v
	}

	s := &Simulation{
		config:   config,
		registry: NewRegistry(),
		faulty:   faulty,
		initial:  initial,
		log:      log.New(logging.Ctx{"simulation": config.Seed}),
	}

	if err := s.build(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Simulation) build() error {
	var prev *network.MemoryNetwork

	var networks []*network.MemoryNetwork
	var localNodes []*node.LocalNode
	for i := 0; i < s.config.Nodes; i++ {
		id := uint64(i)

		n := prev.NewMemoryNetwork()
		n.SetMaxDelay(s.config.MaxDelay)
		prev = n

		networks = append(networks, n)
		localNodes = append(localNodes, node.NewLocalNode(id, n.Endpoint(), "", s.faulty[id]))
	}

	for _, a := range localNodes {
		for _, b := range localNodes {
			if a.ID() == b.ID() {
				continue
			}
			if err := a.AddValidators(b.ConvertToValidator()); err != nil {
				return err
			}
		}
	}

	for i, localNode := range localNodes {
		conf := common.NewConfig(s.config.FaultTolerance)
		conf.Seed = s.config.Seed
		conf.ReadinessInterval = 10 * time.Millisecond

		nr, err := NewNodeRunner(localNode, networks[i], s.initial[localNode.ID()], nil, s.config.Journal, conf)
		if err != nil {
			return err
		}
		if err := s.registry.Add(nr); err != nil {
			return err
		}
	}

	return nil
}

func (s *Simulation) Registry() *Registry {
	return s.registry
}

// Run starts every node and waits until all the non-faulty nodes decide or
// `ctx` is done. The nodes are stopped before it returns.
func (s *Simulation) Run(ctx context.Context) error {
	runners := s.registry.Runners()
	defer s.stop(runners)

	for _, nr := range runners {
		go func(nr *NodeRunner) {
			if err := nr.Start(); err != nil {
				nr.Log().Error("failed to start node", "error", err)
			}
		}(nr)
	}

	var ids []uint64
	for _, nr := range runners {
		if err := nr.StartConsensusWhenReady(ctx); err != nil {
			return err
		}
		if !nr.Node().IsFaulty() {
			ids = append(ids, nr.Node().ID())
		}
	}

	s.log.Debug("all nodes started", "nodes", len(runners))

	return s.registry.WaitDecided(ctx, ids...)
}

func (s *Simulation) stop(runners []*NodeRunner) {
	for _, nr := range runners {
		nr.Stop()
	}
}

type SimulationResult struct {
	States    map[uint64]consensus.NodeState `json:"states" yaml:"states"`
	Initial   map[uint64]consensus.Value     `json:"initial" yaml:"initial"`
	Faulty    []uint64                       `json:"faulty" yaml:"faulty"`
	Decided   int                            `json:"decided" yaml:"decided"`
	Agreement bool                           `json:"agreement" yaml:"agreement"`
	Value     consensus.Value                `json:"value" yaml:"value"`
	MaxRound  uint64                         `json:"max-round" yaml:"max-round"`
}

// Result checks the decided values of the non-faulty nodes agree.
func (s *Simulation) Result() SimulationResult {
	result := SimulationResult{
		States:    s.registry.States(),
		Initial:   s.initial,
		Faulty:    s.config.Faulty,
		Agreement: true,
	}

	for id, state := range result.States {
		if s.faulty[id] {
			continue
		}
		if state.Round > result.MaxRound {
			result.MaxRound = state.Round
		}
		if !state.Decided {
			continue
		}

		result.Decided++
		if result.Value == consensus.ValueAbsent {
			result.Value = state.Estimate
		} else if result.Value != state.Estimate {
			result.Agreement = false
		}
	}

	return result
}
