package runner

import (
	"time"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/network"
	"boscoin.io/benor/lib/storage"
)

// CreateTestNodeRunners makes `n` runners connected by memory networks, all
// sharing one memory journal. The node ids start from 0.
func CreateTestNodeRunners(n, faultTolerance int, initial func(uint64) consensus.Value) (runners []*NodeRunner, journal *storage.Journal, err error) {
	networks, localNodes := network.CreateMemoryNetworks(n)
	journal = storage.NewTestJournal()

	for i, localNode := range localNodes {
		conf := common.NewConfig(faultTolerance)
		conf.Seed = int64(i)
		conf.ReadinessInterval = 5 * time.Millisecond

		var nr *NodeRunner
		if nr, err = NewNodeRunner(localNode, networks[i], initial(localNode.ID()), nil, journal, conf); err != nil {
			return
		}
		runners = append(runners, nr)
	}

	return
}
