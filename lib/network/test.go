package network

import (
	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/node"
)

// CreateMemoryNetworks makes `n` connected memory networks and the local
// nodes of them; node ids start from 0 and every node knows the others.
func CreateMemoryNetworks(n int) (networks []*MemoryNetwork, localNodes []*node.LocalNode) {
	var prev *MemoryNetwork
	for i := 0; i < n; i++ {
		network := prev.NewMemoryNetwork()
		prev = network

		localNode := node.NewLocalNode(uint64(i), network.Endpoint(), "", false)
		network.SetLocalNode(localNode)

		networks = append(networks, network)
		localNodes = append(localNodes, localNode)
	}

	for _, a := range localNodes {
		for _, b := range localNodes {
			if a.ID() == b.ID() {
				continue
			}
			a.AddValidators(b.ConvertToValidator())
		}
	}

	return
}

type testBroker struct {
	received chan common.NetworkMessage
	err      error
}

func newTestBroker(err error) *testBroker {
	return &testBroker{received: make(chan common.NetworkMessage, 100), err: err}
}

func (b *testBroker) Receive(m common.NetworkMessage) error {
	b.received <- m
	return b.err
}
