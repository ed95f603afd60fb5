package network

import (
	"boscoin.io/benor/lib/common"
)

type MemoryNetworkClient struct {
	endpoint *common.Endpoint

	server *MemoryNetwork
}

func NewMemoryNetworkClient(endpoint *common.Endpoint, server *MemoryNetwork) *MemoryNetworkClient {
	return &MemoryNetworkClient{
		endpoint: endpoint,
		server:   server,
	}
}

func (m *MemoryNetworkClient) Endpoint() *common.Endpoint {
	return m.endpoint
}

func (m *MemoryNetworkClient) GetNodeInfo() ([]byte, error) {
	return m.server.GetNodeInfo()
}

func (m *MemoryNetworkClient) SendPacket(b []byte) error {
	return m.server.Send(common.PacketMessage, b)
}
