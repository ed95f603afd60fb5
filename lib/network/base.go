package network

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/node"
)

const (
	RouterNameNode   = "node"
	RouterNameMetric = "metrics"
)

var (
	UrlPathPrefixNode   = fmt.Sprintf("/%s", RouterNameNode)
	UrlPathPrefixMetric = fmt.Sprintf("/%s", RouterNameMetric)
)

const (
	NodeInfoPattern   = ""
	NodeStatePattern  = "/state"
	NodePacketPattern = "/packet"
	NodeStartPattern  = "/start"
	NodeStopPattern   = "/stop"
)

type Network interface {
	Endpoint() *common.Endpoint
	GetClient(endpoint *common.Endpoint) NetworkClient
	AddHandler(string, http.HandlerFunc) *mux.Route
	AddMiddleware(string, ...mux.MiddlewareFunc) error

	// Starts network handling
	// Blocks until finished, either because of an error
	// or because `Stop` was called
	Start() error
	Stop()
	SetLocalNode(node.Node)
	SetMessageBroker(MessageBroker)
	MessageBroker() MessageBroker
	Ready() error
	IsReady() bool
}

type NetworkClient interface {
	Endpoint() *common.Endpoint

	GetNodeInfo() ([]byte, error)
	SendPacket([]byte) error
}

// MessageBroker takes the messages delivered to this node. The returned error
// is the rejection reason of the receiving node.
type MessageBroker interface {
	Receive(common.NetworkMessage) error
}

type MessageBrokerFunc func(common.NetworkMessage) error

func (f MessageBrokerFunc) Receive(m common.NetworkMessage) error {
	return f(m)
}

type ConnectionManager interface {
	consensus.Transport

	Start()
	Stop()
	IsReady() bool
	Ready() <-chan struct{}
	CountConnected() int
}
