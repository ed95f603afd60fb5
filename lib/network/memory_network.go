package network

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/node"
)

type memoryPeers struct {
	sync.RWMutex
	networks map[ /* endpoint */ string]*MemoryNetwork
}

func (m *memoryPeers) get(endpoint *common.Endpoint) (*MemoryNetwork, bool) {
	m.RLock()
	defer m.RUnlock()

	n, ok := m.networks[endpoint.String()]
	return n, ok
}

func (m *memoryPeers) add(n *MemoryNetwork) {
	m.Lock()
	defer m.Unlock()

	m.networks[n.endpoint.String()] = n
}

// MemoryFilter decides whether a message is delivered; `false` drops it.
type MemoryFilter func(common.NetworkMessage) bool

type MemoryNetwork struct {
	sync.RWMutex

	localNode node.Node
	endpoint  *common.Endpoint
	close     chan struct{}
	closeOnce sync.Once
	ready     bool
	stopped   bool

	maxDelay time.Duration
	filter   MemoryFilter

	// They all share the same map to find each other
	peers *memoryPeers

	messageBroker MessageBroker
}

func (p *MemoryNetwork) GetClient(endpoint *common.Endpoint) NetworkClient {
	n, ok := p.peers.get(endpoint)
	if !ok {
		panic("Trying to get inexistant client, this is a bug in the tests!")
	}

	return NewMemoryNetworkClient(endpoint, n)
}

func (p *MemoryNetwork) Endpoint() *common.Endpoint {
	return p.endpoint
}

// Start blocks until `Stop` is called.
func (p *MemoryNetwork) Start() error {
	<-p.close

	return nil
}

func (p *MemoryNetwork) Stop() {
	p.Lock()
	p.stopped = true
	p.Unlock()

	p.closeOnce.Do(func() { close(p.close) })
}

func (p *MemoryNetwork) Ready() error {
	p.Lock()
	defer p.Unlock()

	p.ready = true
	return nil
}

func (p *MemoryNetwork) IsReady() bool {
	p.RLock()
	defer p.RUnlock()

	return p.ready && !p.stopped
}

func (p *MemoryNetwork) SetMessageBroker(mb MessageBroker) {
	p.Lock()
	defer p.Unlock()

	p.messageBroker = mb
}

func (p *MemoryNetwork) MessageBroker() MessageBroker {
	p.RLock()
	defer p.RUnlock()

	return p.messageBroker
}

func (p *MemoryNetwork) SetLocalNode(localNode node.Node) {
	p.Lock()
	defer p.Unlock()

	p.localNode = localNode
}

// SetMaxDelay makes every delivery asynchronous, after a random delay up to
// `d`. Zero restores synchronous delivery.
func (p *MemoryNetwork) SetMaxDelay(d time.Duration) {
	p.Lock()
	defer p.Unlock()

	p.maxDelay = d
}

func (p *MemoryNetwork) SetFilter(f MemoryFilter) {
	p.Lock()
	defer p.Unlock()

	p.filter = f
}

func (p *MemoryNetwork) GetNodeInfo() ([]byte, error) {
	if !p.IsReady() {
		return nil, errors.NodeNotReady
	}

	p.RLock()
	localNode := p.localNode
	p.RUnlock()

	if localNode == nil {
		return nil, errors.NodeNotReady
	}

	return localNode.Serialize()
}

// Send delivers the message to this network's broker. A message dropped by the
// filter is not an error for the sender.
func (p *MemoryNetwork) Send(mt common.MessageType, b []byte) error {
	msg := common.NewNetworkMessage(mt, b)

	p.RLock()
	filter, maxDelay := p.filter, p.maxDelay
	p.RUnlock()

	if filter != nil && !filter(msg) {
		log.Debug("message filtered", "endpoint", p.endpoint, "message", msg)
		return nil
	}

	if maxDelay > 0 {
		delay := time.Duration(rand.Int63n(int64(maxDelay)))
		go func() {
			time.Sleep(delay)
			if err := p.receive(msg); err != nil {
				log.Debug("delayed message rejected", "endpoint", p.endpoint, "error", err)
			}
		}()
		return nil
	}

	return p.receive(msg)
}

func (p *MemoryNetwork) receive(msg common.NetworkMessage) error {
	p.RLock()
	stopped, broker := p.stopped, p.messageBroker
	p.RUnlock()

	if stopped {
		return errors.NodeStopped
	}
	if broker == nil {
		return errors.NodeNotReady
	}

	return broker.Receive(msg)
}

func (p *MemoryNetwork) AddHandler(string, http.HandlerFunc) *mux.Route {
	return &mux.Route{}
}

func (p *MemoryNetwork) AddMiddleware(string, ...mux.MiddlewareFunc) error {
	return nil
}

func CreateNewMemoryEndpoint() *common.Endpoint {
	return &common.Endpoint{Scheme: "memory", Host: uuid.New().String()}
}

// NewMemoryNetwork creates a network which can reach `prev` and every network
// created from it. `prev` may be nil for the first one.
func (prev *MemoryNetwork) NewMemoryNetwork() *MemoryNetwork {
	var peers *memoryPeers
	if prev != nil {
		peers = prev.peers
	} else {
		peers = &memoryPeers{networks: map[string]*MemoryNetwork{}}
	}

	n := &MemoryNetwork{
		endpoint: CreateNewMemoryEndpoint(),
		close:    make(chan struct{}),
		peers:    peers,
	}

	peers.add(n)

	return n
}
