package network

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	logging "github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/metrics"
	"boscoin.io/benor/lib/node"
)

// PeerConnectionManager keeps the clients to every validator and delivers the
// broadcast packets. It becomes ready once every peer has answered the node
// info request, and never checks again.
type PeerConnectionManager struct {
	sync.RWMutex

	localNode *node.LocalNode
	network   Network
	config    common.Config

	clients   map[ /* node.ID() */ uint64]NetworkClient
	connected map[ /* node.ID() */ uint64]bool

	ready     chan struct{}
	readyOnce sync.Once
	stop      chan struct{}
	stopOnce  sync.Once

	metrics *metrics.NetworkMetrics
	log     logging.Logger
}

func NewPeerConnectionManager(localNode *node.LocalNode, network Network, config common.Config) *PeerConnectionManager {
	c := &PeerConnectionManager{
		localNode: localNode,
		network:   network,
		config:    config,
		clients:   map[uint64]NetworkClient{},
		connected: map[uint64]bool{},
		ready:     make(chan struct{}),
		stop:      make(chan struct{}),
		metrics:   metrics.Network,
		log:       log.New(logging.Ctx{"node": localNode.Alias()}),
	}
	c.connected[localNode.ID()] = true

	return c
}

func (c *PeerConnectionManager) SetMetrics(m *metrics.NetworkMetrics) {
	c.Lock()
	defer c.Unlock()

	c.metrics = m
}

func (c *PeerConnectionManager) GetConnection(id uint64) (client NetworkClient) {
	var validator *node.Validator
	if validator = c.localNode.Validator(id); validator == nil {
		return
	}
	if validator.Endpoint() == nil {
		return
	}

	c.Lock()
	defer c.Unlock()

	var ok bool
	if client, ok = c.clients[id]; ok {
		return
	}

	if client = c.network.GetClient(validator.Endpoint()); client != nil {
		c.clients[id] = client
	}

	return
}

func (c *PeerConnectionManager) Start() {
	c.log.Debug("starting to connect to validators", "validators", c.localNode.GetValidators())

	go c.waitPeers()
}

func (c *PeerConnectionManager) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *PeerConnectionManager) Ready() <-chan struct{} {
	return c.ready
}

func (c *PeerConnectionManager) IsReady() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

func (c *PeerConnectionManager) CountConnected() int {
	c.RLock()
	defer c.RUnlock()

	var count int
	for _, isConnected := range c.connected {
		if isConnected {
			count += 1
		}
	}
	return count
}

func (c *PeerConnectionManager) isConnected(id uint64) bool {
	c.RLock()
	defer c.RUnlock()

	return c.connected[id]
}

func (c *PeerConnectionManager) setConnected(id uint64) {
	c.Lock()
	c.connected[id] = true
	m := c.metrics
	c.Unlock()

	m.SetConnectedPeers(c.localNode.Alias(), c.CountConnected())
}

func (c *PeerConnectionManager) waitPeers() {
	interval := c.config.ReadinessInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := c.probePeers()
		if err == nil {
			c.readyOnce.Do(func() { close(c.ready) })
			c.log.Debug("all the validators are connected", "connected", c.CountConnected())
			return
		}
		c.log.Debug("waiting validators", "connected", c.CountConnected(), "error", err)

		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
	}
}

// probePeers requests the node info of every peer not connected yet. It
// returns the first failure.
func (c *PeerConnectionManager) probePeers() error {
	var g errgroup.Group
	for _, v := range c.localNode.GetPeers() {
		if c.isConnected(v.ID()) {
			continue
		}

		v := v
		g.Go(func() error {
			if err := c.connectValidator(v); err != nil {
				return err
			}

			c.setConnected(v.ID())
			c.log.Debug("validator is connected", "validator", v)
			return nil
		})
	}

	return g.Wait()
}

func (c *PeerConnectionManager) connectValidator(v *node.Validator) (err error) {
	client := c.GetConnection(v.ID())
	if client == nil {
		return fmt.Errorf("no client for validator; validator=%s", v)
	}

	var b []byte
	if b, err = client.GetNodeInfo(); err != nil {
		return
	}

	// load and check validator info; ids are same?
	var info struct {
		ID uint64 `json:"id"`
	}
	if err = json.Unmarshal(b, &info); err != nil {
		return
	}
	if info.ID != v.ID() {
		err = fmt.Errorf("id is mismatch; expected=%d found=%d", v.ID(), info.ID)
		return
	}

	return
}

// Broadcast delivers the packet to this node first, then to every peer each in
// its own goroutine. Failures are only logged; it never blocks on a peer.
func (c *PeerConnectionManager) Broadcast(p consensus.Packet) {
	b, err := p.Serialize()
	if err != nil {
		c.log.Error("failed to serialize packet", "packet", p, "error", err)
		return
	}

	if broker := c.network.MessageBroker(); broker != nil {
		if err := broker.Receive(common.NewNetworkMessage(common.PacketMessage, b)); err != nil {
			c.log.Debug("failed to deliver packet to self", "packet", p, "error", err)
		}
	}

	c.RLock()
	m := c.metrics
	c.RUnlock()

	for _, v := range c.localNode.GetPeers() {
		go func(v *node.Validator) {
			client := c.GetConnection(v.ID())
			if client == nil {
				m.AddSendFailure(c.localNode.Alias(), v.Alias())
				return
			}

			if err := client.SendPacket(b); err != nil {
				m.AddSendFailure(c.localNode.Alias(), v.Alias())
				c.log.Debug("failed to send packet", "validator", v, "packet", p, "error", err)
			}
		}(v)
	}
}
