//
// Struct that bridges together components of a node
//
// NodeRunner bridges together the network, the journal and the consensus of a
// `LocalNode`. In this regard, it can be seen as a single node, and is used as
// such in unit tests.
//
package runner

import (
	"context"
	"sync"

	"github.com/GianlucaGuarini/go-observable"
	ghandlers "github.com/gorilla/handlers"
	logging "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/common/observer"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/metrics"
	"boscoin.io/benor/lib/network"
	"boscoin.io/benor/lib/node"
	"boscoin.io/benor/lib/storage"
)

type NodeRunner struct {
	sync.RWMutex

	localNode         *node.LocalNode
	network           network.Network
	connectionManager network.ConnectionManager
	consensus         *consensus.BenOr
	journal           *storage.Journal
	observer          *observable.Observable
	metrics           *metrics.ConsensusMetrics

	handlePacketCheckerFuncs     []common.CheckerFunc
	handlePacketCheckerDeferFunc common.CheckerDeferFunc

	consensusStarted bool
	consensusDone    chan struct{}
	handlersOnce     sync.Once

	log logging.Logger

	Conf common.Config
}

// NewNodeRunner binds the local node to the network. Without a `coin`, a
// random coin seeded by `conf.Seed` and the node id is used; `journal` may be
// nil.
func NewNodeRunner(
	localNode *node.LocalNode,
	n network.Network,
	initial consensus.Value,
	coin consensus.Coin,
	journal *storage.Journal,
	conf common.Config,
) (nr *NodeRunner, err error) {
	if err = conf.Validate(localNode.CountValidators()); err != nil {
		return
	}

	if coin == nil {
		coin = consensus.NewRandomCoin(conf.Seed + int64(localNode.ID()))
	}

	nr = &NodeRunner{
		localNode:     localNode,
		network:       n,
		journal:       journal,
		observer:      observer.New(),
		metrics:       metrics.Consensus,
		consensusDone: make(chan struct{}),
		log:           log.New(logging.Ctx{"node": localNode.Alias()}),
		Conf:          conf,
	}

	nr.connectionManager = network.NewPeerConnectionManager(localNode, n, conf)

	policy := consensus.NewThresholdPolicy(localNode.CountValidators(), conf.FaultTolerance)
	if nr.consensus, err = consensus.NewBenOr(localNode.ID(), initial, localNode.IsFaulty(), policy, nr.connectionManager, coin); err != nil {
		nr = nil
		return
	}
	nr.consensus.SetMetrics(nr.metrics)
	nr.consensus.SetTransitSignal(nr.transitSignal)

	nr.SetHandlePacketCheckerFuncs(nil, DefaultHandlePacketCheckerFuncs...)

	n.SetLocalNode(localNode)
	n.SetMessageBroker(nr)

	nr.localNode.SetBooting()

	return
}

func (nr *NodeRunner) Node() *node.LocalNode {
	return nr.localNode
}

func (nr *NodeRunner) Network() network.Network {
	return nr.network
}

func (nr *NodeRunner) Consensus() *consensus.BenOr {
	return nr.consensus
}

func (nr *NodeRunner) ConnectionManager() network.ConnectionManager {
	return nr.connectionManager
}

func (nr *NodeRunner) Journal() *storage.Journal {
	return nr.journal
}

func (nr *NodeRunner) Metrics() *metrics.ConsensusMetrics {
	nr.RLock()
	defer nr.RUnlock()

	return nr.metrics
}

func (nr *NodeRunner) Log() logging.Logger {
	return nr.log
}

func (nr *NodeRunner) Observer() *observable.Observable {
	nr.RLock()
	defer nr.RUnlock()

	return nr.observer
}

// SetObserver replaces the observer which the decision and halt events are
// triggered to.
func (nr *NodeRunner) SetObserver(ob *observable.Observable) {
	nr.Lock()
	defer nr.Unlock()

	nr.observer = ob
}

func (nr *NodeRunner) SetMetrics(m *metrics.ConsensusMetrics) {
	nr.Lock()
	nr.metrics = m
	nr.Unlock()

	nr.consensus.SetMetrics(m)
}

func (nr *NodeRunner) SetHandlePacketCheckerFuncs(deferFunc common.CheckerDeferFunc, f ...common.CheckerFunc) {
	if deferFunc == nil {
		deferFunc = nr.defaultPacketCheckerDeferFunc
	}

	nr.handlePacketCheckerDeferFunc = deferFunc
	nr.handlePacketCheckerFuncs = f
}

func (nr *NodeRunner) defaultPacketCheckerDeferFunc(_ int, _ common.Checker, err error) {
	if err == nil || common.IsCheckerStop(err) {
		return
	}

	reason := err.Error()
	if e, ok := err.(*errors.Error); ok {
		reason = e.Message
	}
	nr.Metrics().AddPacketRejected(nr.localNode.Alias(), reason)
}

func (nr *NodeRunner) setupHandlers() {
	// BaseRouter's middlewares impact all sub routers.
	if err := nr.network.AddMiddleware("", network.RecoverMiddleware(nr.log)); err != nil {
		nr.log.Error("Middleware has an error", "err", err)
		return
	}

	{ //CORS
		allowedOrigins := ghandlers.AllowedOrigins([]string{"*"})
		allowedMethods := ghandlers.AllowedMethods([]string{"GET", "POST"})
		allowedHeaders := ghandlers.AllowedHeaders([]string{"Content-Type", "X-Requested-With", "Cache-Control", "Access-Control"})

		cors := ghandlers.CORS(allowedOrigins, allowedMethods, allowedHeaders)
		if err := nr.network.AddMiddleware(network.RouterNameNode, cors); err != nil {
			nr.log.Error("Middleware has an error", "err", err)
			return
		}
	}

	nodeHandler := NewNetworkHandlerNode(nr)

	nr.network.AddHandler(network.UrlPathPrefixNode+network.NodeInfoPattern, nodeHandler.NodeInfoHandler).
		Methods("GET")
	nr.network.AddHandler(network.UrlPathPrefixNode+network.NodeStatePattern, nodeHandler.NodeStateHandler).
		Methods("GET")
	nr.network.AddHandler(network.UrlPathPrefixNode+network.NodePacketPattern, nodeHandler.PacketHandler).
		Methods("POST")
	nr.network.AddHandler(network.UrlPathPrefixNode+network.NodeStartPattern, nodeHandler.StartHandler).
		Methods("POST")
	nr.network.AddHandler(network.UrlPathPrefixNode+network.NodeStopPattern, nodeHandler.StopHandler).
		Methods("POST")

	nr.network.AddHandler(network.UrlPathPrefixMetric, promhttp.Handler().ServeHTTP)
}

// Start opens the network and begins to wait the validators. It blocks until
// the network stops.
func (nr *NodeRunner) Start() (err error) {
	nr.log.Debug("NodeRunner started")

	nr.handlersOnce.Do(nr.setupHandlers)
	if err = nr.network.Ready(); err != nil {
		return
	}

	nr.log.Debug("trying to connect to the validators", "validators", nr.localNode.GetValidators())
	nr.connectionManager.Start()

	return nr.network.Start()
}

// Stop tears the node down: the consensus is killed and any round waiting in
// the message store halts at once.
func (nr *NodeRunner) Stop() {
	nr.localNode.SetTerminating()

	nr.connectionManager.Stop()
	nr.consensus.Stop()
	nr.consensus.Store().Close()
	nr.network.Stop()
}

// Ready is closed when every validator is reachable.
func (nr *NodeRunner) Ready() <-chan struct{} {
	return nr.connectionManager.Ready()
}

// Done is closed when the consensus of this node has finished, decided or
// halted.
func (nr *NodeRunner) Done() <-chan struct{} {
	return nr.consensusDone
}

// StartConsensus starts the rounds in the background; it runs once, and only
// after every validator was reachable.
func (nr *NodeRunner) StartConsensus() error {
	if !nr.connectionManager.IsReady() {
		return errors.NodeNotReady
	}

	nr.Lock()
	if nr.consensusStarted {
		nr.Unlock()
		return nil
	}
	nr.consensusStarted = true
	nr.Unlock()

	nr.localNode.SetConsensus()
	nr.log.Debug("starting consensus", "policy", nr.consensus.Policy())

	go func() {
		defer close(nr.consensusDone)
		nr.consensus.Start()
	}()

	return nil
}

// StartConsensusWhenReady waits for the validators and starts the consensus.
func (nr *NodeRunner) StartConsensusWhenReady(ctx context.Context) error {
	select {
	case <-nr.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	return nr.StartConsensus()
}

// StopConsensus kills the consensus; a running round ends before it halts.
func (nr *NodeRunner) StopConsensus() {
	nr.consensus.Stop()
}

func (nr *NodeRunner) State() consensus.NodeState {
	return nr.consensus.State()
}

// Receive implements `network.MessageBroker`.
func (nr *NodeRunner) Receive(message common.NetworkMessage) error {
	if message.IsEmpty() {
		return errors.InvalidPacketFormat.Clone().SetData("error", "empty message")
	}

	switch message.Type {
	case common.PacketMessage:
		return nr.handlePacketMessage(message)
	default:
		return errors.UnknownMessageType.Clone().SetData("type", message.Type.String())
	}
}

func (nr *NodeRunner) handlePacketMessage(message common.NetworkMessage) (err error) {
	checker := &PacketChecker{
		DefaultChecker: common.DefaultChecker{Funcs: nr.handlePacketCheckerFuncs},
		NodeRunner:     nr,
		LocalNode:      nr.localNode,
		Message:        message,
		Log:            nr.log,
	}

	err = common.RunChecker(checker, nr.handlePacketCheckerDeferFunc)
	if err != nil {
		if stopped, ok := err.(common.CheckerStop); ok {
			checker.Log.Debug("stopped to handle packet", "reason", stopped.Error())
			return nil
		}

		checker.Log.Debug("failed to handle packet", "error", err, "message", message.Head(100))
		return
	}

	return
}

func (nr *NodeRunner) transitSignal(state consensus.EngineState) {
	nodeState := nr.consensus.State()

	var event string
	switch state {
	case consensus.EngineStateDECIDED:
		event = observer.EventDecided
		if nr.journal != nil {
			if err := nr.journal.PutDecision(nr.localNode.ID(), nodeState.Round, nodeState.Estimate); err != nil {
				nr.log.Error("failed to journal decision", "error", err)
			}
		}
	case consensus.EngineStateHALTED:
		event = observer.EventHalted
	default:
		return
	}

	nr.log.Debug("consensus finished", "state", state, "node-state", nodeState)

	ob := nr.Observer()
	ob.Trigger(event, nr.localNode.ID(), nodeState)
	ob.Trigger(observer.NodeEvent(event, nr.localNode.ID()), nr.localNode.ID(), nodeState)
}
