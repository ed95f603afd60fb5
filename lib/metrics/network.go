package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

type NetworkMetrics struct {
	ConnectedPeers metrics.Gauge
	SendFailures   metrics.Counter
}

func (n *NetworkMetrics) SetConnectedPeers(node string, count int) {
	n.ConnectedPeers.With(LabelNode, node).Set(float64(count))
}

func (n *NetworkMetrics) AddSendFailure(node, peer string) {
	n.SendFailures.With(LabelNode, node, LabelPeer, peer).Add(1)
}

func PromNetworkMetrics() *NetworkMetrics {
	return &NetworkMetrics{
		ConnectedPeers: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: NetworkSubsystem,
			Name:      "connected_peers",
			Help:      "Number of peers found reachable by the readiness probe.",
		}, []string{LabelNode}),
		SendFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: NetworkSubsystem,
			Name:      "send_failures_total",
			Help:      "Number of packets which could not be delivered to a peer.",
		}, []string{LabelNode, LabelPeer}),
	}
}

func NopNetworkMetrics() *NetworkMetrics {
	return &NetworkMetrics{
		ConnectedPeers: discard.NewGauge(),
		SendFailures:   discard.NewCounter(),
	}
}
