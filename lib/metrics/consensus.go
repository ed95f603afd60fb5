package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

type ConsensusMetrics struct {
	Round    metrics.Gauge
	Estimate metrics.Gauge
	Decided  metrics.Gauge

	Broadcasts      metrics.Counter
	PacketsRecorded metrics.Counter
	PacketsRejected metrics.Counter
	CoinFlips       metrics.Counter
}

func (c *ConsensusMetrics) SetRound(node string, round uint64) {
	c.Round.With(LabelNode, node).Set(float64(round))
}

func (c *ConsensusMetrics) SetEstimate(node string, estimate int) {
	c.Estimate.With(LabelNode, node).Set(float64(estimate))
}

func (c *ConsensusMetrics) SetDecided(node string, decided int) {
	c.Decided.With(LabelNode, node).Set(float64(decided))
}

func (c *ConsensusMetrics) AddBroadcast(node, phase string) {
	c.Broadcasts.With(LabelNode, node, LabelPhase, phase).Add(1)
}

func (c *ConsensusMetrics) AddPacketRecorded(node, phase string) {
	c.PacketsRecorded.With(LabelNode, node, LabelPhase, phase).Add(1)
}

func (c *ConsensusMetrics) AddPacketRejected(node, reason string) {
	c.PacketsRejected.With(LabelNode, node, LabelReason, reason).Add(1)
}

func (c *ConsensusMetrics) AddCoinFlip(node string) {
	c.CoinFlips.With(LabelNode, node).Add(1)
}

func PromConsensusMetrics() *ConsensusMetrics {
	return &ConsensusMetrics{
		Round: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: ConsensusSubsystem,
			Name:      "round",
			Help:      "Current round of the node.",
		}, []string{LabelNode}),
		Estimate: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: ConsensusSubsystem,
			Name:      "estimate",
			Help:      "Current estimate of the node.",
		}, []string{LabelNode}),
		Decided: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: ConsensusSubsystem,
			Name:      "decided",
			Help:      "Decided value of the node; -1 until decided.",
		}, []string{LabelNode}),
		Broadcasts: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ConsensusSubsystem,
			Name:      "broadcasts_total",
			Help:      "Number of broadcast packets.",
		}, []string{LabelNode, LabelPhase}),
		PacketsRecorded: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ConsensusSubsystem,
			Name:      "packets_recorded_total",
			Help:      "Number of packets kept in the message store.",
		}, []string{LabelNode, LabelPhase}),
		PacketsRejected: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ConsensusSubsystem,
			Name:      "packets_rejected_total",
			Help:      "Number of rejected packets.",
		}, []string{LabelNode, LabelReason}),
		CoinFlips: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: ConsensusSubsystem,
			Name:      "coin_flips_total",
			Help:      "Number of times the estimate was drawn from the coin.",
		}, []string{LabelNode}),
	}
}

func NopConsensusMetrics() *ConsensusMetrics {
	return &ConsensusMetrics{
		Round:    discard.NewGauge(),
		Estimate: discard.NewGauge(),
		Decided:  discard.NewGauge(),

		Broadcasts:      discard.NewCounter(),
		PacketsRecorded: discard.NewCounter(),
		PacketsRejected: discard.NewCounter(),
		CoinFlips:       discard.NewCounter(),
	}
}
