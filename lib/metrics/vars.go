package metrics

import (
	"github.com/go-kit/kit/metrics/discard"
)

var (
	Version   = discard.NewGauge()
	Consensus = NopConsensusMetrics()
	Network   = NopNetworkMetrics()
)
