package metrics

import (
	"sync"
)

var initOnce sync.Once

// InitPrometheusMetrics replaces the nop metrics with the prometheus ones. The
// collectors are registered to the default registry only once.
func InitPrometheusMetrics() {
	initOnce.Do(func() {
		Version = PromVersion()
		Consensus = PromConsensusMetrics()
		Network = PromNetworkMetrics()
	})
}
