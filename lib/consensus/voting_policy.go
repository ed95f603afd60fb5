package consensus

import (
	"encoding/json"
)

// ThresholdPolicy holds the thresholds derived from the number of nodes `n`
// and the number of tolerated faults `f`. The relation of `n` and `f` is not
// checked here; see `common.Config.Validate`.
type ThresholdPolicy struct {
	nodes          int
	faultTolerance int
}

func NewThresholdPolicy(nodes, faultTolerance int) ThresholdPolicy {
	return ThresholdPolicy{nodes: nodes, faultTolerance: faultTolerance}
}

func (p ThresholdPolicy) Nodes() int {
	return p.nodes
}

func (p ThresholdPolicy) FaultTolerance() int {
	return p.faultTolerance
}

// Quorum is the number of distinct origins to wait for in each phase.
func (p ThresholdPolicy) Quorum() int {
	return p.nodes - p.faultTolerance
}

// DecisionThreshold is the number of proposals for one value needed to decide
// it.
func (p ThresholdPolicy) DecisionThreshold() int {
	return p.faultTolerance + 1
}

// IsMajority is true when `count` is strictly more than half of all nodes.
func (p ThresholdPolicy) IsMajority(count int) bool {
	return count*2 > p.nodes
}

func (p ThresholdPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"nodes":              p.nodes,
		"fault-tolerance":    p.faultTolerance,
		"quorum":             p.Quorum(),
		"decision-threshold": p.DecisionThreshold(),
	})
}
