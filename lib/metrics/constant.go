package metrics

const (
	Namespace          = "benor"
	ConsensusSubsystem = "consensus"
	NetworkSubsystem   = "network"
)

const (
	LabelNode   = "node"
	LabelPhase  = "phase"
	LabelReason = "reason"
	LabelPeer   = "peer"
)
