package observer

import (
	"fmt"

	"github.com/GianlucaGuarini/go-observable"
)

// Handlers of the node events receive the node id and the consensus.NodeState
// at the change.
const (
	EventDecided = "decided"
	EventHalted  = "halted"
)

func New() *observable.Observable {
	return observable.New()
}

// NodeEvent narrows an event to a single node.
func NodeEvent(event string, id uint64) string {
	return fmt.Sprintf("%s-%d", event, id)
}
