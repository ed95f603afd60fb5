package observer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeEvent(t *testing.T) {
	ob := New()

	var wg sync.WaitGroup
	wg.Add(1)

	var received []uint64
	fn := func(args ...interface{}) {
		defer wg.Done()
		received = append(received, args[0].(uint64))
	}
	ob.On(NodeEvent(EventDecided, 3), fn)
	defer ob.Off(NodeEvent(EventDecided, 3), fn)

	ob.Trigger(NodeEvent(EventDecided, 2), uint64(2))
	ob.Trigger(NodeEvent(EventDecided, 3), uint64(3))

	wg.Wait()
	require.Equal(t, []uint64{3}, received)
	require.Equal(t, "halted-1", NodeEvent(EventHalted, 1))
}
