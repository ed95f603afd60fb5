package consensus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

func TestNodeStateJSON(t *testing.T) {
	cases := []struct {
		state    NodeState
		expected string
	}{
		{
			NodeState{Faulty: true},
			`{"killed":null,"estimate":null,"decided":null,"round":null}`,
		},
		{
			NodeState{},
			`{"killed":null,"estimate":null,"decided":null,"round":null}`,
		},
		{
			NodeState{Killed: true},
			`{"killed":true,"estimate":null,"decided":null,"round":null}`,
		},
		{
			NodeState{Started: true, Killed: true, Estimate: ValueOne, Round: 3},
			`{"killed":true,"estimate":1,"decided":false,"round":3}`,
		},
		{
			NodeState{Started: true, Estimate: ValueOne, Round: 1},
			`{"killed":false,"estimate":1,"decided":false,"round":1}`,
		},
		{
			NodeState{Started: true, Estimate: ValueZero, Decided: true, Round: 4},
			`{"killed":false,"estimate":0,"decided":true,"round":4}`,
		},
	}

	for _, c := range cases {
		b, err := json.Marshal(c.state)
		require.NoError(t, err)
		require.Equal(t, c.expected, string(b))
	}
}

func TestNodeStateYAML(t *testing.T) {
	b, err := yaml.Marshal(NodeState{Started: true, Estimate: ValueZero, Decided: true, Round: 2})
	require.NoError(t, err)
	require.Equal(t, "killed: false\nestimate: 0\ndecided: true\nround: 2\n", string(b))

	b, err = yaml.Marshal(NodeState{Faulty: true})
	require.NoError(t, err)
	require.Equal(t, "killed: null\nestimate: null\ndecided: null\nround: null\n", string(b))
}

func TestEngineState(t *testing.T) {
	b, err := json.Marshal(EngineStateDECIDED)
	require.NoError(t, err)
	require.Equal(t, `"DECIDED"`, string(b))

	require.False(t, EngineStateIDLE.IsTerminal())
	require.False(t, EngineStateRUNNING.IsTerminal())
	require.True(t, EngineStateHALTED.IsTerminal())
}
