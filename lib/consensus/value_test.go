package consensus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/benor/lib/errors"
)

func TestValueWire(t *testing.T) {
	expected := map[Value]string{
		ValueAbsent:  "null",
		ValueZero:    "0",
		ValueOne:     "1",
		ValueUnknown: `"?"`,
	}

	for v, wire := range expected {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		require.Equal(t, wire, string(b))

		var parsed Value = ValueUnknown
		require.NoError(t, json.Unmarshal([]byte(wire), &parsed))
		require.Equal(t, v, parsed)
	}
}

func TestValueWireInvalid(t *testing.T) {
	for _, wire := range []string{`2`, `"0"`, `"1"`, `"unknown"`, `true`, `-1`, `0.0`} {
		var v Value
		err := json.Unmarshal([]byte(wire), &v)
		require.Error(t, err, wire)
		require.True(t, errors.InvalidPacketContent.Equal(err), wire)
	}
}

func TestValueFromInt(t *testing.T) {
	{
		v, err := ValueFromInt(0)
		require.NoError(t, err)
		require.Equal(t, ValueZero, v)
		require.Equal(t, 0, v.Int())
	}
	{
		v, err := ValueFromInt(1)
		require.NoError(t, err)
		require.Equal(t, ValueOne, v)
		require.Equal(t, 1, v.Int())
	}
	{
		_, err := ValueFromInt(2)
		require.True(t, errors.InvalidInitialValue.Equal(err))
	}

	require.Equal(t, -1, ValueUnknown.Int())
	require.False(t, ValueUnknown.IsBinary())
	require.False(t, ValueAbsent.IsBinary())
}
