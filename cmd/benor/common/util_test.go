package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/errors"
)

func TestParseInitialValue(t *testing.T) {
	cases := map[string]consensus.Value{
		"0":      consensus.ValueZero,
		"1":      consensus.ValueOne,
		" 1":     consensus.ValueOne,
		"random": consensus.ValueAbsent,
	}
	for s, expected := range cases {
		v, err := ParseInitialValue(s)
		require.NoError(t, err, s)
		require.Equal(t, expected, v, s)
	}

	for _, s := range []string{"2", "?", "", "one"} {
		_, err := ParseInitialValue(s)
		require.True(t, errors.InvalidInitialValue.Equal(err), s)
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("0, 3,5,")
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 3, 5}, ids)

	ids, err = ParseIDList("")
	require.NoError(t, err)
	require.Nil(t, ids)

	_, err = ParseIDList("0,a")
	require.Error(t, err)
}

func TestListFlags(t *testing.T) {
	var l ListFlags
	require.NoError(t, l.Set("0=1"))
	require.NoError(t, l.Set("1=0"))
	require.Equal(t, "0=1 1=0", l.String())
	require.Equal(t, "list", l.Type())
}

func TestEncodes(t *testing.T) {
	_, err := GetEncode("xml")
	require.Error(t, err)
	require.Equal(t, []string{"json", "prettyjson", "yaml"}, EncodeFormats())

	v := map[string]consensus.Value{"a": consensus.ValueOne, "b": consensus.ValueUnknown}

	{
		var b bytes.Buffer
		encode, _ := GetEncode("json")
		require.NoError(t, encode(v, &b))
		require.JSONEq(t, `{"a":1,"b":"?"}`, b.String())
	}

	{
		var b bytes.Buffer
		encode, _ := GetEncode("yaml")
		require.NoError(t, encode(v, &b))
		require.Contains(t, b.String(), "a: 1\n")
	}
}
