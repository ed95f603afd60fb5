package common

import (
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/benor/lib/errors"
)

func TestGetENVValue(t *testing.T) {
	key := "BENOR_TEST_GET_ENV_VALUE"
	os.Unsetenv(key)
	require.Equal(t, "default", GetENVValue(key, "default"))

	os.Setenv(key, "")
	defer os.Unsetenv(key)
	require.Equal(t, "", GetENVValue(key, "default"))

	os.Setenv(key, "showme")
	require.Equal(t, "showme", GetENVValue(key, "default"))
}

func TestGetUrlQuery(t *testing.T) {
	query := url.Values{}
	query.Set("IdleTimeout", "5s")

	require.Equal(t, "5s", GetUrlQuery(query, "IdleTimeout", "0s"))
	require.Equal(t, "0s", GetUrlQuery(query, "ReadTimeout", "0s"))
}

func TestInStringArray(t *testing.T) {
	a := []string{"R", "P"}

	index, found := InStringArray(a, "P")
	require.True(t, found)
	require.Equal(t, 1, index)

	index, found = InStringArray(a, "X")
	require.False(t, found)
	require.Equal(t, -1, index)
}

func TestParseBoolQueryString(t *testing.T) {
	for _, v := range []string{"true", "YES", "1"} {
		yesno, err := ParseBoolQueryString(v)
		require.NoError(t, err)
		require.True(t, yesno)
	}
	for _, v := range []string{"false", "No", "0"} {
		yesno, err := ParseBoolQueryString(v)
		require.NoError(t, err)
		require.False(t, yesno)
	}

	_, err := ParseBoolQueryString("maybe")
	require.True(t, errors.InvalidQueryString.Equal(err))
}

func TestGenerateUUID(t *testing.T) {
	require.NotEqual(t, GenerateUUID(), GenerateUUID())
	require.Equal(t, 36, len(GenerateUUID()))
}
