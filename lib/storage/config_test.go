package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/benor/lib/errors"
)

func TestNewConfigFromString(t *testing.T) {
	{
		c, err := NewConfigFromString("memory://")
		require.NoError(t, err)
		require.Equal(t, "memory", c.Scheme)
		require.Equal(t, "memory://", c.String())
	}

	{
		c, err := NewConfigFromString("file:///tmp/benor/db")
		require.NoError(t, err)
		require.Equal(t, "file", c.Scheme)
		require.Equal(t, "/tmp/benor/db", c.Path)
		require.Equal(t, "file:///tmp/benor/db", c.String())
	}

	for _, s := range []string{"file://", "redis://localhost", "/tmp/benor/db"} {
		_, err := NewConfigFromString(s)
		require.True(t, errors.InvalidStorageConfig.Equal(err), s)
	}
}
