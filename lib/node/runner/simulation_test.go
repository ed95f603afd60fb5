package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/storage"
)

func runTestSimulation(t *testing.T, config SimulationConfig) SimulationResult {
	s, err := NewSimulation(config)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	require.NoError(t, s.Run(ctx))

	return s.Result()
}

func TestSimulationValidity(t *testing.T) {
	for _, v := range []consensus.Value{consensus.ValueZero, consensus.ValueOne} {
		result := runTestSimulation(t, SimulationConfig{
			Nodes:          4,
			FaultTolerance: 1,
			Initial: map[uint64]consensus.Value{
				0: v, 1: v, 2: v, 3: v,
			},
			Seed: 1,
		})

		require.Equal(t, 4, result.Decided)
		require.True(t, result.Agreement)
		require.Equal(t, v, result.Value)
		require.Equal(t, uint64(1), result.MaxRound)
	}
}

func TestSimulationAgreementWithFaulty(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		result := runTestSimulation(t, SimulationConfig{
			Nodes:          7,
			FaultTolerance: 2,
			Faulty:         []uint64{1, 5},
			Seed:           seed,
		})

		require.Equal(t, 5, result.Decided, "seed=%d", seed)
		require.True(t, result.Agreement, "seed=%d", seed)
		require.True(t, result.Value.IsBinary())

		for _, id := range []uint64{1, 5} {
			state := result.States[id]
			require.True(t, state.Faulty)
			require.False(t, state.Decided)
		}
	}
}

func TestSimulationMaxDelay(t *testing.T) {
	journal := storage.NewTestJournal()

	result := runTestSimulation(t, SimulationConfig{
		Nodes:          4,
		FaultTolerance: 1,
		Faulty:         []uint64{3},
		Seed:           7,
		MaxDelay:       5 * time.Millisecond,
		Journal:        journal,
	})

	require.Equal(t, 3, result.Decided)
	require.True(t, result.Agreement)

	decisions, err := journal.Decisions()
	require.NoError(t, err)
	require.Equal(t, 3, len(decisions))
	for _, d := range decisions {
		require.Equal(t, result.Value, d.Value)
	}
}

func TestSimulationInvalidConfig(t *testing.T) {
	{ // no nodes
		_, err := NewSimulation(SimulationConfig{Nodes: 0})
		require.True(t, errors.InvalidSimulationConfig.Equal(err))
	}

	{ // unknown faulty node
		_, err := NewSimulation(SimulationConfig{Nodes: 3, Faulty: []uint64{3}})
		require.True(t, errors.InvalidSimulationConfig.Equal(err))
	}

	{ // fault tolerance
		_, err := NewSimulation(SimulationConfig{Nodes: 3, FaultTolerance: 3})
		require.True(t, errors.InvalidFaultTolerance.Equal(err))
	}

	{ // decision threshold above the quorum
		_, err := NewSimulation(SimulationConfig{Nodes: 4, FaultTolerance: 3})
		require.True(t, errors.InvalidFaultTolerance.Equal(err))
	}

	{ // initial value
		_, err := NewSimulation(SimulationConfig{
			Nodes:   2,
			Initial: map[uint64]consensus.Value{0: consensus.ValueUnknown},
		})
		require.True(t, errors.InvalidInitialValue.Equal(err))
	}

	{ // faulty node does not need a valid initial value
		_, err := NewSimulation(SimulationConfig{
			Nodes:          3,
			FaultTolerance: 1,
			Faulty:         []uint64{0},
			Initial:        map[uint64]consensus.Value{0: consensus.ValueUnknown},
		})
		require.NoError(t, err)
	}
}
