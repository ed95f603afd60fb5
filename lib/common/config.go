package common

import (
	"time"

	"boscoin.io/benor/lib/errors"
)

//
// Config carries what a node needs besides its own identity. Only
// `FaultTolerance` affects the protocol, the rest tunes the transport.
//
type Config struct {
	FaultTolerance int

	ReadinessInterval time.Duration
	BroadcastTimeout  time.Duration
	IdleTimeout       time.Duration
	Retry             *RetrySetting

	Seed int64
}

func NewConfig(faultTolerance int) Config {
	p := Config{}

	p.FaultTolerance = faultTolerance
	p.ReadinessInterval = 100 * time.Millisecond
	p.BroadcastTimeout = 3 * time.Second
	p.IdleTimeout = 3 * time.Second
	p.Seed = time.Now().UnixNano()

	return p
}

// Validate refuses the fault tolerances which leave the quorum `n - f`
// non-positive, or which need more decision votes `f + 1` than a quorum
// holds (`2f + 1 > n`); a node there never decides.
func (c Config) Validate(n int) error {
	if n < 1 {
		return errors.InvalidFaultTolerance.Clone().SetData("nodes", n)
	}
	if c.FaultTolerance < 0 || 2*c.FaultTolerance+1 > n {
		return errors.InvalidFaultTolerance.Clone().
			SetData("nodes", n).
			SetData("fault-tolerance", c.FaultTolerance)
	}
	return nil
}
