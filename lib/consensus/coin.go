package consensus

import (
	"math/rand"
	"sync"
)

// Coin gives the estimate of a round in which no binary value was proposed.
type Coin interface {
	Flip() Value
}

type RandomCoin struct {
	sync.Mutex
	r *rand.Rand
}

func NewRandomCoin(seed int64) *RandomCoin {
	return &RandomCoin{r: rand.New(rand.NewSource(seed))}
}

func (c *RandomCoin) Flip() Value {
	c.Lock()
	defer c.Unlock()

	if c.r.Intn(2) == 0 {
		return ValueZero
	}

	return ValueOne
}
