package node

import (
	"fmt"

	"boscoin.io/benor/lib/common"
)

type Node interface {
	ID() uint64
	Alias() string
	Endpoint() *common.Endpoint
	Equal(Node) bool
	Serialize() ([]byte, error)
}

func MakeAlias(id uint64) string {
	return fmt.Sprintf("n%d", id)
}
