package node

import (
	"boscoin.io/benor/lib/common"
)

func NewTestLocalNode(id uint64, endpoint *common.Endpoint) *LocalNode {
	return NewLocalNode(id, endpoint, "", false)
}
