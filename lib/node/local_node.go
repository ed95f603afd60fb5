//
// Defines the `LocalNode` type of Node, which is our node
//
// A `LocalNode` is the local node, as opposed to a `Validator`
// which is the remote nodes this `LocalNode` sees.
//
package node

import (
	"encoding/json"
	"sort"
	"sync"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/errors"
)

type LocalNode struct {
	sync.RWMutex

	id         uint64
	alias      string
	faulty     bool
	state      State
	endpoint   *common.Endpoint
	validators map[uint64]*Validator
}

// NewLocalNode makes the node; it is also its own validator, so the
// validators always include every node of the agreement.
func NewLocalNode(id uint64, endpoint *common.Endpoint, alias string, faulty bool) *LocalNode {
	if len(alias) < 1 {
		alias = MakeAlias(id)
	}

	n := &LocalNode{
		id:         id,
		alias:      alias,
		faulty:     faulty,
		state:      StateNONE,
		endpoint:   endpoint,
		validators: map[uint64]*Validator{},
	}
	n.validators[id] = n.ConvertToValidator()

	return n
}

func (n *LocalNode) String() string {
	return n.Alias()
}

func (n *LocalNode) Equal(a Node) bool {
	return n.ID() == a.ID()
}

func (n *LocalNode) ID() uint64 {
	return n.id
}

func (n *LocalNode) Alias() string {
	return n.alias
}

func (n *LocalNode) Endpoint() *common.Endpoint {
	return n.endpoint
}

func (n *LocalNode) IsFaulty() bool {
	return n.faulty
}

func (n *LocalNode) State() State {
	n.RLock()
	defer n.RUnlock()

	return n.state
}

func (n *LocalNode) SetBooting() {
	n.setState(StateBOOTING)
}

func (n *LocalNode) SetConsensus() {
	n.setState(StateCONSENSUS)
}

func (n *LocalNode) SetTerminating() {
	n.setState(StateTERMINATING)
}

func (n *LocalNode) setState(state State) {
	n.Lock()
	defer n.Unlock()

	n.state = state
}

func (n *LocalNode) HasValidator(id uint64) bool {
	n.RLock()
	defer n.RUnlock()

	_, found := n.validators[id]
	return found
}

func (n *LocalNode) Validator(id uint64) *Validator {
	n.RLock()
	defer n.RUnlock()

	return n.validators[id]
}

// GetValidators returns every validator, this node included, ordered by id.
func (n *LocalNode) GetValidators() []*Validator {
	n.RLock()
	defer n.RUnlock()

	var vs []*Validator
	for _, v := range n.validators {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].ID() < vs[j].ID() })

	return vs
}

// GetPeers returns the validators except this node.
func (n *LocalNode) GetPeers() []*Validator {
	var peers []*Validator
	for _, v := range n.GetValidators() {
		if v.ID() == n.id {
			continue
		}
		peers = append(peers, v)
	}

	return peers
}

func (n *LocalNode) CountValidators() int {
	n.RLock()
	defer n.RUnlock()

	return len(n.validators)
}

func (n *LocalNode) AddValidators(validators ...*Validator) error {
	n.Lock()
	defer n.Unlock()

	for _, v := range validators {
		if _, found := n.validators[v.ID()]; found {
			return errors.DuplicatedValidator.Clone().SetData("id", v.ID())
		}
		if v.Endpoint() != nil {
			for _, e := range n.validators {
				if e.Endpoint() != nil && e.Endpoint().String() == v.Endpoint().String() {
					return errors.DuplicatedValidator.Clone().SetData("endpoint", v.Endpoint().String())
				}
			}
		}
		n.validators[v.ID()] = v
	}

	return nil
}

func (n *LocalNode) ConvertToValidator() *Validator {
	return NewValidator(n.id, n.endpoint, n.alias)
}

func (n *LocalNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":         n.ID(),
		"alias":      n.Alias(),
		"endpoint":   n.Endpoint().String(),
		"faulty":     n.IsFaulty(),
		"state":      n.State().String(),
		"validators": n.GetValidators(),
	})
}

func (n *LocalNode) Serialize() ([]byte, error) {
	return json.Marshal(n)
}
