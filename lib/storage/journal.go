package storage

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"

	"boscoin.io/benor/lib/consensus"
)

const (
	journalPrefixPacket   = "packet-"
	journalPrefixDecision = "decision-"
)

type PacketRecord struct {
	Node    uint64          `msgpack:"node" json:"node" yaml:"node"`
	Phase   consensus.Phase `msgpack:"phase" json:"type" yaml:"type"`
	Origin  uint64          `msgpack:"origin" json:"origin" yaml:"origin"`
	Round   uint64          `msgpack:"round" json:"iteration" yaml:"iteration"`
	Content consensus.Value `msgpack:"content" json:"content" yaml:"content"`
}

func (r PacketRecord) Packet() consensus.Packet {
	return consensus.NewPacket(r.Phase, r.Origin, r.Round, r.Content)
}

type DecisionRecord struct {
	Node  uint64          `msgpack:"node" json:"node" yaml:"node"`
	Round uint64          `msgpack:"round" json:"round" yaml:"round"`
	Value consensus.Value `msgpack:"value" json:"value" yaml:"value"`
}

// Journal keeps what the message stores recorded and what was decided, for
// audit. Nothing is read back into a running node.
type Journal struct {
	st *LevelDBBackend
}

func NewJournal(st *LevelDBBackend) *Journal {
	return &Journal{st: st}
}

func (j *Journal) Close() error {
	return j.st.Close()
}

// phaseKeys puts round votes ahead of proposals within a round.
var phaseKeys = map[consensus.Phase]int{
	consensus.PhaseRoundVote: 0,
	consensus.PhasePropose:   1,
}

func packetKey(node uint64, p consensus.Packet) string {
	return fmt.Sprintf("%s%020d-%020d-%d-%020d", journalPrefixPacket, node, p.Round, phaseKeys[p.Phase], p.Origin)
}

func packetPrefix(node uint64) string {
	return fmt.Sprintf("%s%020d-", journalPrefixPacket, node)
}

func decisionKey(node uint64) string {
	return fmt.Sprintf("%s%020d", journalPrefixDecision, node)
}

func (j *Journal) PutPacket(node uint64, p consensus.Packet) error {
	b, err := msgpack.Marshal(PacketRecord{
		Node:    node,
		Phase:   p.Phase,
		Origin:  p.Origin,
		Round:   p.Round,
		Content: p.Content,
	})
	if err != nil {
		return errors.Wrap(err, "failed to encode packet record")
	}

	return j.st.PutRaw(packetKey(node, p), b)
}

func (j *Journal) PutDecision(node, round uint64, value consensus.Value) error {
	b, err := msgpack.Marshal(DecisionRecord{Node: node, Round: round, Value: value})
	if err != nil {
		return errors.Wrap(err, "failed to encode decision record")
	}

	return j.st.PutRaw(decisionKey(node), b)
}

// Packets returns the packets recorded by the node in protocol order: by
// round, then round votes before proposals, then by origin.
func (j *Journal) Packets(node uint64) (records []PacketRecord, err error) {
	err = j.st.Walk(packetPrefix(node), func(key, value []byte) (bool, error) {
		var r PacketRecord
		if err := msgpack.Unmarshal(value, &r); err != nil {
			return false, errors.Wrapf(err, "broken packet record, %q", string(key))
		}
		records = append(records, r)
		return true, nil
	})

	return
}

func (j *Journal) Decision(node uint64) (r DecisionRecord, err error) {
	var b []byte
	if b, err = j.st.GetRaw(decisionKey(node)); err != nil {
		return
	}

	err = errors.Wrap(msgpack.Unmarshal(b, &r), "broken decision record")

	return
}

func (j *Journal) Decisions() (records []DecisionRecord, err error) {
	err = j.st.Walk(journalPrefixDecision, func(key, value []byte) (bool, error) {
		var r DecisionRecord
		if err := msgpack.Unmarshal(value, &r); err != nil {
			return false, errors.Wrapf(err, "broken decision record, %q", string(key))
		}
		records = append(records, r)
		return true, nil
	})

	return
}
