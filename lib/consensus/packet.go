package consensus

import (
	"encoding/json"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/errors"
)

type Phase string

const (
	PhaseRoundVote Phase = "R"
	PhasePropose   Phase = "P"
)

func (p Phase) IsValid() bool {
	return p == PhaseRoundVote || p == PhasePropose
}

func (p Phase) String() string {
	return string(p)
}

// Packet is the protocol message. The json form, `{"type", "origin",
// "iteration", "content"}`, is what goes on the wire.
type Packet struct {
	Phase   Phase  `json:"type"`
	Origin  uint64 `json:"origin"`
	Round   uint64 `json:"iteration"`
	Content Value  `json:"content"`
}

func NewPacket(phase Phase, origin, round uint64, content Value) Packet {
	return Packet{
		Phase:   phase,
		Origin:  origin,
		Round:   round,
		Content: content,
	}
}

func NewPacketFromJSON(b []byte) (p Packet, err error) {
	if err = json.Unmarshal(b, &p); err != nil {
		if _, ok := err.(*errors.Error); !ok {
			err = errors.InvalidPacketFormat.Clone().SetData("error", err.Error())
		}
		return
	}

	err = p.IsWellFormed()

	return
}

func (p Packet) IsWellFormed() error {
	if !p.Phase.IsValid() {
		return errors.InvalidPacketType.Clone().SetData("type", string(p.Phase))
	}
	if p.Round < 1 {
		return errors.InvalidPacketRound.Clone().SetData("iteration", p.Round)
	}

	return nil
}

func (p Packet) Serialize() ([]byte, error) {
	return json.Marshal(p)
}

func (p Packet) String() string {
	return string(common.MustMarshalJSON(p))
}

// GetHash is for log context only; nothing is keyed by it.
func (p Packet) GetHash() string {
	return common.MustMakeObjectHashString(p)
}
