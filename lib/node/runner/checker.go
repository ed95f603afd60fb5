package runner

import (
	logging "github.com/inconshreveable/log15"

	"boscoin.io/benor/lib/common"
	"boscoin.io/benor/lib/consensus"
	"boscoin.io/benor/lib/errors"
	"boscoin.io/benor/lib/node"
)

var DefaultHandlePacketCheckerFuncs = []common.CheckerFunc{
	PacketUnmarshal,
	PacketFromKnownValidator,
	PacketReceive,
	PacketJournal,
}

type PacketChecker struct {
	common.DefaultChecker

	NodeRunner *NodeRunner
	LocalNode  *node.LocalNode
	Message    common.NetworkMessage
	Packet     consensus.Packet

	Log logging.Logger
}

// PacketUnmarshal makes `Packet` from common.NetworkMessage.
func PacketUnmarshal(c common.Checker, args ...interface{}) (err error) {
	checker := c.(*PacketChecker)

	var p consensus.Packet
	if p, err = consensus.NewPacketFromJSON(checker.Message.Data); err != nil {
		return
	}

	checker.Packet = p
	checker.Log = checker.Log.New(logging.Ctx{
		"packet":    p.GetHash(),
		"type":      p.Phase,
		"origin":    p.Origin,
		"iteration": p.Round,
		"content":   p.Content,
	})

	return
}

// PacketFromKnownValidator checks the incoming packet is from one of the
// validators.
func PacketFromKnownValidator(c common.Checker, args ...interface{}) (err error) {
	checker := c.(*PacketChecker)
	if checker.LocalNode.HasValidator(checker.Packet.Origin) {
		return
	}

	checker.Log.Debug("packet from unknown validator")

	err = errors.PacketFromUnknownNode.Clone().SetData("origin", checker.Packet.Origin)
	return
}

// PacketReceive hands the packet to the consensus. A packet which is not
// recorded, because it was duplicated or the node already decided, stops the
// chain without error.
func PacketReceive(c common.Checker, args ...interface{}) (err error) {
	checker := c.(*PacketChecker)

	var recorded bool
	if recorded, err = checker.NodeRunner.Consensus().Receive(checker.Packet); err != nil {
		return
	}

	if !recorded {
		if checker.NodeRunner.Consensus().State().Decided {
			err = common.NewCheckerStop("node already decided")
		} else {
			err = common.NewCheckerStop("packet already recorded")
		}
		return
	}

	checker.NodeRunner.Metrics().AddPacketRecorded(checker.LocalNode.Alias(), checker.Packet.Phase.String())
	checker.Log.Debug("packet recorded")

	return
}

// PacketJournal appends the recorded packet to the journal. A journal failure
// does not reject the packet.
func PacketJournal(c common.Checker, args ...interface{}) (err error) {
	checker := c.(*PacketChecker)

	journal := checker.NodeRunner.Journal()
	if journal == nil {
		return
	}

	if jerr := journal.PutPacket(checker.LocalNode.ID(), checker.Packet); jerr != nil {
		checker.Log.Error("failed to journal packet", "error", jerr)
	}

	return
}
