package common

import (
	"fmt"
)

type MessageType string

func (t MessageType) String() string {
	return string(t)
}

const (
	PacketMessage MessageType = "packet"
)

type NetworkMessage struct {
	Type MessageType
	Data []byte
}

func NewNetworkMessage(mt MessageType, data []byte) NetworkMessage {
	return NetworkMessage{Type: mt, Data: data}
}

func (t NetworkMessage) IsEmpty() bool {
	return len(t.Data) < 1
}

func (t NetworkMessage) Head(n int) string {
	s := string(t.Data)
	if len(s) > n {
		return s[:n]
	}

	return s
}

func (t NetworkMessage) String() string {
	return fmt.Sprintf("%s: %s", t.Type, t.Head(100))
}
