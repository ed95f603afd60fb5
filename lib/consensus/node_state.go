package consensus

import (
	"encoding/json"
	"fmt"
)

type EngineState uint

const (
	EngineStateIDLE EngineState = iota
	EngineStateRUNNING
	EngineStateDECIDED
	EngineStateHALTED
)

func (s EngineState) String() string {
	switch s {
	case EngineStateIDLE:
		return "IDLE"
	case EngineStateRUNNING:
		return "RUNNING"
	case EngineStateDECIDED:
		return "DECIDED"
	case EngineStateHALTED:
		return "HALTED"
	}

	return ""
}

func (s EngineState) IsTerminal() bool {
	return s == EngineStateDECIDED || s == EngineStateHALTED
}

func (s EngineState) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

func (s EngineState) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// NodeState is a snapshot of a node's protocol state. A faulty node exposes
// nothing. Until it starts a node exposes nothing either, except `killed` once
// it was stopped.
type NodeState struct {
	Faulty   bool
	Started  bool
	Killed   bool
	Estimate Value
	Decided  bool
	Round    uint64
}

type nodeStateView struct {
	Killed   *bool   `json:"killed" yaml:"killed"`
	Estimate Value   `json:"estimate" yaml:"estimate"`
	Decided  *bool   `json:"decided" yaml:"decided"`
	Round    *uint64 `json:"round" yaml:"round"`
}

func (s NodeState) view() nodeStateView {
	var v nodeStateView
	if s.Faulty {
		return v
	}

	killed := s.Killed
	if !s.Started {
		if killed {
			v.Killed = &killed
		}
		return v
	}

	decided, round := s.Decided, s.Round
	v.Killed = &killed
	v.Estimate = s.Estimate
	v.Decided = &decided
	v.Round = &round

	return v
}

func (s NodeState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.view())
}

func (s NodeState) MarshalYAML() (interface{}, error) {
	return s.view(), nil
}

func (s NodeState) String() string {
	b, _ := s.MarshalJSON()
	return string(b)
}
