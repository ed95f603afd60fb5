package node

import (
	"fmt"
)

type State uint

const (
	StateNONE State = iota
	StateBOOTING
	StateCONSENSUS
	StateTERMINATING
)

func (s State) String() string {
	switch s {
	case StateNONE:
		return "NONE"
	case StateBOOTING:
		return "BOOTING"
	case StateCONSENSUS:
		return "CONSENSUS"
	case StateTERMINATING:
		return "TERMINATING"
	}

	return ""
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", s.String())), nil
}

func (s *State) UnmarshalJSON(b []byte) (err error) {
	if len(b) < 2 {
		return fmt.Errorf("invalid state, %q", string(b))
	}

	switch string(b[1 : len(b)-1]) {
	case "NONE":
		*s = StateNONE
	case "BOOTING":
		*s = StateBOOTING
	case "CONSENSUS":
		*s = StateCONSENSUS
	case "TERMINATING":
		*s = StateTERMINATING
	default:
		return fmt.Errorf("unknown state, %s", string(b))
	}

	return
}
