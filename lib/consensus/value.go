package consensus

import (
	"bytes"
	"strconv"

	"boscoin.io/benor/lib/errors"
)

// Value is what a node votes. `ValueUnknown` is sent only in the proposal
// phase and is never decided. `ValueAbsent` stands for no opinion and for the
// fields of a state which is not initialized yet.
type Value uint8

const (
	ValueAbsent Value = iota
	ValueZero
	ValueOne
	ValueUnknown
)

func (v Value) String() string {
	switch v {
	case ValueZero:
		return "0"
	case ValueOne:
		return "1"
	case ValueUnknown:
		return "?"
	}

	return "absent"
}

// IsBinary reports whether `v` can be an estimate or a decision.
func (v Value) IsBinary() bool {
	return v == ValueZero || v == ValueOne
}

// Int returns 0 or 1 for the binary values and -1 for the others.
func (v Value) Int() int {
	switch v {
	case ValueZero:
		return 0
	case ValueOne:
		return 1
	}

	return -1
}

func ValueFromInt(i int) (Value, error) {
	switch i {
	case 0:
		return ValueZero, nil
	case 1:
		return ValueOne, nil
	}

	return ValueAbsent, errors.InvalidInitialValue.Clone().SetData("value", i)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v {
	case ValueZero:
		return []byte("0"), nil
	case ValueOne:
		return []byte("1"), nil
	case ValueUnknown:
		return []byte(`"?"`), nil
	}

	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	switch string(bytes.TrimSpace(b)) {
	case "null":
		*v = ValueAbsent
	case "0":
		*v = ValueZero
	case "1":
		*v = ValueOne
	case `"?"`:
		*v = ValueUnknown
	default:
		return errors.InvalidPacketContent.Clone().SetData("content", strconv.Quote(string(b)))
	}

	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	switch v {
	case ValueZero:
		return 0, nil
	case ValueOne:
		return 1, nil
	case ValueUnknown:
		return "?", nil
	}

	return nil, nil
}
