package consensus

// Tally counts the values of packets; absent content is never counted.
type Tally map[Value]int

func NewTally(packets []Packet) Tally {
	t := Tally{}
	for _, p := range packets {
		if p.Content == ValueAbsent {
			continue
		}
		t[p.Content]++
	}

	return t
}

// Majority returns the value counted by more than half of all the nodes, or
// `ValueUnknown`. The tallies partition the respondents, so at most one value
// can pass; the first one in the order ZERO, ONE, UNKNOWN is taken anyway.
func (t Tally) Majority(policy ThresholdPolicy) Value {
	for _, v := range []Value{ValueZero, ValueOne, ValueUnknown} {
		if policy.IsMajority(t[v]) {
			return v
		}
	}

	return ValueUnknown
}

// Decision returns the binary value which reached the decision threshold.
// UNKNOWN is never decided. When both values pass, which correct counting
// with `f < n/2` cannot produce, ZERO is taken.
func (t Tally) Decision(policy ThresholdPolicy) (Value, bool) {
	for _, v := range []Value{ValueZero, ValueOne} {
		if t[v] >= policy.DecisionThreshold() {
			return v, true
		}
	}

	return ValueAbsent, false
}

// Adoption returns a binary value proposed at least once, ZERO first.
func (t Tally) Adoption() (Value, bool) {
	for _, v := range []Value{ValueZero, ValueOne} {
		if t[v] > 0 {
			return v, true
		}
	}

	return ValueAbsent, false
}
