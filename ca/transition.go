package ca

// Transition is a potential change of a link from one state to another.
// The waiting time until the transition fires is exponentially
// distributed with mean 1/Rate. From and to states are given either both
// as dense link-state ids or both as explicit pairs; one rule list may
// not mix the two forms.
type Transition struct {
	fromID, toID     int
	fromPair, toPair Pair
	byPair           bool

	// Rate is the transition rate, with dimensions of 1/time. Must be
	// positive.
	Rate float64

	// Name optionally labels the transition for diagnostics.
	Name string
}

// NewTransition builds a rule addressed by link-state ids.
func NewTransition(from, to int, rate float64, name string) Transition {
	return Transition{fromID: from, toID: to, Rate: rate, Name: name}
}

// NewPairTransition builds a rule addressed by explicit pairs.
func NewPairTransition(from, to Pair, rate float64, name string) Transition {
	return Transition{fromPair: from, toPair: to, byPair: true, Rate: rate, Name: name}
}

// ByPair reports whether the rule was given in pair form.
func (t Transition) ByPair() bool { return t.byPair }

// normalize resolves the rule to id form using the codec.
func (t Transition) normalize(codec *Codec) (from, to int, err error) {
	if !t.byPair {
		n := codec.NumLinkStates()
		if t.fromID < 0 || t.fromID >= n {
			return 0, 0, configErrorf("transition %q: from state %d not in [0,%d)",
				t.Name, t.fromID, n)
		}
		if t.toID < 0 || t.toID >= n {
			return 0, 0, configErrorf("transition %q: to state %d not in [0,%d)",
				t.Name, t.toID, n)
		}
		return t.fromID, t.toID, nil
	}

	from, err = codec.Encode(t.fromPair.From, t.fromPair.To, t.fromPair.Orientation)
	if err != nil {
		return 0, 0, configErrorf("transition %q: from pair %v: %v",
			t.Name, t.fromPair, err)
	}
	to, err = codec.Encode(t.toPair.From, t.toPair.To, t.toPair.Orientation)
	if err != nil {
		return 0, 0, configErrorf("transition %q: to pair %v: %v",
			t.Name, t.toPair, err)
	}
	return from, to, nil
}
