package ca

// transitionTable stores the outgoing transitions of every link state in
// dense parallel tables so the sampler touches only contiguous memory
// indexed by small integers.
type transitionTable struct {
	// n[s] is the number of transitions out of link state s.
	n []int
	// to[s][i] is the destination link state of slot i.
	to [][]int
	// rate[s][i] is the rate of slot i.
	rate [][]float64
	// name[s][i] is the label of slot i.
	name [][]string
}

// newTransitionTable normalizes and buckets the rule list. It rejects an
// empty list, a list mixing id and pair forms, out-of-range states,
// non-positive rates, and rules whose from and to states disagree on
// orientation.
func newTransitionTable(codec *Codec, rules []Transition) (*transitionTable, error) {
	if len(rules) == 0 {
		return nil, configErrorf("transition list must contain at least one transition")
	}

	byPair := rules[0].ByPair()
	for _, r := range rules {
		if r.ByPair() != byPair {
			return nil, configErrorf(
				"transition list mixes id and pair forms; use one or the other")
		}
	}

	numStates := codec.NumLinkStates()
	t := &transitionTable{n: make([]int, numStates)}

	type resolved struct {
		from, to int
		rate     float64
		name     string
	}
	flat := make([]resolved, 0, len(rules))
	for _, r := range rules {
		from, to, err := r.normalize(codec)
		if err != nil {
			return nil, err
		}
		if r.Rate <= 0 {
			return nil, configErrorf("transition %q: rate %v must be positive",
				r.Name, r.Rate)
		}
		if codec.mustDecode(from).Orientation != codec.mustDecode(to).Orientation {
			return nil, configErrorf(
				"transition %q: from state %d and to state %d differ in orientation",
				r.Name, from, to)
		}
		flat = append(flat, resolved{from: from, to: to, rate: r.Rate, name: r.Name})
		t.n[from]++
	}

	maxOut := 0
	for _, n := range t.n {
		if n > maxOut {
			maxOut = n
		}
	}

	t.to = make([][]int, numStates)
	t.rate = make([][]float64, numStates)
	t.name = make([][]string, numStates)
	for s := 0; s < numStates; s++ {
		t.to[s] = make([]int, maxOut)
		t.rate[s] = make([]float64, maxOut)
		t.name[s] = make([]string, maxOut)
	}

	// Fill slots in rule order, which keeps the rule-indexed random
	// stream stable.
	fill := make([]int, numStates)
	for _, r := range flat {
		slot := fill[r.from]
		t.to[r.from][slot] = r.to
		t.rate[r.from][slot] = r.rate
		t.name[r.from][slot] = r.name
		fill[r.from]++
	}

	return t, nil
}
