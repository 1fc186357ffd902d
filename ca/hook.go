package ca

import "github.com/sarchlab/akita/v4/sim"

// HookPosTransitionApplied marks the hook point invoked after every
// applied transition. The hook item is a TransitionInfo.
var HookPosTransitionApplied = &sim.HookPos{Name: "TransitionApplied"}

// TransitionInfo describes one applied transition for observers.
type TransitionInfo struct {
	// Time is the simulation time the transition fired at.
	Time sim.VTimeInSec

	// Link is the active-link index the transition fired on.
	Link int

	// From is the link state before the transition.
	From int

	// To is the link state after the transition. When a boundary endpoint
	// suppressed a cell write, To is the re-derived state rather than the
	// rule's nominal target.
	To int

	// Name is the label of the rule that fired, if any.
	Name string
}
