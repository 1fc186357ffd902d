package ca

import "github.com/sarchlab/akita/v4/sim"

// Never is the next-update sentinel for links whose current state has no
// outgoing transitions. It is finite but beyond any reachable horizon.
const Never = sim.VTimeInSec(1e12)

// transitionEvent is a scheduled link transition. It implements
// sim.Event so the model's queue can order it by time; the model itself
// is the handler.
type transitionEvent struct {
	time    sim.VTimeInSec
	link    int
	target  int
	name    string
	handler sim.Handler
}

func (e *transitionEvent) Time() sim.VTimeInSec { return e.time }

func (e *transitionEvent) Handler() sim.Handler { return e.handler }

func (e *transitionEvent) IsSecondary() bool { return false }
