package ca

import (
	"log/slog"
	"math/rand"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/lattica/lattice"
)

// Model is a pair-based continuous-time stochastic cellular automaton.
// It owns the cell-state array, the per-link runtime records, the event
// queue, and the random stream; Run drives it.
//
// The model keeps one authoritative next-update time per link. Queue
// entries whose time disagrees with it are stale and are discarded on
// pop, so rescheduling a link never has to remove anything from the
// queue.
type Model struct {
	*sim.HookableBase

	grid  lattice.Grid
	codec *Codec
	table *transitionTable
	rng   *rand.Rand

	stateNames []string

	cellState  []int
	linkState  []int
	nextUpdate []sim.VTimeInSec
	queue      sim.EventQueue
	now        sim.VTimeInSec

	props     []float64
	propReset float64

	eventsApplied  uint64
	staleDiscarded uint64
}

// Run processes events until the clock reaches until or the queue
// drains. Every event popped while the clock is still below until is
// applied unless it is stale, in which case it is discarded; either way
// the clock advances to the popped event's time — the final event may
// therefore land at or beyond until. Running out of events is
// normal completion, not an error.
func (m *Model) Run(until sim.VTimeInSec) {
	for m.now < until && m.queue.Len() > 0 {
		evt := m.queue.Pop().(*transitionEvent)

		if evt.time != m.nextUpdate[evt.link] {
			m.staleDiscarded++
			slog.Debug("stale event discarded",
				"link", evt.link,
				"eventTime", float64(evt.time),
				"nextUpdate", float64(m.nextUpdate[evt.link]))
			m.now = evt.time
			continue
		}

		if err := evt.Handler().Handle(evt); err != nil {
			panic(err)
		}
		m.now = evt.time
	}
}

// Handle applies one scheduled transition. It mutates the endpoint cell
// states where permitted, reschedules the event's link, and reschedules
// every other link incident to an endpoint that changed state. Callers
// other than Run must not invoke it.
func (m *Model) Handle(e sim.Event) error {
	evt := e.(*transitionEvent)
	tail, head := m.grid.LinkEnds(evt.link)
	oldState := m.linkState[evt.link]

	tailChanged, headChanged := m.updateCellStates(tail, head, evt.target)
	m.updateLinkState(evt.link, evt.target, evt.time)
	if tailChanged {
		m.refreshIncidentLinks(tail, evt.link, evt.time)
	}
	if headChanged {
		m.refreshIncidentLinks(head, evt.link, evt.time)
	}

	m.eventsApplied++
	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Pos:    HookPosTransitionApplied,
		Item: TransitionInfo{
			Time: evt.time,
			Link: evt.link,
			From: oldState,
			To:   m.linkState[evt.link],
			Name: evt.name,
		},
	})

	return nil
}

// updateCellStates writes the decoded endpoint states of the new link
// state to the two nodes, skipping boundary nodes, and reports which
// nodes actually changed.
func (m *Model) updateCellStates(tail, head, newLinkState int) (tailChanged, headChanged bool) {
	pair := m.codec.mustDecode(newLinkState)

	oldTail := m.cellState[tail]
	oldHead := m.cellState[head]

	if m.grid.IsCore(tail) {
		m.cellState[tail] = pair.From
	}
	if m.grid.IsCore(head) {
		m.cellState[head] = pair.To
	}

	return m.cellState[tail] != oldTail, m.cellState[head] != oldHead
}

// updateLinkState records a link's new state and schedules its next
// transition. If either endpoint is a boundary node the planned state
// may not have taken; the actual state is re-derived from the endpoints.
func (m *Model) updateLinkState(link, newLinkState int, now sim.VTimeInSec) {
	tail, head := m.grid.LinkEnds(link)
	if !m.grid.IsCore(tail) || !m.grid.IsCore(head) {
		newLinkState = m.deriveLinkState(link)
	}

	m.linkState[link] = newLinkState
	m.scheduleLink(link, now)
}

// refreshIncidentLinks re-derives and reschedules every active link
// touching node, except the link the current event fired on. The
// previously queued events of those links go stale.
func (m *Model) refreshIncidentLinks(node, exceptLink int, now sim.VTimeInSec) {
	for _, l := range m.grid.IncidentActiveLinks(node) {
		if l == lattice.NoLink || l == exceptLink {
			continue
		}
		m.linkState[l] = m.deriveLinkState(l)
		m.scheduleLink(l, now)
	}
}

// deriveLinkState encodes a link's state from its endpoints' current
// cell states and its orientation.
func (m *Model) deriveLinkState(link int) int {
	tail, head := m.grid.LinkEnds(link)
	return m.codec.mustEncode(
		m.cellState[tail], m.cellState[head], m.grid.LinkOrientation(link))
}

// scheduleLink samples the link's next transition from its current state
// and pushes it, or parks the link at Never if the state has no way out.
func (m *Model) scheduleLink(link int, now sim.VTimeInSec) {
	state := m.linkState[link]
	if m.table.n[state] == 0 {
		m.nextUpdate[link] = Never
		return
	}
	evt := m.nextEvent(link, state, now)
	m.queue.Push(evt)
	m.nextUpdate[link] = evt.time
}

// nextEvent draws an independent exponential waiting time for every
// outgoing slot of the link's current state and keeps the earliest. One
// draw per slot, in slot order: the per-rule random stream stays stable
// no matter which rule wins.
func (m *Model) nextEvent(link, state int, now sim.VTimeInSec) *transitionEvent {
	if m.table.n[state] < 1 {
		panic("link state has no outgoing transitions")
	}

	wait := Never
	slot := 0
	for i := 0; i < m.table.n[state]; i++ {
		w := sim.VTimeInSec(m.rng.ExpFloat64() / m.table.rate[state][i])
		if w < wait {
			wait = w
			slot = i
		}
	}

	return &transitionEvent{
		time:    now + wait,
		link:    link,
		target:  m.table.to[state][slot],
		name:    m.table.name[state][slot],
		handler: m,
	}
}

// scheduleAllLinks seeds or reseeds every link's next event at the given
// time. Whatever was queued before goes stale.
func (m *Model) scheduleAllLinks(now sim.VTimeInSec) {
	for l := 0; l < m.grid.NumActiveLinks(); l++ {
		m.scheduleLink(l, now)
	}
}

// SetCellStates replaces the whole cell-state array, re-derives every
// link state, and reschedules everything at the current clock. Use it
// when external code mutates the configuration between Run calls.
func (m *Model) SetCellStates(states []int) error {
	if err := validateCellStates(states, m.grid.NumNodes(), m.codec.NumCellStates()); err != nil {
		return err
	}
	copy(m.cellState, states)
	for l := 0; l < m.grid.NumActiveLinks(); l++ {
		m.linkState[l] = m.deriveLinkState(l)
	}
	m.scheduleAllLinks(m.now)
	return nil
}

// InvalidateLinks re-derives the state of each identified link and
// reschedules it at the current clock, discarding whatever event it had
// queued. Entries equal to lattice.NoLink are skipped.
func (m *Model) InvalidateLinks(links []int) {
	for _, l := range links {
		if l == lattice.NoLink {
			continue
		}
		m.linkState[l] = m.deriveLinkState(l)
		m.scheduleLink(l, m.now)
	}
}

// CurrentTime returns the simulation clock.
func (m *Model) CurrentTime() sim.VTimeInSec { return m.now }

// CellStates returns a copy of the cell-state array.
func (m *Model) CellStates() []int {
	out := make([]int, len(m.cellState))
	copy(out, m.cellState)
	return out
}

// LinkStates returns a copy of the link-state array.
func (m *Model) LinkStates() []int {
	out := make([]int, len(m.linkState))
	copy(out, m.linkState)
	return out
}

// NextUpdateTime returns the authoritative next-update time of a link.
func (m *Model) NextUpdateTime(link int) sim.VTimeInSec {
	return m.nextUpdate[link]
}

// CellStateName returns the display name of a cell state.
func (m *Model) CellStateName(state int) string {
	if state < 0 || state >= len(m.stateNames) {
		return ""
	}
	return m.stateNames[state]
}

// TransitionName returns the label of the rule taking one link state to
// another, or the empty string when no such rule exists.
func (m *Model) TransitionName(from, to int) string {
	if from < 0 || from >= len(m.table.n) {
		return ""
	}
	for i := 0; i < m.table.n[from]; i++ {
		if m.table.to[from][i] == to {
			return m.table.name[from][i]
		}
	}
	return ""
}

// Codec returns the model's link-state codec.
func (m *Model) Codec() *Codec { return m.codec }

// Grid returns the lattice the model runs on.
func (m *Model) Grid() lattice.Grid { return m.grid }

// CellProperties returns the auxiliary per-cell property array, or nil
// if none was supplied. The engine stores it untouched.
func (m *Model) CellProperties() []float64 { return m.props }

// PropertyResetValue returns the reset value supplied with the property
// array.
func (m *Model) PropertyResetValue() float64 { return m.propReset }

// EventsApplied returns the number of transitions applied so far.
func (m *Model) EventsApplied() uint64 { return m.eventsApplied }

// StaleEventsDiscarded returns the number of queue entries skipped
// because their link had been rescheduled.
func (m *Model) StaleEventsDiscarded() uint64 { return m.staleDiscarded }

func validateCellStates(states []int, numNodes, numCellStates int) error {
	if len(states) != numNodes {
		return configErrorf("cell state array has %d entries, grid has %d nodes",
			len(states), numNodes)
	}
	for n, s := range states {
		if s < 0 || s >= numCellStates {
			return configErrorf("cell %d: state %d not in [0,%d)", n, s, numCellStates)
		}
	}
	return nil
}
