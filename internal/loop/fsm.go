package loop

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State names of the refinement machine.
const (
	StateReviewing  = "reviewing"
	StateDeciding   = "deciding"
	StateRevising   = "revising"
	StateExited     = "exited"
	StateCapReached = "cap_reached"
	StateCancelled  = "cancelled"
)

const (
	eventReviewed = "reviewed"
	eventAccept   = "accept"
	eventRevise   = "revise"
	eventCap      = "cap"
	eventRevised  = "revised"
	eventCancel   = "cancel"
)

// runState is the machine context. Guards read it through the pointer, so
// they always see the current counter and decision.
type runState struct {
	maxIterations int
	iterations    int
	reviews       int
	shouldExit    bool
}

type machine struct {
	interpreter *statekit.Interpreter[*runState]
}

func newMachine(run *runState) (*machine, error) {
	builder := statekit.NewMachine[*runState]("refinement-loop").
		WithInitial(statekit.StateID(StateReviewing)).
		WithContext(run).
		WithGuard("accepted", func(r *runState, _ statekit.Event) bool {
			return r.shouldExit
		}).
		WithGuard("underCap", func(r *runState, _ statekit.Event) bool {
			return !r.shouldExit && r.iterations < r.maxIterations
		}).
		WithGuard("revisionsLeft", func(r *runState, _ statekit.Event) bool {
			return r.iterations < r.maxIterations
		}).
		WithGuard("revisionsSpent", func(r *runState, _ statekit.Event) bool {
			return r.iterations >= r.maxIterations
		})

	builder.State(StateReviewing).
		On(eventReviewed).Target(StateDeciding).
		On(eventCancel).Target(StateCancelled).
		Done()

	builder.State(StateDeciding).
		On(eventAccept).Target(StateExited).Guard("accepted").
		On(eventRevise).Target(StateRevising).Guard("underCap").
		On(eventCancel).Target(StateCancelled).
		Done()

	// The revision that spends the cap is not reviewed again.
	builder.State(StateRevising).
		On(eventRevised).Target(StateReviewing).Guard("revisionsLeft").
		On(eventCap).Target(StateCapReached).Guard("revisionsSpent").
		On(eventCancel).Target(StateCancelled).
		Done()

	builder.State(StateExited).Done()
	builder.State(StateCapReached).Done()
	builder.State(StateCancelled).Done()

	m, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build refinement machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(m)
	interpreter.Start()
	return &machine{interpreter: interpreter}, nil
}

func (m *machine) current() string {
	return string(m.interpreter.State().Value)
}

// send fires event and reports an error when no transition was taken.
func (m *machine) send(event string) error {
	before := m.current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if m.current() == before {
		return fmt.Errorf("event %q rejected in state %q", event, before)
	}
	return nil
}

// decide fires accept or revise, whichever guard passes.
func (m *machine) decide() error {
	return m.first(eventAccept, eventRevise)
}

// afterRevision returns to reviewing, or stops once the cap is spent.
func (m *machine) afterRevision() error {
	return m.first(eventRevised, eventCap)
}

func (m *machine) first(events ...string) error {
	for _, event := range events {
		if err := m.send(event); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no transition for %v from state %q", events, m.current())
}

func terminal(state string) bool {
	return state == StateExited || state == StateCapReached || state == StateCancelled
}
