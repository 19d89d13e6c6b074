package orders

// State is a position in the order lifecycle.
type State string

const (
	StateDraft           State = "draft"
	StateValidated       State = "validated"
	StateAwaitingPayment State = "awaiting_payment"
	StatePaid            State = "paid"
	StatePreparing       State = "preparing"
	StateReady           State = "ready"
	StateCompleted       State = "completed"
	StateCancelled       State = "cancelled"
	StateFailed          State = "failed"
)

// Event is a lifecycle command applied to an order.
type Event string

const (
	EventValidate         Event = "validate"
	EventRequestPayment   Event = "request_payment"
	EventPaymentSucceeded Event = "payment_succeeded"
	EventPaymentFailed    Event = "payment_failed"
	EventStartPreparing   Event = "start_preparing"
	EventMarkReady        Event = "mark_ready"
	EventComplete         Event = "complete"
	EventCancel           Event = "cancel"
	EventFail             Event = "fail"
)

var edges = map[Event]map[State]State{
	EventValidate:         {StateDraft: StateValidated},
	EventRequestPayment:   {StateValidated: StateAwaitingPayment},
	EventPaymentSucceeded: {StateAwaitingPayment: StatePaid},
	EventPaymentFailed:    {StateAwaitingPayment: StateFailed},
	EventStartPreparing:   {StatePaid: StatePreparing},
	EventMarkReady:        {StatePreparing: StateReady},
	EventComplete:         {StateReady: StateCompleted},
	EventCancel: {
		StateDraft:           StateCancelled,
		StateValidated:       StateCancelled,
		StateAwaitingPayment: StateCancelled,
	},
}

// IsTerminal reports whether no further transition can leave s.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

// Valid reports whether s is a known lifecycle state.
func (s State) Valid() bool {
	switch s {
	case StateDraft, StateValidated, StateAwaitingPayment, StatePaid, StatePreparing,
		StateReady, StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}

// Valid reports whether e is a known lifecycle event.
func (e Event) Valid() bool {
	if e == EventFail {
		return true
	}
	_, ok := edges[e]
	return ok
}

// SystemOnly reports whether e may only be committed by payment settlement
// or internal failure handling, never submitted by a client.
func (e Event) SystemOnly() bool {
	switch e {
	case EventPaymentSucceeded, EventPaymentFailed, EventFail:
		return true
	}
	return false
}

// Next resolves the target state for applying ev in from.
// fail is allowed from every non-terminal state.
func Next(from State, ev Event) (State, bool) {
	if ev == EventFail {
		if from.Valid() && !from.IsTerminal() {
			return StateFailed, true
		}
		return "", false
	}
	byState, ok := edges[ev]
	if !ok {
		return "", false
	}
	to, ok := byState[from]
	return to, ok
}
