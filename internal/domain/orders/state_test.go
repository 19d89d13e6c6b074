package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNextFollowsLifecycleGraph(t *testing.T) {
	cases := []struct {
		from State
		ev   Event
		want State
		ok   bool
	}{
		{StateDraft, EventValidate, StateValidated, true},
		{StateValidated, EventRequestPayment, StateAwaitingPayment, true},
		{StateAwaitingPayment, EventPaymentSucceeded, StatePaid, true},
		{StateAwaitingPayment, EventPaymentFailed, StateFailed, true},
		{StatePaid, EventStartPreparing, StatePreparing, true},
		{StatePreparing, EventMarkReady, StateReady, true},
		{StateReady, EventComplete, StateCompleted, true},
		{StateAwaitingPayment, EventCancel, StateCancelled, true},
		{StatePaid, EventCancel, "", false},
		{StateDraft, EventRequestPayment, "", false},
		{StateReady, EventFail, StateFailed, true},
		{StateCompleted, EventFail, "", false},
		{StateCancelled, EventValidate, "", false},
	}
	for _, tc := range cases {
		got, ok := Next(tc.from, tc.ev)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Next(%s, %s): want=(%s,%v) got=(%s,%v)", tc.from, tc.ev, tc.want, tc.ok, got, ok)
		}
	}
}

func TestSystemOnlyEvents(t *testing.T) {
	for _, ev := range []Event{EventPaymentSucceeded, EventPaymentFailed, EventFail} {
		if !ev.SystemOnly() {
			t.Fatalf("%s: want system-only", ev)
		}
	}
	for _, ev := range []Event{EventValidate, EventRequestPayment, EventStartPreparing, EventMarkReady, EventComplete, EventCancel} {
		if ev.SystemOnly() {
			t.Fatalf("%s: want client-submittable", ev)
		}
	}
}

func TestComputeTotals(t *testing.T) {
	got := ComputeTotals([]LineItem{
		{SKU: "burger", Quantity: 2, UnitPrice: 1050},
		{SKU: "fries", Quantity: 1, UnitPrice: 399},
	}, 2000)
	if got.Subtotal != 2499 || got.Tax != 500 || got.Total != 2999 {
		t.Fatalf("unexpected totals: %+v", got)
	}
}

func TestReplayReconstructsStateWithTimestampTies(t *testing.T) {
	orderID := uuid.New()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	trs := []OrderTransition{
		{OrderID: orderID, Version: 3, FromState: StateAwaitingPayment, ToState: StatePaid, Event: EventPaymentSucceeded, Timestamp: at.Add(time.Second)},
		{OrderID: orderID, Version: 2, FromState: StateValidated, ToState: StateAwaitingPayment, Event: EventRequestPayment, Timestamp: at},
		{OrderID: orderID, Version: 1, FromState: StateDraft, ToState: StateValidated, Event: EventValidate, Timestamp: at},
	}
	state, version, err := Replay(trs)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if state != StatePaid || version != 3 {
		t.Fatalf("Replay: want=(paid,3) got=(%s,%d)", state, version)
	}
}

func TestReplayRejectsBrokenChain(t *testing.T) {
	_, _, err := Replay([]OrderTransition{
		{Version: 1, FromState: StateValidated, ToState: StateAwaitingPayment, Event: EventRequestPayment, Timestamp: time.Now()},
	})
	if err == nil {
		t.Fatalf("expected replay error for chain not starting at draft")
	}
}
