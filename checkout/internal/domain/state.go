package domain

import (
	"fmt"

	inErrors "github.com/talkingpet/storefront/internal/errors"
)

// State is the checkout lifecycle. The cart is cleared exactly once, on the
// transition into Paid; every other state keeps it intact so a failed or
// abandoned payment can be retried.
type State string

const (
	StateDrafting        State = "DRAFTING"
	StateOrderCreated    State = "ORDER_CREATED"
	StateAwaitingPayment State = "AWAITING_PAYMENT"
	StatePaid            State = "PAID"
	StateFailed          State = "FAILED"
)

var transitions = map[State][]State{
	StateDrafting:        {StateOrderCreated},
	StateOrderCreated:    {StateAwaitingPayment, StatePaid},
	StateAwaitingPayment: {StatePaid, StateFailed},
	StateFailed:          {StateAwaitingPayment},
	StatePaid:            {},
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns the next state or fails on an illegal move.
func (s State) Transition(to State) (State, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf(
			"cannot transition from %s to %s with error=%w",
			s, to, inErrors.ErrInvalidCheckout,
		)
	}
	return to, nil
}

func (s State) IsTerminal() bool {
	return s == StatePaid
}

func (s State) String() string {
	return string(s)
}
