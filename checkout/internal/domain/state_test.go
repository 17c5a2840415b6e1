package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	inErrors "github.com/talkingpet/storefront/internal/errors"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		name        string
		from        State
		to          State
		expectedErr error
	}{
		{name: "given drafting should allow order created", from: StateDrafting, to: StateOrderCreated},
		{name: "given order created should allow awaiting payment", from: StateOrderCreated, to: StateAwaitingPayment},
		{name: "given order created should allow paid for balance payments", from: StateOrderCreated, to: StatePaid},
		{name: "given awaiting payment should allow paid", from: StateAwaitingPayment, to: StatePaid},
		{name: "given awaiting payment should allow failed", from: StateAwaitingPayment, to: StateFailed},
		{name: "given failed should allow retry into awaiting payment", from: StateFailed, to: StateAwaitingPayment},
		{name: "given drafting should reject paid", from: StateDrafting, to: StatePaid, expectedErr: inErrors.ErrInvalidCheckout},
		{name: "given paid should reject any transition", from: StatePaid, to: StateAwaitingPayment, expectedErr: inErrors.ErrInvalidCheckout},
		{name: "given failed should reject paid without retry", from: StateFailed, to: StatePaid, expectedErr: inErrors.ErrInvalidCheckout},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			next, err := test.from.Transition(test.to)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				assert.Equal(t, test.from, next, "state must not move on an illegal transition")
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.to, next)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatePaid.IsTerminal())
	assert.False(t, StateFailed.IsTerminal(), "failed payments may be retried")
	assert.False(t, StateAwaitingPayment.IsTerminal())
}
