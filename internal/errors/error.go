package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyAuth        = errors.New("missing authorization")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrRoleForbidden    = errors.New("role is not allowed to access this resource")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrAddressRequired  = errors.New("home delivery requires an address and a map coordinate")
	ErrInvalidCheckout  = errors.New("invalid checkout state transition")
	ErrNoPendingPayment = errors.New("no payment is awaiting confirmation")
	ErrUpstream         = errors.New("upstream request failed")
)

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
