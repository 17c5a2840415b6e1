package response

import (
	"github.com/shopspring/decimal"

	"github.com/talkingpet/storefront/checkout/internal/domain"
)

type Quote struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	Total            decimal.Decimal `json:"total"`
	ShippingRequired bool            `json:"shipping_required"`
}

type Checkout struct {
	State          string   `json:"state"`
	OrderID        string   `json:"order_id,omitempty"`
	PaymentMethod  string   `json:"payment_method,omitempty"`
	FailureMessage string   `json:"failure_message,omitempty"`
	RedirectTo     string   `json:"redirect_to,omitempty"`
	CourseIDs      []string `json:"course_ids,omitempty"`
}

func FromCheckout(checkout domain.Checkout) Checkout {
	return Checkout{
		State:          checkout.State.String(),
		OrderID:        checkout.OrderID,
		PaymentMethod:  string(checkout.PaymentMethod),
		FailureMessage: checkout.FailureMessage,
		CourseIDs:      checkout.PendingCourseIDs,
	}
}
