package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talkingpet/storefront/internal/cart"
	inErrors "github.com/talkingpet/storefront/internal/errors"
)

type PaymentMethod string

const (
	PayWithBalance PaymentMethod = "balance"
	PayWithCard    PaymentMethod = "card"
	PayWithQr      PaymentMethod = "qr"
)

type ShippingMode string

const (
	ShipHomeDelivery ShippingMode = "home_delivery"
	ShipStorePickup  ShippingMode = "store_pickup"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ShippingChoice is only consulted when the cart holds at least one product
// line. Service and course lines need no delivery.
type ShippingChoice struct {
	Mode             ShippingMode `json:"mode"`
	AddressReference string       `json:"address_reference"`
	Coordinate       *Coordinate  `json:"coordinate,omitempty"`
}

type OrderItem struct {
	ItemID        string              `json:"item_id"`
	Kind          cart.ItemKind       `json:"kind"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	Quantity      int32               `json:"quantity"`
	ServiceDetail *cart.ServiceDetail `json:"service_detail,omitempty"`
}

type Order struct {
	Items         []OrderItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ShippingFee   decimal.Decimal `json:"shipping_fee"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Shipping      *ShippingChoice `json:"shipping,omitempty"`
}

// BuildOrder normalizes a cart snapshot into the order payload the core API
// accepts. The shipping fee applies only when a product line is present; home
// delivery then needs both an address reference and a map coordinate, store
// pickup needs neither.
func BuildOrder(
	snapshot cart.Cart,
	method PaymentMethod,
	shipping ShippingChoice,
	shippingFee decimal.Decimal,
) (Order, error) {
	if len(snapshot.Lines) == 0 {
		return Order{}, inErrors.ErrEmptyCart
	}

	order := Order{
		Items:         make([]OrderItem, 0, len(snapshot.Lines)),
		ShippingFee:   decimal.Zero,
		PaymentMethod: method,
	}
	for _, line := range snapshot.Lines {
		order.Items = append(order.Items, OrderItem{
			ItemID:        line.ID,
			Kind:          line.Kind,
			Name:          line.Name,
			Price:         line.Price,
			Quantity:      line.Quantity,
			ServiceDetail: line.ServiceDetail,
		})
		order.Subtotal = order.Subtotal.Add(line.Price.Mul(decimal.NewFromInt32(line.Quantity)))
	}

	if snapshot.HasKind(cart.ItemKindProduct) {
		switch shipping.Mode {
		case ShipHomeDelivery:
			if shipping.AddressReference == "" || shipping.Coordinate == nil {
				return Order{}, inErrors.ErrAddressRequired
			}
		case ShipStorePickup:
		default:
			return Order{}, fmt.Errorf(
				"unknown shipping mode %q with error=%w",
				shipping.Mode, inErrors.ErrInvalidCheckout,
			)
		}
		order.ShippingFee = shippingFee
		order.Shipping = &shipping
	}

	order.Total = order.Subtotal.Add(order.ShippingFee)
	return order, nil
}

// CourseIDs lists the course lines of a snapshot; those get enrolled once the
// order is paid.
func CourseIDs(snapshot cart.Cart) []string {
	ids := []string{}
	for _, line := range snapshot.Lines {
		if line.Kind == cart.ItemKindCourse {
			ids = append(ids, line.ID)
		}
	}
	return ids
}

// Checkout is the per-identity wizard record persisted between the order
// submission and the payment outcome.
type Checkout struct {
	State            State         `json:"state"`
	OrderID          string        `json:"order_id"`
	PaymentMethod    PaymentMethod `json:"payment_method"`
	PendingCourseIDs []string      `json:"pending_course_ids,omitempty"`
	FailureMessage   string        `json:"failure_message,omitempty"`
}
