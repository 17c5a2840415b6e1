package request

import (
	"github.com/talkingpet/storefront/checkout/internal/domain"
)

type Coordinate struct {
	Lat float64 `validate:"required" json:"lat"`
	Lng float64 `validate:"required" json:"lng"`
}

type Shipping struct {
	Mode             string      `validate:"omitempty,oneof=home_delivery store_pickup" json:"mode"`
	AddressReference string      `json:"address_reference"`
	Coordinate       *Coordinate `json:"coordinate"`
}

type Submit struct {
	PaymentMethod string   `validate:"required,oneof=balance card qr" json:"payment_method"`
	Shipping      Shipping `json:"shipping"`
}

func (r Submit) Method() domain.PaymentMethod {
	return domain.PaymentMethod(r.PaymentMethod)
}

func (r Submit) ShippingChoice() domain.ShippingChoice {
	choice := domain.ShippingChoice{
		Mode:             domain.ShippingMode(r.Shipping.Mode),
		AddressReference: r.Shipping.AddressReference,
	}
	if r.Shipping.Coordinate != nil {
		choice.Coordinate = &domain.Coordinate{
			Lat: r.Shipping.Coordinate.Lat,
			Lng: r.Shipping.Coordinate.Lng,
		}
	}
	return choice
}

type FailPayment struct {
	Message string `json:"message"`
}
