package request

import (
	"github.com/shopspring/decimal"

	domain "github.com/talkingpet/storefront/internal/cart"
)

type AddItem struct {
	ID   string `validate:"required"                                json:"id"`
	Kind string `validate:"required,oneof=product service course"   json:"kind"`
	Name string `validate:"required"                                json:"name"`
	// Quantity is loosely typed on purpose: the caller may send a number, a
	// string or nothing at all, and invalid input defaults to one.
	Quantity      interface{}           `json:"quantity"`
	Price         decimal.Decimal       `validate:"required" json:"price"`
	StockCeiling  *int32                `json:"stock_ceiling"`
	ServiceDetail *domain.ServiceDetail `json:"service_detail"`
}

func (r AddItem) Item() domain.Item {
	return domain.Item{
		ID:            r.ID,
		Kind:          domain.ItemKind(r.Kind),
		Name:          r.Name,
		Price:         r.Price,
		StockCeiling:  r.StockCeiling,
		ServiceDetail: r.ServiceDetail,
	}
}

type SetQuantity struct {
	Quantity interface{} `json:"quantity"`
}
