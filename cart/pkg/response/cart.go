package response

import (
	domain "github.com/talkingpet/storefront/internal/cart"
)

type Cart struct {
	Lines  []domain.Line `json:"lines"`
	Totals domain.Totals `json:"totals"`
}

func FromCart(cart domain.Cart) Cart {
	lines := cart.Lines
	if lines == nil {
		lines = []domain.Line{}
	}
	return Cart{Lines: lines, Totals: cart.Totals()}
}
