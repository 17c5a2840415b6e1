package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	ItemKindProduct ItemKind = "product"
	ItemKindService ItemKind = "service"
	ItemKindCourse  ItemKind = "course"
)

// ServiceDetail is the booking payload a service line carries through
// checkout. Only lines of kind service have one.
type ServiceDetail struct {
	ServiceID string `json:"service_id,omitempty"`
	Date      string `json:"date,omitempty"`
	Slot      string `json:"slot,omitempty"`
	PetName   string `json:"pet_name,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Item is the payload of an add call: a line without a quantity.
type Item struct {
	ID            string          `json:"id"`
	Kind          ItemKind        `json:"kind"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockCeiling  *int32          `json:"stock_ceiling,omitempty"`
	ServiceDetail *ServiceDetail  `json:"service_detail,omitempty"`
}

type Line struct {
	ID            string          `json:"id"`
	Kind          ItemKind        `json:"kind"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int32           `json:"quantity"`
	StockCeiling  *int32          `json:"stock_ceiling,omitempty"`
	ServiceDetail *ServiceDetail  `json:"service_detail,omitempty"`
}

// Cart keeps lines in insertion order so snapshots round-trip stably.
type Cart struct {
	Lines []Line
}

type Totals struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Label string          `json:"label"`
}

// CoerceAddQuantity normalizes a loosely-typed add quantity to a positive
// integer. Zero, negative and non-numeric input all default to 1.
func CoerceAddQuantity(v interface{}) int32 {
	quantity, ok := coerceNumeric(v)
	if !ok || quantity < 1 {
		return 1
	}
	return quantity
}

// CoerceSetQuantity normalizes a loosely-typed set-quantity value. Non-numeric
// input defaults to 1, but numeric values keep their sign: a zero or negative
// quantity is the caller asking for the line to be removed.
func CoerceSetQuantity(v interface{}) int32 {
	quantity, ok := coerceNumeric(v)
	if !ok {
		return 1
	}
	return quantity
}

func coerceNumeric(v interface{}) (int32, bool) {
	switch q := v.(type) {
	case float64:
		return int32(q), true
	case int:
		return int32(q), true
	case int32:
		return q, true
	case int64:
		return int32(q), true
	case json.Number:
		parsed, err := q.Int64()
		if err != nil {
			return 0, false
		}
		return int32(parsed), true
	default:
		return 0, false
	}
}

// Add inserts or merges a line. The effective stock ceiling is the one given
// on the item, else the one already stored on the existing line, else unknown.
// A known ceiling of zero or less makes the whole call a no-op.
func (cart *Cart) Add(item Item, quantity int32) {
	ceiling := item.StockCeiling
	existing := cart.index(item.ID)
	if ceiling == nil && existing >= 0 {
		ceiling = cart.Lines[existing].StockCeiling
	}
	if ceiling != nil && *ceiling <= 0 {
		return
	}

	if quantity < 1 {
		quantity = 1
	}

	if existing >= 0 {
		merged := cart.Lines[existing].Quantity + quantity
		if ceiling != nil && merged > *ceiling {
			merged = *ceiling
		}
		cart.Lines[existing] = Line{
			ID:            item.ID,
			Kind:          item.Kind,
			Name:          item.Name,
			Price:         item.Price,
			Quantity:      merged,
			StockCeiling:  ceiling,
			ServiceDetail: item.ServiceDetail,
		}
		return
	}

	if ceiling != nil && quantity > *ceiling {
		quantity = *ceiling
	}
	cart.Lines = append(cart.Lines, Line{
		ID:            item.ID,
		Kind:          item.Kind,
		Name:          item.Name,
		Price:         item.Price,
		Quantity:      quantity,
		StockCeiling:  ceiling,
		ServiceDetail: item.ServiceDetail,
	})
}

// SetQuantity replaces a line's quantity. An unknown id is a no-op; a line
// whose known ceiling dropped to zero or less is removed entirely; a final
// quantity of zero or less removes the line.
func (cart *Cart) SetQuantity(id string, quantity int32) {
	existing := cart.index(id)
	if existing < 0 {
		return
	}

	ceiling := cart.Lines[existing].StockCeiling
	if ceiling != nil {
		if *ceiling <= 0 {
			cart.removeAt(existing)
			return
		}
		if quantity > *ceiling {
			quantity = *ceiling
		}
	}
	if quantity <= 0 {
		cart.removeAt(existing)
		return
	}
	cart.Lines[existing].Quantity = quantity
}

func (cart *Cart) Remove(id string) {
	existing := cart.index(id)
	if existing < 0 {
		return
	}
	cart.removeAt(existing)
}

func (cart *Cart) Clear() {
	cart.Lines = nil
}

// Totals derives the cart summary: total is the sum of price times quantity,
// count is the number of distinct lines, not the sum of quantities.
func (cart *Cart) Totals() Totals {
	total := decimal.Zero
	for _, line := range cart.Lines {
		total = total.Add(line.Price.Mul(decimal.NewFromInt32(line.Quantity)))
	}
	return Totals{
		Total: total,
		Count: len(cart.Lines),
		Label: "$" + total.StringFixed(2),
	}
}

// HasKind reports whether any line is of the given kind. Checkout uses it to
// decide whether the shipping fee applies.
func (cart *Cart) HasKind(kind ItemKind) bool {
	for _, line := range cart.Lines {
		if line.Kind == kind {
			return true
		}
	}
	return false
}

func (cart *Cart) index(id string) int {
	for i, line := range cart.Lines {
		if line.ID == id {
			return i
		}
	}
	return -1
}

func (cart *Cart) removeAt(i int) {
	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
}
