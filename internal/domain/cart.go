package domain

import "github.com/shopspring/decimal"

type CartLine struct {
	ID              string          `json:"id"`
	RestaurantName  string          `json:"restaurant_name"`
	RestaurantEmail string          `json:"restaurant_email"`
	ItemName        string          `json:"item_name"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	ImageURL        string          `json:"image_url,omitempty"`
	OwnerEmail      string          `json:"owner_email"`
}

// LineTotal is unitPrice × quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}
