package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "Pending"
	OrderStatusPreparing      OrderStatus = "Preparing"
	OrderStatusOutForDelivery OrderStatus = "Out for delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
	OrderStatusCancelled      OrderStatus = "Cancelled"
)

// advanceTable lists the only forward steps a restaurant may take by hand.
// Delivered is reached through a delivery proof, Cancelled through Cancel.
var advanceTable = map[OrderStatus]OrderStatus{
	OrderStatusPending:   OrderStatusPreparing,
	OrderStatusPreparing: OrderStatusOutForDelivery,
}

var cancellable = map[OrderStatus]bool{
	OrderStatusPending:   true,
	OrderStatusPreparing: true,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, s)
}

// Next reports the status a manual advance moves to. ok is false when the
// status has no forward step.
func (s OrderStatus) Next() (next OrderStatus, ok bool) {
	next, ok = advanceTable[s]
	return next, ok
}

func (s OrderStatus) CanCancel() bool {
	return cancellable[s]
}

type Order struct {
	ID              string          `json:"id"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerName    string          `json:"customer_name,omitempty"`
	RestaurantEmail string          `json:"restaurant_email"`
	RestaurantName  string          `json:"restaurant_name"`
	Items           []CartLine      `json:"items"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	DeliveryAddress string          `json:"delivery_address"`
	Remark          string          `json:"remark,omitempty"`
	ReceiptImage    string          `json:"receipt_image"`
	ProofImage      string          `json:"proof_image,omitempty"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at,omitzero"`
}
