package orders

import (
	"strings"

	"github.com/seechee6/Order-Me/internal/domain"
)

// Filter narrows the vendor order board. Zero fields match everything.
type Filter struct {
	Status  domain.OrderStatus
	Address string
	Item    string
	Search  string
}

func (f Filter) Apply(list []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(list))
	for _, o := range list {
		if f.matches(o) {
			out = append(out, o)
		}
	}
	return out
}

func (f Filter) matches(o domain.Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Address != "" && o.DeliveryAddress != f.Address {
		return false
	}
	if f.Item != "" && !hasItem(o, f.Item) {
		return false
	}
	if f.Search != "" && !mentions(o, strings.ToLower(strings.TrimSpace(f.Search))) {
		return false
	}
	return true
}

func hasItem(o domain.Order, name string) bool {
	for _, it := range o.Items {
		if strings.EqualFold(it.ItemName, name) {
			return true
		}
	}
	return false
}

func mentions(o domain.Order, needle string) bool {
	fields := []string{o.ID, o.CustomerEmail, o.CustomerName, o.DeliveryAddress, o.Remark, string(o.Status)}
	for _, it := range o.Items {
		fields = append(fields, it.ItemName)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
