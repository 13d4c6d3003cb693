package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/seechee6/Order-Me/internal/domain"
)

type View struct {
	Lines          []domain.CartLine `json:"lines"`
	RestaurantName string            `json:"restaurant_name,omitempty"`
	Total          decimal.Decimal   `json:"total"`
}

// Mirror is the local copy of a cart. Every snapshot replaces it wholesale;
// nothing is merged.
type Mirror struct {
	mu    sync.RWMutex
	lines []domain.CartLine
}

func (m *Mirror) Replace(lines []domain.CartLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = slices.Clone(lines)
}

func (m *Mirror) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := View{
		Lines: slices.Clone(m.lines),
		Total: Total(m.lines),
	}
	if v.Lines == nil {
		v.Lines = []domain.CartLine{}
	}
	if len(m.lines) > 0 {
		v.RestaurantName = m.lines[0].RestaurantName
	}
	return v
}
