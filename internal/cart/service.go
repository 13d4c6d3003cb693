package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

// Collection holds one document per cart line.
const Collection = "carts"

type addOptions struct {
	replace bool
}

type AddOption func(*addOptions)

// WithReplace confirms that a cart holding another restaurant's items may
// be cleared to make room for the new one.
func WithReplace() AddOption {
	return func(o *addOptions) {
		o.replace = true
	}
}

// Availability reports whether a restaurant is currently taking orders.
type Availability interface {
	IsOpen(ctx context.Context, restaurantName string) (bool, error)
}

type Service struct {
	store     docstore.Store
	available Availability
	logger    *slog.Logger
}

type Option func(*Service)

// WithAvailability refuses items from restaurants that are closed.
func WithAvailability(a Availability) Option {
	return func(s *Service) {
		s.available = a
	}
}

func NewService(store docstore.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureOpen fails with a validation error when the restaurant is closed.
func (s *Service) EnsureOpen(ctx context.Context, restaurantName string) error {
	if s.available == nil {
		return nil
	}
	open, err := s.available.IsOpen(ctx, restaurantName)
	if err != nil {
		return err
	}
	if !open {
		return domain.Validation(fmt.Sprintf("%s is not taking orders", restaurantName))
	}
	return nil
}

func setLineID(l *domain.CartLine, d docstore.Document) { l.ID = d.ID }

func ownerQuery(owner string) docstore.Query {
	return docstore.Collection(Collection).Where(docstore.Eq("owner_email", owner))
}

func (s *Service) Lines(ctx context.Context, owner string) ([]domain.CartLine, error) {
	docs, err := s.store.Query(ctx, ownerQuery(owner))
	if err != nil {
		return nil, domain.Persistence("list cart", err)
	}
	lines, err := docstore.DecodeAll(docs, setLineID)
	if err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return lines, nil
}

func (s *Service) AddItem(ctx context.Context, owner string, item domain.MenuItem, quantity int, opts ...AddOption) (domain.CartLine, error) {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	if quantity <= 0 {
		return domain.CartLine{}, domain.Validation("quantity must be positive")
	}
	if err := s.EnsureOpen(ctx, item.RestaurantName); err != nil {
		return domain.CartLine{}, err
	}

	lines, err := s.Lines(ctx, owner)
	if err != nil {
		return domain.CartLine{}, err
	}

	for _, l := range lines {
		if l.RestaurantName == item.RestaurantName {
			continue
		}
		if !o.replace {
			return domain.CartLine{}, &domain.RestaurantConflictError{Current: l.RestaurantName, Requested: item.RestaurantName}
		}
		if err := s.Clear(ctx, owner); err != nil {
			return domain.CartLine{}, err
		}
		s.logger.Info("cart cleared for restaurant switch", "owner", owner, "from", l.RestaurantName, "to", item.RestaurantName)
		lines = nil
		break
	}

	for _, l := range lines {
		if l.ItemName != item.Name {
			continue
		}
		l.Quantity += quantity
		l.TotalPrice = domain.LineTotal(l.UnitPrice, l.Quantity)
		err := s.store.Update(ctx, Collection, l.ID, map[string]any{
			"quantity":    l.Quantity,
			"total_price": l.TotalPrice,
		})
		if err != nil {
			return domain.CartLine{}, domain.Persistence("merge cart line", err)
		}
		return l, nil
	}

	line := domain.CartLine{
		RestaurantName:  item.RestaurantName,
		RestaurantEmail: item.Email,
		ItemName:        item.Name,
		UnitPrice:       item.Price,
		Quantity:        quantity,
		TotalPrice:      domain.LineTotal(item.Price, quantity),
		ImageURL:        item.ImageURL,
		OwnerEmail:      owner,
	}
	doc, err := s.store.Add(ctx, Collection, line)
	if err != nil {
		return domain.CartLine{}, domain.Persistence("add cart line", err)
	}
	line.ID = doc.ID
	return line, nil
}

// SetQuantity clamps negative quantities to zero. A zero line stays in the
// cart until removed.
func (s *Service) SetQuantity(ctx context.Context, owner, lineID string, quantity int) (domain.CartLine, error) {
	quantity = max(quantity, 0)

	line, err := s.line(ctx, owner, lineID)
	if err != nil {
		return domain.CartLine{}, err
	}
	if line == nil {
		return domain.CartLine{}, fmt.Errorf("cart line %s: %w", lineID, domain.ErrNotFound)
	}

	line.Quantity = quantity
	line.TotalPrice = domain.LineTotal(line.UnitPrice, quantity)
	err = s.store.Update(ctx, Collection, lineID, map[string]any{
		"quantity":    line.Quantity,
		"total_price": line.TotalPrice,
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.CartLine{}, fmt.Errorf("cart line %s: %w", lineID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.CartLine{}, domain.Persistence("update cart line", err)
	}
	return *line, nil
}

func (s *Service) Remove(ctx context.Context, owner, lineID string) error {
	line, err := s.line(ctx, owner, lineID)
	if err != nil {
		return err
	}
	if line == nil {
		return nil
	}
	if err := s.store.Delete(ctx, Collection, lineID); err != nil {
		return domain.Persistence("remove cart line", err)
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, owner string) error {
	lines, err := s.Lines(ctx, owner)
	if err != nil {
		return err
	}
	for _, l := range lines {
		if err := s.store.Delete(ctx, Collection, l.ID); err != nil {
			return domain.Persistence("clear cart", err)
		}
	}
	return nil
}

// Subscribe feeds fn a reconciled view of the owner's cart every time the
// store delivers a snapshot.
func (s *Service) Subscribe(ctx context.Context, owner string, fn func(View)) (docstore.Unsubscribe, error) {
	mirror := &Mirror{}
	unsubscribe, err := s.store.Subscribe(ctx, ownerQuery(owner), func(docs []docstore.Document) {
		lines, err := docstore.DecodeAll(docs, setLineID)
		if err != nil {
			s.logger.Error("failed to decode cart snapshot", "error", err, "owner", owner)
			return
		}
		mirror.Replace(lines)
		fn(mirror.View())
	})
	if err != nil {
		return nil, domain.Persistence("subscribe cart", err)
	}
	return unsubscribe, nil
}

// line returns nil when the line is absent or belongs to someone else.
func (s *Service) line(ctx context.Context, owner, lineID string) (*domain.CartLine, error) {
	doc, err := s.store.Get(ctx, Collection, lineID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Persistence("load cart line", err)
	}

	var line domain.CartLine
	if err := doc.Decode(&line); err != nil {
		return nil, fmt.Errorf("decode cart line: %w", err)
	}
	line.ID = doc.ID
	if line.OwnerEmail != owner {
		return nil, nil
	}
	return &line, nil
}

func Total(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
