package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/seechee6/Order-Me/internal/cart"
	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

const Collection = "orders"

type AddressBook interface {
	Profile(ctx context.Context, uid string) (domain.Profile, error)
}

type OwnerLookup interface {
	OwnerEmail(ctx context.Context, restaurantName string) (string, error)
}

type Service struct {
	store       docstore.Store
	cart        *cart.Service
	addresses   AddressBook
	owners      OwnerLookup
	logger      *slog.Logger
	checkouts   metric.Int64Counter
	transitions metric.Int64Counter
}

func NewService(store docstore.Store, carts *cart.Service, addresses AddressBook, owners OwnerLookup, logger *slog.Logger) (*Service, error) {
	meter := otel.Meter("orders")

	checkouts, err := meter.Int64Counter("orders.checkouts",
		metric.WithDescription("Orders placed from a cart"))
	if err != nil {
		return nil, fmt.Errorf("create checkouts counter: %w", err)
	}

	transitions, err := meter.Int64Counter("orders.status_transitions",
		metric.WithDescription("Order status changes by target status"))
	if err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}

	return &Service{
		store:       store,
		cart:        carts,
		addresses:   addresses,
		owners:      owners,
		logger:      logger,
		checkouts:   checkouts,
		transitions: transitions,
	}, nil
}

func decodeOrder(doc docstore.Document) (domain.Order, error) {
	var o domain.Order
	if err := doc.Decode(&o); err != nil {
		return domain.Order{}, fmt.Errorf("decode order: %w", err)
	}
	o.ID = doc.ID
	o.CreatedAt = doc.CreateTime
	return o, nil
}

func decodeOrders(docs []docstore.Document) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := decodeOrder(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func newestFirst(list []domain.Order) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

type CheckoutRequest struct {
	CustomerUID   string
	CustomerEmail string
	CustomerName  string
	Address       string
	Remark        string
	ReceiptImage  string
}

// Checkout turns the customer's cart into a Pending order and then empties
// the cart. The two writes are independent: if clearing fails the order
// stands and is returned together with the error.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	if strings.TrimSpace(req.ReceiptImage) == "" {
		return nil, domain.Validation("receipt image is required")
	}

	lines, err := s.cart.Lines(ctx, req.CustomerEmail)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.Validation("cart is empty")
	}

	if err := s.cart.EnsureOpen(ctx, lines[0].RestaurantName); err != nil {
		return nil, err
	}

	address, name, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	if address == "" {
		return nil, domain.Validation("no delivery address")
	}

	restaurantEmail := lines[0].RestaurantEmail
	if restaurantEmail == "" && s.owners != nil {
		restaurantEmail, err = s.owners.OwnerEmail(ctx, lines[0].RestaurantName)
		if err != nil {
			return nil, err
		}
	}

	order := domain.Order{
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    name,
		RestaurantEmail: restaurantEmail,
		RestaurantName:  lines[0].RestaurantName,
		Items:           slices.Clone(lines),
		TotalPrice:      cart.Total(lines),
		DeliveryAddress: address,
		Remark:          strings.TrimSpace(req.Remark),
		ReceiptImage:    req.ReceiptImage,
		Status:          domain.OrderStatusPending,
	}

	doc, err := s.store.Add(ctx, Collection, order)
	if err != nil {
		return nil, domain.Persistence("create order", err)
	}
	order.ID = doc.ID
	order.CreatedAt = doc.CreateTime

	s.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("restaurant", order.RestaurantName)))
	s.logger.Info("order placed", "order_id", order.ID, "customer", order.CustomerEmail, "restaurant", order.RestaurantName)

	if err := s.cart.Clear(ctx, req.CustomerEmail); err != nil {
		s.logger.Error("order placed but cart not cleared", "error", err, "order_id", order.ID)
		return &order, fmt.Errorf("order %s placed, clear cart: %w", order.ID, err)
	}

	return &order, nil
}

func (s *Service) resolveCustomer(ctx context.Context, req CheckoutRequest) (address, name string, err error) {
	address = strings.TrimSpace(req.Address)
	name = req.CustomerName

	if s.addresses == nil || req.CustomerUID == "" {
		return address, name, nil
	}

	p, err := s.addresses.Profile(ctx, req.CustomerUID)
	if errors.Is(err, domain.ErrNotFound) {
		return address, name, nil
	}
	if err != nil {
		return "", "", err
	}

	if address == "" {
		address, _ = p.PrimaryAddress()
	}
	if name == "" {
		name = p.Username
	}
	return address, name, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	doc, err := s.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, domain.Persistence("load order", err)
	}

	o, err := decodeOrder(doc)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetFor returns the order only to its customer or its restaurant.
func (s *Service) GetFor(ctx context.Context, email, id string) (*domain.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerEmail != email && o.RestaurantEmail != email {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return o, nil
}

func (s *Service) owned(ctx context.Context, restaurantEmail, id string) (*domain.Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.RestaurantEmail != restaurantEmail {
		return nil, fmt.Errorf("%w: order %s belongs to another restaurant", domain.ErrAuth, id)
	}
	return o, nil
}

// settled orders are left alone by bulk delivery proofs.
func settled(status domain.OrderStatus) bool {
	return status == domain.OrderStatusDelivered || status == domain.OrderStatusCancelled
}

func (s *Service) setStatus(ctx context.Context, o *domain.Order, status domain.OrderStatus, extra map[string]any) error {
	fields := map[string]any{"status": status}
	for k, v := range extra {
		fields[k] = v
	}

	if err := s.store.Update(ctx, Collection, o.ID, fields); err != nil {
		return domain.Persistence("update order status", err)
	}

	if o.Status != status {
		s.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(status))))
		s.logger.Info("order status updated", "order_id", o.ID, "from", o.Status, "to", status)
	}
	o.Status = status
	return nil
}

// Advance moves the order one step along Pending → Preparing → Out for
// delivery. Any other state is left as is.
func (s *Service) Advance(ctx context.Context, restaurantEmail, id string) (*domain.Order, error) {
	o, err := s.owned(ctx, restaurantEmail, id)
	if err != nil {
		return nil, err
	}

	next, ok := o.Status.Next()
	if !ok {
		return o, nil
	}
	if err := s.setStatus(ctx, o, next, nil); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Cancel(ctx context.Context, restaurantEmail, id string) (*domain.Order, error) {
	o, err := s.owned(ctx, restaurantEmail, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanCancel() {
		return o, nil
	}
	if err := s.setStatus(ctx, o, domain.OrderStatusCancelled, nil); err != nil {
		return nil, err
	}
	return o, nil
}

// AttachDeliveryProof marks the order Delivered whatever its status. With
// bulk set, every other order for the same drop-off address gets the same
// proof.
func (s *Service) AttachDeliveryProof(ctx context.Context, restaurantEmail, id, image string, bulk bool) ([]domain.Order, error) {
	if strings.TrimSpace(image) == "" {
		return nil, domain.Validation("delivery proof image is required")
	}

	o, err := s.owned(ctx, restaurantEmail, id)
	if err != nil {
		return nil, err
	}

	targets := []*domain.Order{o}
	if bulk {
		docs, err := s.store.Query(ctx, docstore.Collection(Collection).Where(
			docstore.Eq("restaurant_email", o.RestaurantEmail),
			docstore.Eq("delivery_address", o.DeliveryAddress),
		))
		if err != nil {
			return nil, domain.Persistence("list orders by address", err)
		}
		shared, err := decodeOrders(docs)
		if err != nil {
			return nil, err
		}
		for i := range shared {
			if shared[i].ID == o.ID || settled(shared[i].Status) {
				continue
			}
			targets = append(targets, &shared[i])
		}
	}

	updated := make([]domain.Order, 0, len(targets))
	for _, t := range targets {
		if err := s.setStatus(ctx, t, domain.OrderStatusDelivered, map[string]any{"proof_image": image}); err != nil {
			return updated, err
		}
		t.ProofImage = image
		updated = append(updated, *t)
	}
	return updated, nil
}

func customerQuery(email string, status domain.OrderStatus) docstore.Query {
	q := docstore.Collection(Collection).Where(docstore.Eq("customer_email", email))
	if status != "" {
		q = q.Where(docstore.Eq("status", status))
	}
	return q
}

func restaurantQuery(email string, status domain.OrderStatus) docstore.Query {
	q := docstore.Collection(Collection).Where(docstore.Eq("restaurant_email", email))
	if status != "" {
		q = q.Where(docstore.Eq("status", status))
	}
	return q
}

func (s *Service) list(ctx context.Context, q docstore.Query) ([]domain.Order, error) {
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, domain.Persistence("list orders", err)
	}
	list, err := decodeOrders(docs)
	if err != nil {
		return nil, err
	}
	newestFirst(list)
	return list, nil
}

// ListForCustomer returns the customer's orders, newest first. An empty
// status matches all.
func (s *Service) ListForCustomer(ctx context.Context, email string, status domain.OrderStatus) ([]domain.Order, error) {
	return s.list(ctx, customerQuery(email, status))
}

func (s *Service) History(ctx context.Context, email string) ([]domain.Order, error) {
	return s.ListForCustomer(ctx, email, domain.OrderStatusDelivered)
}

func (s *Service) ListForRestaurant(ctx context.Context, restaurantEmail string, f Filter) ([]domain.Order, error) {
	list, err := s.list(ctx, restaurantQuery(restaurantEmail, f.Status))
	if err != nil {
		return nil, err
	}
	return f.Apply(list), nil
}

func (s *Service) subscribe(ctx context.Context, q docstore.Query, f Filter, fn func([]domain.Order)) (docstore.Unsubscribe, error) {
	unsubscribe, err := s.store.Subscribe(ctx, q, func(docs []docstore.Document) {
		list, err := decodeOrders(docs)
		if err != nil {
			s.logger.Error("failed to decode order snapshot", "error", err)
			return
		}
		newestFirst(list)
		fn(f.Apply(list))
	})
	if err != nil {
		return nil, domain.Persistence("subscribe orders", err)
	}
	return unsubscribe, nil
}

func (s *Service) SubscribeCustomer(ctx context.Context, email string, status domain.OrderStatus, fn func([]domain.Order)) (docstore.Unsubscribe, error) {
	return s.subscribe(ctx, customerQuery(email, status), Filter{}, fn)
}

func (s *Service) SubscribeRestaurant(ctx context.Context, restaurantEmail string, f Filter, fn func([]domain.Order)) (docstore.Unsubscribe, error) {
	return s.subscribe(ctx, restaurantQuery(restaurantEmail, f.Status), f, fn)
}

// BuyAgain puts a delivered order's items back into the customer's cart.
// A replace option applies once, before the first item goes in.
func (s *Service) BuyAgain(ctx context.Context, customerEmail, id string, opts ...cart.AddOption) ([]domain.CartLine, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerEmail != customerEmail {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if o.Status != domain.OrderStatusDelivered {
		return nil, domain.Validation("only delivered orders can be ordered again")
	}

	lines := make([]domain.CartLine, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			continue
		}
		line, err := s.cart.AddItem(ctx, customerEmail, domain.MenuItem{
			RestaurantName: item.RestaurantName,
			Email:          item.RestaurantEmail,
			Name:           item.ItemName,
			Price:          item.UnitPrice,
			ImageURL:       item.ImageURL,
		}, item.Quantity, opts...)
		if err != nil {
			return lines, err
		}
		opts = nil
		lines = append(lines, line)
	}

	s.logger.Info("order added to cart again", "order_id", id, "customer", customerEmail, "lines", len(lines))
	return lines, nil
}
