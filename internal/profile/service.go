package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

const Collection = "users"

type Service struct {
	store docstore.Store

	mu       sync.Mutex
	watchers map[int]func(domain.Profile)
	nextID   int
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store, watchers: make(map[int]func(domain.Profile))}
}

// OnUpdate registers fn for every profile written through the service. fn
// runs before the write returns. The returned function removes it.
func (s *Service) OnUpdate(fn func(domain.Profile)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Service) changed(p domain.Profile) {
	s.mu.Lock()
	fns := make([]func(domain.Profile), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

func FromDocument(doc docstore.Document) (domain.Profile, error) {
	var p domain.Profile
	if err := doc.Decode(&p); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	p.UID = doc.ID
	return p, nil
}

func (s *Service) Create(ctx context.Context, p domain.Profile) error {
	if _, err := s.store.Set(ctx, Collection, p.UID, p); err != nil {
		return domain.Persistence("create profile", err)
	}
	s.changed(p)
	return nil
}

func (s *Service) Get(ctx context.Context, uid string) (domain.Profile, error) {
	doc, err := s.store.Get(ctx, Collection, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", uid, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Profile{}, domain.Persistence("load profile", err)
	}
	return FromDocument(doc)
}

// Profile satisfies the address lookups other services depend on.
func (s *Service) Profile(ctx context.Context, uid string) (domain.Profile, error) {
	return s.Get(ctx, uid)
}

func (s *Service) UpdateDetails(ctx context.Context, uid, username, phone string) (domain.Profile, error) {
	return s.update(ctx, uid, map[string]any{
		"username":     strings.TrimSpace(username),
		"phone_number": strings.TrimSpace(phone),
	})
}

func (s *Service) AddAddress(ctx context.Context, uid, address string) (domain.Profile, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Profile{}, domain.Validation("address is required")
	}

	p, err := s.Get(ctx, uid)
	if err != nil {
		return domain.Profile{}, err
	}
	return s.update(ctx, uid, map[string]any{"addresses": AddAddress(p.Addresses, address)})
}

func (s *Service) SetPrimary(ctx context.Context, uid string, index int) (domain.Profile, error) {
	p, err := s.Get(ctx, uid)
	if err != nil {
		return domain.Profile{}, err
	}
	addrs, err := SetPrimary(p.Addresses, index)
	if err != nil {
		return domain.Profile{}, err
	}
	return s.update(ctx, uid, map[string]any{"addresses": addrs})
}

func (s *Service) RemoveAddress(ctx context.Context, uid string, index int) (domain.Profile, error) {
	p, err := s.Get(ctx, uid)
	if err != nil {
		return domain.Profile{}, err
	}
	addrs, err := RemoveAddress(p.Addresses, index)
	if err != nil {
		return domain.Profile{}, err
	}
	return s.update(ctx, uid, map[string]any{"addresses": addrs})
}

func (s *Service) update(ctx context.Context, uid string, fields map[string]any) (domain.Profile, error) {
	err := s.store.Update(ctx, Collection, uid, fields)
	if errors.Is(err, docstore.ErrNotFound) {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", uid, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Profile{}, domain.Persistence("update profile", err)
	}

	p, err := s.Get(ctx, uid)
	if err != nil {
		return domain.Profile{}, err
	}
	s.changed(p)
	return p, nil
}

// AddAddress appends a non-primary address, unless it is the first.
func AddAddress(addrs []domain.Address, address string) []domain.Address {
	out := append([]domain.Address{}, addrs...)
	return append(out, domain.Address{Address: address, Primary: len(addrs) == 0})
}

// SetPrimary leaves exactly one address flagged primary.
func SetPrimary(addrs []domain.Address, index int) ([]domain.Address, error) {
	if index < 0 || index >= len(addrs) {
		return nil, fmt.Errorf("address %d: %w", index, domain.ErrNotFound)
	}
	out := make([]domain.Address, len(addrs))
	for i, a := range addrs {
		out[i] = domain.Address{Address: a.Address, Primary: i == index}
	}
	return out, nil
}

// RemoveAddress promotes the first remaining address when the primary one
// is removed.
func RemoveAddress(addrs []domain.Address, index int) ([]domain.Address, error) {
	if index < 0 || index >= len(addrs) {
		return nil, fmt.Errorf("address %d: %w", index, domain.ErrNotFound)
	}
	removedPrimary := addrs[index].Primary

	out := make([]domain.Address, 0, len(addrs)-1)
	out = append(out, addrs[:index]...)
	out = append(out, addrs[index+1:]...)

	if removedPrimary && len(out) > 0 {
		out[0].Primary = true
	}
	return out, nil
}

// SetWishlist overwrites the saved restaurants as a whole.
func (s *Service) SetWishlist(ctx context.Context, uid string, list []domain.Listing) error {
	if list == nil {
		list = []domain.Listing{}
	}
	_, err := s.update(ctx, uid, map[string]any{"wishlist": list})
	return err
}
