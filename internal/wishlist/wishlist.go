// Package wishlist keeps the set of restaurants a customer saved. The saved
// names also decide which announcements the customer sees.
package wishlist

import (
	"context"
	"log/slog"
	"slices"

	"github.com/seechee6/Order-Me/internal/domain"
)

// Toggle adds the listing when absent and removes it when present. The
// input slice is never modified.
func Toggle(list []domain.Listing, listing domain.Listing) []domain.Listing {
	i := slices.IndexFunc(list, func(l domain.Listing) bool { return l.ID == listing.ID })
	if i >= 0 {
		return slices.Delete(slices.Clone(list), i, i+1)
	}
	return append(slices.Clone(list), listing)
}

func Contains(list []domain.Listing, id string) bool {
	return slices.ContainsFunc(list, func(l domain.Listing) bool { return l.ID == id })
}

// Names returns the restaurant names in the list, in order.
func Names(list []domain.Listing) []string {
	names := make([]string, 0, len(list))
	for _, l := range list {
		names = append(names, l.Name)
	}
	return names
}

type ProfileStore interface {
	Get(ctx context.Context, uid string) (domain.Profile, error)
	SetWishlist(ctx context.Context, uid string, list []domain.Listing) error
}

type Service struct {
	profiles ProfileStore
	logger   *slog.Logger
}

func NewService(profiles ProfileStore, logger *slog.Logger) *Service {
	return &Service{profiles: profiles, logger: logger}
}

func (s *Service) List(ctx context.Context, uid string) ([]domain.Listing, error) {
	p, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p.Wishlist == nil {
		return []domain.Listing{}, nil
	}
	return p.Wishlist, nil
}

// Toggle flips the listing and writes the whole list back.
func (s *Service) Toggle(ctx context.Context, uid string, listing domain.Listing) ([]domain.Listing, error) {
	current, err := s.List(ctx, uid)
	if err != nil {
		return nil, err
	}

	next := Toggle(current, listing)
	if err := s.profiles.SetWishlist(ctx, uid, next); err != nil {
		return nil, err
	}

	s.logger.Info("wishlist toggled", "uid", uid, "restaurant", listing.Name, "saved", len(next) > len(current))
	return next, nil
}
