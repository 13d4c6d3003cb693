package restaurants

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

// AllCategories disables the category filter in List.
const AllCategories = "All"

type RatingSource interface {
	Get(ctx context.Context, restaurantName string) (float64, bool, error)
}

type Service struct {
	repo    *Repository
	ratings RatingSource
	logger  *slog.Logger
}

// NewService accepts a nil ratings source; listings then carry the stored
// rating only.
func NewService(repo *Repository, ratings RatingSource, logger *slog.Logger) *Service {
	return &Service{repo: repo, ratings: ratings, logger: logger}
}

func (s *Service) Register(ctx context.Context, owner string, r domain.Restaurant) (domain.Restaurant, error) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return domain.Restaurant{}, domain.Validation("restaurant name is required")
	}

	existing, err := s.repo.ByOwner(ctx, owner)
	if err != nil {
		return domain.Restaurant{}, domain.Persistence("lookup restaurant", err)
	}
	if existing != nil {
		return domain.Restaurant{}, domain.Validation("vendor already owns a restaurant")
	}

	existing, err = s.repo.ByName(ctx, r.Name)
	if err != nil {
		return domain.Restaurant{}, domain.Persistence("lookup restaurant", err)
	}
	if existing != nil {
		return domain.Restaurant{}, domain.Validation("restaurant name already taken")
	}

	r.Owner = owner
	r.Rating = 0
	created, err := s.repo.Add(ctx, r)
	if err != nil {
		return domain.Restaurant{}, domain.Persistence("create restaurant", err)
	}

	s.logger.Info("restaurant registered", "restaurant_id", created.ID, "owner", owner)
	return *created, nil
}

func (s *Service) ByName(ctx context.Context, name string) (domain.Restaurant, error) {
	r, err := s.repo.ByName(ctx, name)
	if err != nil {
		return domain.Restaurant{}, domain.Persistence("lookup restaurant", err)
	}
	if r == nil {
		return domain.Restaurant{}, fmt.Errorf("restaurant %q: %w", name, domain.ErrNotFound)
	}
	s.attachRating(ctx, r)
	return *r, nil
}

func (s *Service) ByOwner(ctx context.Context, owner string) (domain.Restaurant, error) {
	r, err := s.repo.ByOwner(ctx, owner)
	if err != nil {
		return domain.Restaurant{}, domain.Persistence("lookup restaurant", err)
	}
	if r == nil {
		return domain.Restaurant{}, fmt.Errorf("restaurant owned by %s: %w", owner, domain.ErrNotFound)
	}
	s.attachRating(ctx, r)
	return *r, nil
}

// OwnerEmail resolves the vendor account behind a restaurant name.
func (s *Service) OwnerEmail(ctx context.Context, restaurantName string) (string, error) {
	r, err := s.ByName(ctx, restaurantName)
	if err != nil {
		return "", err
	}
	return r.Owner, nil
}

func (s *Service) IsOpen(ctx context.Context, restaurantName string) (bool, error) {
	r, err := s.repo.ByName(ctx, restaurantName)
	if err != nil {
		return false, domain.Persistence("lookup restaurant", err)
	}
	if r == nil {
		return false, fmt.Errorf("restaurant %q: %w", restaurantName, domain.ErrNotFound)
	}
	return r.IsOpen, nil
}

func (s *Service) List(ctx context.Context, category string) ([]domain.Restaurant, error) {
	var filters []docstore.Filter
	if category != "" && category != AllCategories {
		filters = append(filters, docstore.Eq("category", category))
	}

	list, err := s.repo.List(ctx, filters...)
	if err != nil {
		return nil, domain.Persistence("list restaurants", err)
	}
	for i := range list {
		s.attachRating(ctx, &list[i])
	}
	return list, nil
}

func (s *Service) Search(ctx context.Context, text string) ([]domain.Restaurant, error) {
	list, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return Search(list, text), nil
}

// Search keeps restaurants whose name or category contains text, ignoring
// case. Blank text matches everything.
func Search(list []domain.Restaurant, text string) []domain.Restaurant {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return list
	}

	out := make([]domain.Restaurant, 0, len(list))
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Name), needle) || strings.Contains(strings.ToLower(r.Category), needle) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) SetOpen(ctx context.Context, owner string, open bool) (domain.Restaurant, error) {
	r, err := s.ByOwner(ctx, owner)
	if err != nil {
		return domain.Restaurant{}, err
	}

	if err := s.repo.SetOpen(ctx, r.ID, open); err != nil {
		return domain.Restaurant{}, domain.Persistence("toggle restaurant", err)
	}
	r.IsOpen = open

	s.logger.Info("restaurant availability changed", "restaurant_id", r.ID, "is_open", open)
	return r, nil
}

func validateItem(item domain.MenuItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return domain.Validation("item name is required")
	}
	if !item.Price.IsPositive() {
		return domain.Validation("item price must be positive")
	}
	return nil
}

func (s *Service) AddMenuItem(ctx context.Context, owner string, item domain.MenuItem) (domain.MenuItem, error) {
	if err := validateItem(item); err != nil {
		return domain.MenuItem{}, err
	}

	r, err := s.ByOwner(ctx, owner)
	if err != nil {
		return domain.MenuItem{}, err
	}

	item.Name = strings.TrimSpace(item.Name)
	item.Email = owner
	item.RestaurantName = r.Name

	created, err := s.repo.AddItem(ctx, item)
	if err != nil {
		return domain.MenuItem{}, domain.Persistence("create menu item", err)
	}
	return *created, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, owner, id string, item domain.MenuItem) (domain.MenuItem, error) {
	if err := validateItem(item); err != nil {
		return domain.MenuItem{}, err
	}

	existing, err := s.ownedItem(ctx, owner, id)
	if err != nil {
		return domain.MenuItem{}, err
	}

	item.ID = existing.ID
	item.Name = strings.TrimSpace(item.Name)
	item.Email = existing.Email
	item.RestaurantName = existing.RestaurantName

	if err := s.repo.PutItem(ctx, item); err != nil {
		return domain.MenuItem{}, domain.Persistence("update menu item", err)
	}
	return item, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, owner, id string) error {
	if _, err := s.ownedItem(ctx, owner, id); err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return domain.Persistence("delete menu item", err)
	}
	return nil
}

func (s *Service) MenuItem(ctx context.Context, id string) (domain.MenuItem, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return domain.MenuItem{}, domain.Persistence("load menu item", err)
	}
	if item == nil {
		return domain.MenuItem{}, fmt.Errorf("menu item %s: %w", id, domain.ErrNotFound)
	}
	return *item, nil
}

func (s *Service) Menu(ctx context.Context, restaurantName string) ([]domain.MenuItem, error) {
	r, err := s.ByName(ctx, restaurantName)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.Items(ctx, r.Owner, r.Name)
	if err != nil {
		return nil, domain.Persistence("list menu", err)
	}
	return items, nil
}

// ownedItem hides items of other vendors behind ErrNotFound.
func (s *Service) ownedItem(ctx context.Context, owner, id string) (domain.MenuItem, error) {
	item, err := s.MenuItem(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}
	if item.Email != owner {
		return domain.MenuItem{}, fmt.Errorf("menu item %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

func (s *Service) attachRating(ctx context.Context, r *domain.Restaurant) {
	if s.ratings == nil {
		return
	}
	avg, ok, err := s.ratings.Get(ctx, r.Name)
	if err != nil {
		s.logger.Warn("failed to read cached rating", "error", err, "restaurant", r.Name)
		return
	}
	if ok {
		r.Rating = avg
	}
}
