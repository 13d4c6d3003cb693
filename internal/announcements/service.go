package announcements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/wishlist"
)

const Collection = "announcements"

type WishlistReader interface {
	List(ctx context.Context, uid string) ([]domain.Listing, error)
}

type LastViewed interface {
	Get(ctx context.Context, user string) (time.Time, error)
	Mark(ctx context.Context, user string, at time.Time) error
}

type Service struct {
	store      docstore.Store
	wishlists  WishlistReader
	lastViewed LastViewed
	logger     *slog.Logger
}

func NewService(store docstore.Store, wishlists WishlistReader, lastViewed LastViewed, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		wishlists:  wishlists,
		lastViewed: lastViewed,
		logger:     logger,
	}
}

func setAnnouncementFields(a *domain.Announcement, d docstore.Document) {
	a.ID = d.ID
	a.Timestamp = d.CreateTime
}

func (s *Service) query(ctx context.Context, q docstore.Query) ([]domain.Announcement, error) {
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, domain.Persistence("list announcements", err)
	}
	anns, err := docstore.DecodeAll(docs, setAnnouncementFields)
	if err != nil {
		return nil, fmt.Errorf("decode announcements: %w", err)
	}
	return anns, nil
}

// Feed returns the announcements of the user's saved restaurants.
func (s *Service) Feed(ctx context.Context, uid string) ([]domain.Announcement, error) {
	saved, err := s.wishlists.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(saved) == 0 {
		return []domain.Announcement{}, nil
	}

	q := docstore.Collection(Collection).Where(docstore.In("restaurant_name", wishlist.Names(saved)))
	anns, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	return VisibleTo(saved, anns), nil
}

func (s *Service) HasUnread(ctx context.Context, uid string) (bool, error) {
	feed, err := s.Feed(ctx, uid)
	if err != nil {
		return false, err
	}

	last, err := s.lastViewed.Get(ctx, uid)
	if err != nil {
		return false, domain.Persistence("load last viewed", err)
	}
	return UnreadSince(last, feed), nil
}

// MarkViewed records the newest announcement the user has now seen. It is
// only called when the announcements view is opened.
func (s *Service) MarkViewed(ctx context.Context, uid string) ([]domain.Announcement, error) {
	feed, err := s.Feed(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(feed) == 0 {
		return feed, nil
	}

	last, err := s.lastViewed.Get(ctx, uid)
	if err != nil {
		return nil, domain.Persistence("load last viewed", err)
	}
	if newest := feed[0].Timestamp; newest.After(last) {
		if err := s.lastViewed.Mark(ctx, uid, newest); err != nil {
			return nil, domain.Persistence("mark viewed", err)
		}
	}
	return feed, nil
}

func (s *Service) Create(ctx context.Context, restaurantName, category, title, content string) (domain.Announcement, error) {
	a := domain.Announcement{
		RestaurantName: strings.TrimSpace(restaurantName),
		Category:       strings.TrimSpace(category),
		Title:          strings.TrimSpace(title),
		Content:        strings.TrimSpace(content),
	}
	if a.RestaurantName == "" || a.Category == "" || a.Title == "" || a.Content == "" {
		return domain.Announcement{}, domain.Validation("restaurant, category, title and content are required")
	}

	doc, err := s.store.Add(ctx, Collection, a)
	if err != nil {
		return domain.Announcement{}, domain.Persistence("create announcement", err)
	}
	setAnnouncementFields(&a, doc)

	s.logger.Info("announcement posted", "announcement_id", a.ID, "restaurant", a.RestaurantName)
	return a, nil
}

func (s *Service) Delete(ctx context.Context, restaurantName, id string) error {
	doc, err := s.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("announcement %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Persistence("load announcement", err)
	}

	var a domain.Announcement
	if err := doc.Decode(&a); err != nil {
		return fmt.Errorf("decode announcement: %w", err)
	}
	if a.RestaurantName != restaurantName {
		return fmt.Errorf("announcement %s: %w", id, domain.ErrNotFound)
	}

	if err := s.store.Delete(ctx, Collection, id); err != nil {
		return domain.Persistence("delete announcement", err)
	}
	s.logger.Info("announcement deleted", "announcement_id", id, "restaurant", restaurantName)
	return nil
}

func (s *Service) ForRestaurant(ctx context.Context, restaurantName string) ([]domain.Announcement, error) {
	anns, err := s.query(ctx, docstore.Collection(Collection).Where(docstore.Eq("restaurant_name", restaurantName)))
	if err != nil {
		return nil, err
	}
	newestFirst(anns)
	return anns, nil
}
