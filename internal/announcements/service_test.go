package announcements

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

type fakeWishlists map[string][]domain.Listing

func (f fakeWishlists) List(_ context.Context, uid string) ([]domain.Listing, error) {
	return f[uid], nil
}

type memLastViewed struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func (m *memLastViewed) Get(_ context.Context, user string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[user], nil
}

func (m *memLastViewed) Mark(_ context.Context, user string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = make(map[string]time.Time)
	}
	m.seen[user] = at
	return nil
}

func newTestService(wishlists fakeWishlists) *Service {
	var mu sync.Mutex
	clock := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	store := docstore.NewMemory(docstore.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Minute)
		return clock
	}))
	return NewService(store, wishlists, &memLastViewed{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestService_Feed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(fakeWishlists{
		"u1": {{ID: "r1", Name: "Warung A"}},
	})

	if _, err := svc.Create(ctx, "Warung A", "Malay", "Open late", "Until 2am this week"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, "Warung B", "Malay", "Closed", "Public holiday"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	feed, err := svc.Feed(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed) != 1 || feed[0].RestaurantName != "Warung A" {
		t.Errorf("expected only Warung A, got %+v", feed)
	}

	empty, err := svc.Feed(ctx, "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty feed, got %+v", empty)
	}
}

func TestService_Unread(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(fakeWishlists{
		"u1": {{ID: "r1", Name: "Warung A"}},
	})

	unread, err := svc.HasUnread(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread {
		t.Error("expected nothing unread before any announcement")
	}

	if _, err := svc.Create(ctx, "Warung A", "Malay", "Promo", "Buy one free one"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if unread, _ := svc.HasUnread(ctx, "u1"); !unread {
		t.Error("expected unread after a new announcement")
	}
	if unread, _ := svc.HasUnread(ctx, "u1"); !unread {
		t.Error("checking for unread must not mark as viewed")
	}

	if _, err := svc.MarkViewed(ctx, "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread, _ := svc.HasUnread(ctx, "u1"); unread {
		t.Error("expected nothing unread after opening the view")
	}

	if _, err := svc.Create(ctx, "Warung A", "Malay", "Another", "More news"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unread, _ := svc.HasUnread(ctx, "u1"); !unread {
		t.Error("expected unread after a later announcement")
	}
}

func TestService_CreateDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(nil)

	t.Run("requires all fields", func(t *testing.T) {
		_, err := svc.Create(ctx, "Warung A", "", "Title", "Content")
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	a, err := svc.Create(ctx, "Warung A", "Malay", "Title", "Content")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("other restaurant cannot delete", func(t *testing.T) {
		err := svc.Delete(ctx, "Warung B", a.ID)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	if err := svc.Delete(ctx, "Warung A", a.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, err := svc.ForRestaurant(ctx, "Warung A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no announcements, got %+v", list)
	}
}
