package wishlist

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/profile"
)

func TestToggle(t *testing.T) {
	r1 := domain.Listing{ID: "r1", Name: "Warung A"}
	r2 := domain.Listing{ID: "r2", Name: "Warung B"}

	list := Toggle(nil, r1)
	if len(list) != 1 || list[0].ID != "r1" {
		t.Fatalf("expected [r1], got %+v", list)
	}

	list = Toggle(list, r1)
	if len(list) != 0 {
		t.Fatalf("expected empty wishlist, got %+v", list)
	}

	t.Run("does not modify input", func(t *testing.T) {
		in := []domain.Listing{r1, r2}
		out := Toggle(in, r1)
		if len(in) != 2 || in[0].ID != "r1" || in[1].ID != "r2" {
			t.Errorf("input changed: %+v", in)
		}
		if len(out) != 1 || out[0].ID != "r2" {
			t.Errorf("expected [r2], got %+v", out)
		}
	})
}

func TestService_Toggle(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	profiles := profile.NewService(store)
	if err := profiles.Create(ctx, domain.Profile{UID: "u1", Email: "c@x.com", Role: domain.RoleUser}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc := NewService(profiles, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r1 := domain.Listing{ID: "r1", Name: "Warung A"}

	list, err := svc.Toggle(ctx, "u1", r1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 saved restaurant, got %d", len(list))
	}

	stored, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 || stored[0].Name != "Warung A" {
		t.Errorf("expected persisted wishlist, got %+v", stored)
	}

	list, err = svc.Toggle(ctx, "u1", r1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty wishlist, got %+v", list)
	}
	if stored, _ := svc.List(ctx, "u1"); len(stored) != 0 {
		t.Errorf("expected empty persisted wishlist, got %+v", stored)
	}
}
