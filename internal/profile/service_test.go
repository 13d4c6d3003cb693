package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

func primaries(addrs []domain.Address) []string {
	var out []string
	for _, a := range addrs {
		if a.Primary {
			out = append(out, a.Address)
		}
	}
	return out
}

func TestAddressBook(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemory())

	if err := svc.Create(ctx, domain.Profile{UID: "u1", Email: "a@x.com", Role: domain.RoleUser}); err != nil {
		t.Fatalf("create: %v", err)
	}

	p, err := svc.AddAddress(ctx, "u1", "1 Home Rd")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := primaries(p.Addresses); len(got) != 1 || got[0] != "1 Home Rd" {
		t.Errorf("first address should be primary, got %v", got)
	}

	p, _ = svc.AddAddress(ctx, "u1", "2 Office Ave")
	if got := primaries(p.Addresses); len(got) != 1 || got[0] != "1 Home Rd" {
		t.Errorf("new address should not become primary, got %v", got)
	}

	p, err = svc.SetPrimary(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("set primary: %v", err)
	}
	if got := primaries(p.Addresses); len(got) != 1 || got[0] != "2 Office Ave" {
		t.Errorf("expected office to be the only primary, got %v", got)
	}

	p, err = svc.RemoveAddress(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := primaries(p.Addresses); len(got) != 1 || got[0] != "1 Home Rd" {
		t.Errorf("expected remaining address promoted, got %v", got)
	}

	if addr, ok := p.PrimaryAddress(); !ok || addr != "1 Home Rd" {
		t.Errorf("unexpected primary address %q %v", addr, ok)
	}

	if _, err := svc.SetPrimary(ctx, "u1", 5); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for bad index, got %v", err)
	}
	if _, err := svc.AddAddress(ctx, "u1", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for blank address, got %v", err)
	}
	if _, err := svc.Get(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing profile, got %v", err)
	}
}

func TestPrimaryAddressFallback(t *testing.T) {
	p := domain.Profile{Addresses: []domain.Address{{Address: "only"}}}
	if addr, ok := p.PrimaryAddress(); !ok || addr != "only" {
		t.Errorf("expected fallback to first address, got %q %v", addr, ok)
	}
	if _, ok := (domain.Profile{}).PrimaryAddress(); ok {
		t.Error("expected no address for empty profile")
	}
}

func TestService_OnUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(docstore.NewMemory())
	if err := svc.Create(ctx, domain.Profile{UID: "u1", Email: "a@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var seen []domain.Profile
	remove := svc.OnUpdate(func(p domain.Profile) { seen = append(seen, p) })

	if _, err := svc.AddAddress(ctx, "u1", "1 Home Rd"); err != nil {
		t.Fatalf("add address: %v", err)
	}
	if len(seen) != 1 || len(seen[0].Addresses) != 1 {
		t.Fatalf("expected the written profile before the call returned, got %+v", seen)
	}

	remove()
	if _, err := svc.UpdateDetails(ctx, "u1", "Ali", ""); err != nil {
		t.Fatalf("update details: %v", err)
	}
	if len(seen) != 1 {
		t.Errorf("expected no calls after removal, got %d", len(seen))
	}

	if _, err := svc.AddAddress(ctx, "ghost", "2 Nowhere"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
