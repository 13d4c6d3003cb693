package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (m *memRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[id] = ttl
	return nil
}

func (m *memRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[id]
	return ok, nil
}

type profileRecorder struct {
	profiles []domain.Profile
}

func (p *profileRecorder) Create(_ context.Context, profile domain.Profile) error {
	p.profiles = append(p.profiles, profile)
	return nil
}

func newTestService() (*Service, *profileRecorder) {
	profiles := &profileRecorder{}
	svc := NewService(
		docstore.NewMemory(),
		NewTokenManager([]byte("test-secret"), time.Hour),
		&memRevoker{revoked: map[string]time.Duration{}},
		profiles,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return svc, profiles
}

func TestService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates profile with primary address", func(t *testing.T) {
		svc, profiles := newTestService()

		id, err := svc.SignUp(ctx, " Alice@Example.com ", "secret1", SignUpDetails{Address: "123 Jalan X", PhoneNumber: "0123"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id.Email != "alice@example.com" {
			t.Errorf("expected normalized email, got %q", id.Email)
		}
		if id.Role != domain.RoleUser {
			t.Errorf("expected role user, got %q", id.Role)
		}
		if len(profiles.profiles) != 1 {
			t.Fatalf("expected one profile, got %d", len(profiles.profiles))
		}
		p := profiles.profiles[0]
		if p.Username != "" {
			t.Errorf("expected empty username, got %q", p.Username)
		}
		if len(p.Addresses) != 1 || !p.Addresses[0].Primary {
			t.Errorf("expected one primary address, got %+v", p.Addresses)
		}
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		svc, _ := newTestService()
		if _, err := svc.SignUp(ctx, "bob@example.com", "secret1", SignUpDetails{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := svc.SignUp(ctx, "BOB@example.com", "secret2", SignUpDetails{})
		if !errors.Is(err, domain.ErrAuth) {
			t.Errorf("expected ErrAuth, got %v", err)
		}
	})

	t.Run("rejects weak password and bad email", func(t *testing.T) {
		svc, _ := newTestService()
		if _, err := svc.SignUp(ctx, "carol@example.com", "123", SignUpDetails{}); !errors.Is(err, domain.ErrAuth) {
			t.Errorf("expected ErrAuth for short password, got %v", err)
		}
		if _, err := svc.SignUp(ctx, "not-an-email", "secret1", SignUpDetails{}); !errors.Is(err, domain.ErrAuth) {
			t.Errorf("expected ErrAuth for bad email, got %v", err)
		}
	})
}

func TestService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	var events []Event
	unsubscribe := svc.OnSessionChanged(func(e Event) { events = append(events, e) })
	defer unsubscribe()

	signedUp, err := svc.SignUp(ctx, "dave@example.com", "secret1", SignUpDetails{Role: domain.RoleVendor})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	if _, err := svc.SignIn(ctx, "dave@example.com", "wrong-pass"); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth for wrong password, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "secret1"); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth for unknown user, got %v", err)
	}

	session, err := svc.SignIn(ctx, "dave@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.Identity.UID != signedUp.UID || session.Identity.Role != domain.RoleVendor {
		t.Errorf("unexpected identity: %+v", session.Identity)
	}

	id, err := svc.Verify(ctx, session.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Email != "dave@example.com" {
		t.Errorf("expected email from token, got %q", id.Email)
	}

	if err := svc.SignOut(ctx, session.Token); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := svc.Verify(ctx, session.Token); !errors.Is(err, domain.ErrAuth) {
		t.Errorf("expected revoked token to fail, got %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 session events, got %d", len(events))
	}
	if events[0].Identity == nil || events[0].UID != signedUp.UID {
		t.Errorf("expected sign-in event, got %+v", events[0])
	}
	if !events[0].ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("expected sign-in event to carry token expiry %v, got %v", session.ExpiresAt, events[0].ExpiresAt)
	}
	if events[1].Identity != nil || events[1].UID != signedUp.UID {
		t.Errorf("expected sign-out event, got %+v", events[1])
	}
}

func TestTokenManager_Validate(t *testing.T) {
	tm := NewTokenManager([]byte("secret-a"), time.Hour)
	token, _, err := tm.Generate(Identity{UID: "u1", Email: "a@x.com", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager([]byte("secret-b"), time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, domain.ErrAuth) {
			t.Errorf("expected ErrAuth, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenManager([]byte("secret-a"), time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := late.Validate(token); !errors.Is(err, domain.ErrAuth) {
			t.Errorf("expected ErrAuth, got %v", err)
		}
	})
}

func TestAuthenticator(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auth := NewAuthenticator(svc, logger)

	_, _ = svc.SignUp(ctx, "erin@example.com", "secret1", SignUpDetails{})
	session, err := svc.SignIn(ctx, "erin@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	protected := func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok || id.Email != "erin@example.com" {
			t.Errorf("identity missing from context: %+v", id)
		}
		w.WriteHeader(http.StatusNoContent)
	}

	tests := []struct {
		name    string
		header  string
		handler http.HandlerFunc
		want    int
	}{
		{"missing token", "", auth.Require(protected), http.StatusUnauthorized},
		{"garbage token", "Bearer nope", auth.Require(protected), http.StatusUnauthorized},
		{"valid token", "Bearer " + session.Token, auth.Require(protected), http.StatusNoContent},
		{"customer on vendor route", "Bearer " + session.Token, auth.RequireVendor(protected), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
