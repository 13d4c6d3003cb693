package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/seechee6/Order-Me/internal/docstore"
	"github.com/seechee6/Order-Me/internal/domain"
)

const credentialsCollection = "credentials"

const minPasswordLength = 6

type Identity struct {
	UID   string      `json:"uid"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Event is delivered to session listeners. Identity is nil after sign-out.
// ExpiresAt is set on sign-in to the expiry of the issued token.
type Event struct {
	UID       string
	Identity  *Identity
	ExpiresAt time.Time
}

type SignUpDetails struct {
	Username    string
	PhoneNumber string
	Address     string
	Role        domain.Role
}

type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type ProfileCreator interface {
	Create(ctx context.Context, p domain.Profile) error
}

type credential struct {
	UID          string      `json:"uid"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Role         domain.Role `json:"role"`
}

type Service struct {
	store    docstore.Store
	tokens   *TokenManager
	revoker  Revoker
	profiles ProfileCreator
	logger   *slog.Logger

	mu        sync.Mutex
	listeners map[int]func(Event)
	nextID    int
}

func NewService(store docstore.Store, tokens *TokenManager, revoker Revoker, profiles ProfileCreator, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		tokens:    tokens,
		revoker:   revoker,
		profiles:  profiles,
		logger:    logger,
		listeners: make(map[int]func(Event)),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) SignUp(ctx context.Context, email, password string, details SignUpDetails) (Identity, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return Identity{}, fmt.Errorf("%w: invalid email address", domain.ErrAuth)
	}
	if len(password) < minPasswordLength {
		return Identity{}, fmt.Errorf("%w: password must be at least %d characters", domain.ErrAuth, minPasswordLength)
	}

	role := details.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleVendor {
		return Identity{}, domain.Validation("unknown role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	id := Identity{UID: uuid.New().String(), Email: email, Role: role}
	created, err := s.store.Create(ctx, credentialsCollection, email, credential{
		UID:          id.UID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		return Identity{}, domain.Persistence("create credential", err)
	}
	if !created {
		return Identity{}, fmt.Errorf("%w: email already in use", domain.ErrAuth)
	}

	profile := domain.Profile{
		UID:         id.UID,
		Email:       email,
		Username:    details.Username,
		PhoneNumber: details.PhoneNumber,
		Role:        role,
		Addresses:   []domain.Address{},
		Wishlist:    []domain.Listing{},
	}
	if addr := strings.TrimSpace(details.Address); addr != "" {
		profile.Addresses = append(profile.Addresses, domain.Address{Address: addr, Primary: true})
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return Identity{}, err
	}

	s.logger.Info("user signed up", "uid", id.UID, "role", role)
	return id, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	doc, err := s.store.Get(ctx, credentialsCollection, email)
	if errors.Is(err, docstore.ErrNotFound) {
		return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrAuth)
	}
	if err != nil {
		return Session{}, domain.Persistence("load credential", err)
	}

	var cred credential
	if err := doc.Decode(&cred); err != nil {
		return Session{}, fmt.Errorf("decode credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrAuth)
	}

	id := Identity{UID: cred.UID, Email: cred.Email, Role: cred.Role}
	token, claims, err := s.tokens.Generate(id)
	if err != nil {
		return Session{}, err
	}

	s.emit(Event{UID: id.UID, Identity: &id, ExpiresAt: claims.ExpiresAt.Time})
	s.logger.Info("user signed in", "uid", id.UID)

	return Session{Token: token, Identity: id, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return err
	}

	if err := s.revoker.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return domain.Persistence("revoke token", err)
	}

	s.emit(Event{UID: claims.Subject})
	s.logger.Info("user signed out", "uid", claims.Subject)
	return nil
}

func (s *Service) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return Identity{}, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Identity{}, domain.Persistence("check revocation", err)
	}
	if revoked {
		return Identity{}, fmt.Errorf("%w: session ended", domain.ErrAuth)
	}

	return Identity{UID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// OnSessionChanged registers fn for sign-in and sign-out events. The
// returned function removes it.
func (s *Service) OnSessionChanged(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) emit(e Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
