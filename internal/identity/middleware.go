package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/seechee6/Order-Me/internal/domain"
	"github.com/seechee6/Order-Me/internal/httpx"
)

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticator guards handlers behind a bearer session token.
type Authenticator struct {
	verifier Verifier
	logger   *slog.Logger
}

func NewAuthenticator(verifier Verifier, logger *slog.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, logger: logger}
}

func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.WriteError(w, a.logger, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			httpx.WriteDomainError(w, a.logger, err)
			return
		}

		next(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}

func (a *Authenticator) RequireVendor(next http.HandlerFunc) http.HandlerFunc {
	return a.Require(func(w http.ResponseWriter, r *http.Request) {
		id, _ := FromContext(r.Context())
		if id.Role != domain.RoleVendor {
			httpx.WriteError(w, a.logger, http.StatusForbidden, "vendor account required")
			return
		}
		next(w, r)
	})
}
