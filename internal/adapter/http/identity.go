package http

import (
	"context"
	"net/http"

	"github.com/openbracket/regatta/internal/domain"
)

// identityKey is the context key for the authenticated identity's email.
type identityKey struct{}

// identityHeader carries the email the authentication layer resolved for
// this request. Identity issuance itself happens upstream; this adapter
// only consumes the result.
const identityHeader = "X-Identity-Email"

// IdentityMiddleware copies the resolved identity from the request header
// into the context, where HeaderIdentity picks it up.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email := r.Header.Get(identityHeader); email != "" {
			r = r.WithContext(context.WithValue(r.Context(), identityKey{}, email))
		}
		next.ServeHTTP(w, r)
	})
}

// Compile-time check: HeaderIdentity implements domain.IdentityProvider.
var _ domain.IdentityProvider = (*HeaderIdentity)(nil)

// HeaderIdentity implements domain.IdentityProvider from the request
// context populated by IdentityMiddleware.
type HeaderIdentity struct{}

// NewHeaderIdentity creates the request-header identity provider.
func NewHeaderIdentity() *HeaderIdentity {
	return &HeaderIdentity{}
}

// CurrentIdentity returns the request's resolved identity, if any.
func (h *HeaderIdentity) CurrentIdentity(ctx context.Context) (domain.Identity, bool) {
	email, ok := ctx.Value(identityKey{}).(string)
	if !ok || email == "" {
		return domain.Identity{}, false
	}
	return domain.Identity{Email: email}, true
}
