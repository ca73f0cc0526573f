// Package identity exchanges a bearer credential for a verified subject.
package identity

import (
	"context"
	"strings"

	"hosting-storefront/internal/apperr"
)

// Identity is the verified subject of a request. UserID is never empty.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// ExtractBearer returns the token from an Authorization header value.
func ExtractBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperr.Unauthenticated("missing authorization header", nil)
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", apperr.Unauthenticated("authorization header must use the Bearer scheme", nil)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", apperr.Unauthenticated("empty bearer token", nil)
	}
	return token, nil
}

// EnsureSubject rejects a client-supplied user id that names someone other than the caller.
// An empty claim is accepted and the subject is used.
func EnsureSubject(id *Identity, claimedUserID string) error {
	if claimedUserID != "" && claimedUserID != id.UserID {
		return apperr.Forbidden("user_id does not match the authenticated user")
	}
	return nil
}
