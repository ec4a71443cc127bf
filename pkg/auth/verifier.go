package auth

import (
	"context"

	"github.com/pkg/errors"
)

// ErrIdentityNotFound means the token verified but its subject no longer
// resolves to a user.
var ErrIdentityNotFound = errors.New("auth: identity not found")

// Identity is the principal bound to a session after verification.
type Identity struct {
	UserID int64
	Email  string
}

// SubjectResolver resolves a verified token subject to a user identity.
// chatstore.Store satisfies it.
type SubjectResolver interface {
	IdentityByEmail(ctx context.Context, email string) (Identity, bool, error)
}

// Verifier turns a bearer token into an Identity. It is the single
// authentication surface consumed by both the websocket gateway and the
// REST middleware.
type Verifier struct {
	tokens   *TokenService
	resolver SubjectResolver
}

func NewVerifier(tokens *TokenService, resolver SubjectResolver) (*Verifier, error) {
	if tokens == nil {
		return nil, errors.New("auth: nil token service")
	}
	if resolver == nil {
		return nil, errors.New("auth: nil subject resolver")
	}
	return &Verifier{tokens: tokens, resolver: resolver}, nil
}

// VerifyToken returns ErrTokenInvalid for malformed, expired or subject-less
// tokens and ErrIdentityNotFound when the subject has no matching user.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (Identity, error) {
	subject, err := v.tokens.Subject(token)
	if err != nil {
		return Identity{}, err
	}
	id, ok, err := v.resolver.IdentityByEmail(ctx, subject)
	if err != nil {
		return Identity{}, errors.Wrap(err, "auth: resolve subject")
	}
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return id, nil
}
