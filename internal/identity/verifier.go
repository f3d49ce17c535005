package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Prag-18/Reviva/internal/repository"
	"github.com/Prag-18/Reviva/pkg/jwt"
	"github.com/Prag-18/Reviva/pkg/middleware"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrIdentityMismatch  = errors.New("credential does not match claimed identity")
	ErrUnknownUser       = errors.New("unknown user")
)

// Websocket close codes sent when a channel is refused.
const (
	CloseInvalidCredential = 4001
	CloseIdentityMismatch  = 4003
	CloseUnknownUser       = 4004
)

// TokenValidator decodes a bearer token.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// Verifier authorises chat channels and HTTP callers.
type Verifier struct {
	tokens TokenValidator
	users  repository.UserRepository
}

func NewVerifier(tokens TokenValidator, users repository.UserRepository) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify checks that credential is valid, names claimedID and belongs to an
// existing user. It returns the canonical identity.
func (v *Verifier) Verify(ctx context.Context, credential, claimedID string) (string, error) {
	userID, err := v.decode(credential)
	if err != nil {
		return "", err
	}
	if userID != claimedID {
		return "", ErrIdentityMismatch
	}
	if err := v.exists(ctx, userID); err != nil {
		return "", err
	}
	return userID, nil
}

// Authenticate is Verify without a claimed identity. Credential and
// unknown-user failures also match middleware.ErrUnauthorized.
func (v *Verifier) Authenticate(ctx context.Context, credential string) (string, error) {
	userID, err := v.decode(credential)
	if err != nil {
		return "", fmt.Errorf("%w: %w", middleware.ErrUnauthorized, err)
	}
	if err := v.exists(ctx, userID); err != nil {
		if errors.Is(err, ErrUnknownUser) {
			return "", fmt.Errorf("%w: %w", middleware.ErrUnauthorized, err)
		}
		return "", err
	}
	return userID, nil
}

func (v *Verifier) decode(credential string) (string, error) {
	if credential == "" {
		return "", ErrInvalidCredential
	}
	claims, err := v.tokens.ValidateToken(credential)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return "", fmt.Errorf("%w: subject is not a uuid", ErrInvalidCredential)
	}
	return id.String(), nil
}

func (v *Verifier) exists(ctx context.Context, userID string) error {
	if _, err := v.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUnknownUser
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	return nil
}

// CloseCode maps a verification error to the websocket close code it is
// reported with. Other errors map to 1011 (internal error).
func CloseCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return CloseInvalidCredential
	case errors.Is(err, ErrIdentityMismatch):
		return CloseIdentityMismatch
	case errors.Is(err, ErrUnknownUser):
		return CloseUnknownUser
	default:
		return 1011
	}
}
