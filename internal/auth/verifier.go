package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-realtime/internal/domain"
	"github.com/spec-kit/crm-realtime/internal/repository"
	apperrors "github.com/spec-kit/crm-realtime/pkg/util"
)

// Identity is the authenticated result of a successful verification.
type Identity struct {
	UserID         string
	OrganizationID string
	Role           domain.UserRole
}

// Verifier gates connection establishment: it validates the bearer token,
// loads the claimed user and confirms the user is active and belongs to the
// claimed organization. One persistence read, no other side effects.
type Verifier struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewVerifier constructs a Verifier.
func NewVerifier(tokens *TokenManager, users repository.UserRepository) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify checks token against claimedOrgID. Failures map to the four
// connection-fatal auth codes.
func (v *Verifier) Verify(ctx context.Context, token, claimedOrgID string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NewAuthError(apperrors.CodeInvalidToken, "missing token")
	}

	claims, err := v.tokens.ParseToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperrors.NewAuthError(apperrors.CodeTokenExpired, "token expired")
		}
		return nil, apperrors.NewAuthError(apperrors.CodeInvalidToken, "invalid token")
	}

	user, err := v.users.GetActiveByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAuthError(apperrors.CodeUserNotFound, "user not found")
		}
		return nil, apperrors.NewPersistenceUnavailable(err)
	}
	if !user.Active {
		return nil, apperrors.NewAuthError(apperrors.CodeUserNotFound, "user inactive")
	}
	if user.OrganizationID != claimedOrgID || claims.OrganizationID != user.OrganizationID {
		return nil, apperrors.NewAuthError(apperrors.CodeTenantMismatch, "organization mismatch")
	}

	return &Identity{
		UserID:         user.ID,
		OrganizationID: user.OrganizationID,
		Role:           user.Role,
	}, nil
}
