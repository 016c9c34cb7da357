package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-realtime/internal/domain"
	apperrors "github.com/spec-kit/crm-realtime/pkg/util"
)

type stubUsers struct {
	users map[string]*domain.User
	err   error
}

func (s *stubUsers) GetActiveByID(_ context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (s *stubUsers) ListActiveByRole(context.Context, string, domain.UserRole) ([]domain.User, error) {
	return nil, nil
}

const testSecret = "test-secret"

func activeUser() *domain.User {
	return &domain.User{
		ID:             "user-1",
		OrganizationID: "org-a",
		Role:           domain.UserRoleAgent,
		Active:         true,
	}
}

func issueToken(t *testing.T, tokens *TokenManager, userID, orgID string, ttl time.Duration) string {
	t.Helper()
	token, err := tokens.GenerateToken(userID, orgID, domain.UserRoleAgent, ttl)
	require.NoError(t, err)
	return token
}

func requireAuthCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, code, domainErr.Code)
}

func TestVerifySuccess(t *testing.T) {
	tokens := NewTokenManager(testSecret)
	verifier := NewVerifier(tokens, &stubUsers{users: map[string]*domain.User{"user-1": activeUser()}})

	token := issueToken(t, tokens, "user-1", "org-a", time.Hour)
	identity, err := verifier.Verify(context.Background(), token, "org-a")
	require.NoError(t, err)
	require.Equal(t, "user-1", identity.UserID)
	require.Equal(t, "org-a", identity.OrganizationID)
	require.Equal(t, domain.UserRoleAgent, identity.Role)
}

func TestVerifyMissingToken(t *testing.T) {
	verifier := NewVerifier(NewTokenManager(testSecret), &stubUsers{})
	_, err := verifier.Verify(context.Background(), "  ", "org-a")
	requireAuthCode(t, err, apperrors.CodeInvalidToken)
}

func TestVerifyMalformedToken(t *testing.T) {
	verifier := NewVerifier(NewTokenManager(testSecret), &stubUsers{})
	_, err := verifier.Verify(context.Background(), "not-a-jwt", "org-a")
	requireAuthCode(t, err, apperrors.CodeInvalidToken)
}

func TestVerifyWrongSignature(t *testing.T) {
	other := NewTokenManager("other-secret")
	token := issueToken(t, other, "user-1", "org-a", time.Hour)

	verifier := NewVerifier(NewTokenManager(testSecret), &stubUsers{})
	_, err := verifier.Verify(context.Background(), token, "org-a")
	requireAuthCode(t, err, apperrors.CodeInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	tokens := NewTokenManager(testSecret)
	token := issueToken(t, tokens, "user-1", "org-a", -time.Hour)

	verifier := NewVerifier(tokens, &stubUsers{users: map[string]*domain.User{"user-1": activeUser()}})
	_, err := verifier.Verify(context.Background(), token, "org-a")
	requireAuthCode(t, err, apperrors.CodeTokenExpired)
}

func TestVerifyUserNotFound(t *testing.T) {
	tokens := NewTokenManager(testSecret)
	token := issueToken(t, tokens, "ghost", "org-a", time.Hour)

	verifier := NewVerifier(tokens, &stubUsers{})
	_, err := verifier.Verify(context.Background(), token, "org-a")
	requireAuthCode(t, err, apperrors.CodeUserNotFound)
}

func TestVerifyInactiveUser(t *testing.T) {
	tokens := NewTokenManager(testSecret)
	inactive := activeUser()
	inactive.Active = false
	token := issueToken(t, tokens, "user-1", "org-a", time.Hour)

	verifier := NewVerifier(tokens, &stubUsers{users: map[string]*domain.User{"user-1": inactive}})
	_, err := verifier.Verify(context.Background(), token, "org-a")
	requireAuthCode(t, err, apperrors.CodeUserNotFound)
}

func TestVerifyTenantMismatch(t *testing.T) {
	tokens := NewTokenManager(testSecret)
	token := issueToken(t, tokens, "user-1", "org-a", time.Hour)

	verifier := NewVerifier(tokens, &stubUsers{users: map[string]*domain.User{"user-1": activeUser()}})
	_, err := verifier.Verify(context.Background(), token, "org-b")
	requireAuthCode(t, err, apperrors.CodeTenantMismatch)
}

func TestVerifyPersistenceUnavailable(t *testing.T) {
	tokens := NewTokenManager(testSecret)
	token := issueToken(t, tokens, "user-1", "org-a", time.Hour)

	verifier := NewVerifier(tokens, &stubUsers{err: errors.New("db down")})
	_, err := verifier.Verify(context.Background(), token, "org-a")
	require.Error(t, err)
	require.Equal(t, apperrors.CodePersistenceUnavailable, apperrors.ToDomainError(err).Code)
	require.False(t, apperrors.IsAuthError(err))
}
