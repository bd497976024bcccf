package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/crm-briefing/pkg/errors"
)

func TestService_IssueAndValidate(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", Issuer: "crm", TokenTTL: time.Hour}, newTestLogger())

	token, err := svc.IssueToken(context.Background(), Identity{
		UserID:         "64f0c2",
		Name:           "김중개",
		Email:          "agent@example.com",
		Level:          5,
		BusinessNumber: "123-45-67890",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "64f0c2", claims.UserID)
	require.Equal(t, "김중개", claims.Name)
	require.Equal(t, "agent@example.com", claims.Email)
	require.Equal(t, 5, claims.Level)
	require.Equal(t, "123-45-67890", claims.BusinessNumber)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestService_RejectsBadTokens(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", Issuer: "crm"}, newTestLogger())
	other := NewService(Config{Secret: "other-secret", Issuer: "crm"}, newTestLogger())
	foreign := NewService(Config{Secret: "test-secret", Issuer: "elsewhere"}, newTestLogger())

	wrongKey, err := other.IssueToken(context.Background(), Identity{UserID: "u-1"})
	require.NoError(t, err)
	wrongIssuer, err := foreign.IssueToken(context.Background(), Identity{UserID: "u-1"})
	require.NoError(t, err)

	expiredSvc := NewService(Config{Secret: "test-secret", Issuer: "crm"}, newTestLogger()).(*service)
	expiredSvc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := expiredSvc.IssueToken(context.Background(), Identity{UserID: "u-1"})
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "u-1", Issuer: "crm"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        " ",
		"garbage":      "not-a-jwt",
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
		"no expiry":    noExpiry,
	} {
		_, err := svc.ValidateToken(context.Background(), token)
		require.Error(t, err, name)
		require.True(t, apperrors.IsCode(err, "invalid_token"), name)
	}
}

func TestService_IssueRequiresUserID(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret"}, newTestLogger())

	_, err := svc.IssueToken(context.Background(), Identity{Name: "nobody"})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}
