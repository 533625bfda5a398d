package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Wata22109/secure-auth/internal/models"
)

func TestIssueAndVerifySession(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{
		Secret: "test-secret",
		Issuer: "secure-auth",
		Clock:  func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.IssueSession("user-1", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.VerifySession(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, models.RoleAdmin, claims.Role)
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(DefaultSessionTTL)))
}

func TestVerifySessionRejectsExpiredToken(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{
		Secret: "test-secret",
		Clock:  func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.IssueSession("user-1", models.RoleUser)
	require.NoError(t, err)

	current = current.Add(DefaultSessionTTL + time.Minute)

	_, err = svc.VerifySession(token)
	require.Error(t, err)
}

func TestVerifySessionRejectsWrongSecret(t *testing.T) {
	issuing, err := NewJWTService(JWTConfig{Secret: "secret-a"})
	require.NoError(t, err)
	verifying, err := NewJWTService(JWTConfig{Secret: "secret-b"})
	require.NoError(t, err)

	token, err := issuing.IssueSession("user-1", models.RoleUser)
	require.NoError(t, err)

	_, err = verifying.VerifySession(token)
	require.Error(t, err)
}

func TestVerifySessionRejectsTamperedToken(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	token, err := svc.IssueSession("user-1", models.RoleUser)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = svc.VerifySession(tampered)
	require.Error(t, err)

	_, err = svc.VerifySession("not-a-token")
	require.Error(t, err)

	_, err = svc.VerifySession("")
	require.Error(t, err)
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}
