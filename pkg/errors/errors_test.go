package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromErrorPassesThroughAppErrors(t *testing.T) {
	err := fmt.Errorf("handler: %w", ErrAccountLocked)

	appErr := FromError(err)
	require.Equal(t, "ACCOUNT_LOCKED", appErr.Code)
	require.Equal(t, http.StatusLocked, appErr.StatusCode)
}

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("boom")

	appErr := FromError(cause)
	require.Equal(t, ErrInternalServer.Code, appErr.Code)
	require.ErrorIs(t, appErr, cause)
}

func TestWithInternalDoesNotMutateSentinel(t *testing.T) {
	cause := errors.New("db down")
	wrapped := ErrInvalidCredentials.WithInternal(cause)

	require.Nil(t, ErrInvalidCredentials.Internal)
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, ErrInvalidCredentials.Code, wrapped.Code)
}

func TestInvalidCredentialsMessageIsGeneric(t *testing.T) {
	// Unknown email and wrong password must be indistinguishable.
	require.NotContains(t, ErrInvalidCredentials.Message, "email address")
	require.Equal(t, http.StatusUnauthorized, ErrInvalidCredentials.StatusCode)
}
