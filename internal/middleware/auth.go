package middleware

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/Wata22109/secure-auth/internal/auth"
	"github.com/Wata22109/secure-auth/pkg/errors"
	"github.com/Wata22109/secure-auth/pkg/response"
)

const (
	CtxClaimsKey = "authClaims"
	CtxUserIDKey = "userID"
	CtxRoleKey   = "userRole"
)

// Auth enforces cookie-based JWT authentication using the supplied JWT
// service. Missing, malformed, expired, and badly signed tokens are all
// rejected with the same 401.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := iauth.TokenFromRequest(c)
		if token == "" {
			response.Error(c, errors.ErrNotAuthenticated)
			c.Abort()
			return
		}

		claims, err := jwt.VerifySession(token)
		if err != nil {
			response.Error(c, errors.ErrNotAuthenticated)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.Subject)
		c.Set(CtxRoleKey, claims.Role)

		c.Next()
	}
}
