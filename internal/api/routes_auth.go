package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Wata22109/secure-auth/internal/handlers"
)

func registerAuthRoutes(engine *gin.Engine, h *handlers.AuthHandler) {
	auth := engine.Group("/api/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
		auth.POST("/mfa-verify", h.VerifyMFA)
		auth.POST("/check-email", h.CheckEmail)
		auth.POST("/logout", h.Logout)
	}
}
