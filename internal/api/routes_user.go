package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Wata22109/secure-auth/internal/handlers"
)

func registerUserRoutes(api *gin.RouterGroup, h *handlers.UserHandler) {
	user := api.Group("/user")
	{
		user.GET("/me", h.Me)
		user.PATCH("/change-password", h.ChangePassword)
		user.GET("/login-history", h.LoginHistory)

		mfa := user.Group("/mfa")
		{
			mfa.POST("/setup", h.MFASetup)
			mfa.POST("/enable", h.MFAEnable)
			mfa.POST("/disable", h.MFADisable)
			mfa.POST("/backup-codes", h.MFARegenerateBackupCodes)
			mfa.GET("/status", h.MFAStatus)
		}
	}
}
