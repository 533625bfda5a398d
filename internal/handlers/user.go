package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wata22109/secure-auth/internal/services"
	appErrors "github.com/Wata22109/secure-auth/pkg/errors"
	"github.com/Wata22109/secure-auth/pkg/response"
)

// UserHandler serves account-scoped endpoints for authenticated users,
// including the MFA lifecycle.
type UserHandler struct {
	users *services.UserService
	mfa   *services.MFAService
}

func NewUserHandler(users *services.UserService, mfa *services.MFAService) *UserHandler {
	return &UserHandler{users: users, mfa: mfa}
}

// GET /api/user/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	user, err := h.users.Get(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":        user.Profile(),
		"mfa_enabled": user.MFAEnabled,
	})
}

type changePasswordRequest struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,password"`
	ConfirmNewPassword string `json:"confirm_new_password" validate:"required,eqfield=NewPassword"`
}

// PATCH /api/user/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.users.ChangePassword(requestContext(c), userID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"changed": true})
}

// GET /api/user/login-history
func (h *UserHandler) LoginHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	limit := parseIntQuery(c, "limit", services.DefaultLoginHistoryLimit)
	entries, err := h.users.LoginHistory(requestContext(c), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"history": entries})
}

// POST /api/user/mfa/setup
func (h *UserHandler) MFASetup(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	enrollment, err := h.mfa.Setup(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	// The secret and backup codes are shown exactly once at setup time.
	response.Success(c, http.StatusOK, gin.H{
		"secret":       enrollment.Secret,
		"qr_code":      enrollment.QRCode,
		"backup_codes": enrollment.BackupCodes,
	})
}

type mfaCodeRequest struct {
	Token string `json:"token" validate:"required"`
}

// POST /api/user/mfa/enable
func (h *UserHandler) MFAEnable(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	var req mfaCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.mfa.Enable(requestContext(c), userID, req.Token); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enabled": true})
}

// POST /api/user/mfa/disable
func (h *UserHandler) MFADisable(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	var req mfaCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.mfa.Disable(requestContext(c), userID, req.Token); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"disabled": true})
}

// POST /api/user/mfa/backup-codes
func (h *UserHandler) MFARegenerateBackupCodes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	var req mfaCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	codes, err := h.mfa.RegenerateBackupCodes(requestContext(c), userID, req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"backup_codes": codes})
}

// GET /api/user/mfa/status
func (h *UserHandler) MFAStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, appErrors.ErrNotAuthenticated)
		return
	}

	enabled, remaining, err := h.mfa.Status(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"mfa_enabled":            enabled,
		"remaining_backup_codes": remaining,
	})
}
