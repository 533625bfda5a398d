package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/Wata22109/secure-auth/internal/auth"
	"github.com/Wata22109/secure-auth/internal/services"
	appErrors "github.com/Wata22109/secure-auth/pkg/errors"
	"github.com/Wata22109/secure-auth/pkg/metrics"
	"github.com/Wata22109/secure-auth/pkg/response"
)

// AuthHandler manages the public authentication flows: signup, the two-leg
// login, email availability, and logout.
type AuthHandler struct {
	auth    *services.AuthService
	users   *services.UserService
	cookies *iauth.CookieWriter
}

func NewAuthHandler(auth *services.AuthService, users *services.UserService, cookies *iauth.CookieWriter) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, cookies: cookies}
}

type signupRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.auth.Signup(requestContext(c), services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrEmailTaken) {
			metrics.Signups.WithLabelValues("conflict").Inc()
		} else {
			metrics.Signups.WithLabelValues("failure").Inc()
		}
		response.Error(c, err)
		return
	}

	metrics.Signups.WithLabelValues("success").Inc()
	h.cookies.Set(c, token)

	response.Success(c, http.StatusCreated, gin.H{"user": user.Profile()})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.auth.Login(requestContext(c), services.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrAccountLocked) {
			metrics.AuthAttempts.WithLabelValues("locked").Inc()
		} else {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
		}
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()

	if result.MFARequired {
		// Password accepted; no session until the second leg.
		response.Success(c, http.StatusOK, gin.H{
			"mfa_required": true,
			"user_id":      result.User.ID,
		})
		return
	}

	h.cookies.Set(c, result.Token)
	response.Success(c, http.StatusOK, gin.H{"user": result.User.Profile()})
}

type mfaVerifyRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	Token        string `json:"token" validate:"required"`
	IsBackupCode bool   `json:"is_backup_code"`
}

// POST /api/auth/mfa-verify
func (h *AuthHandler) VerifyMFA(c *gin.Context) {
	var req mfaVerifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	method := "totp"
	if req.IsBackupCode {
		method = "backup_code"
	}

	result, err := h.auth.VerifyMFA(requestContext(c), services.MFAVerifyInput{
		UserID:       req.UserID,
		Code:         req.Token,
		IsBackupCode: req.IsBackupCode,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		metrics.MFAVerifications.WithLabelValues(method, "failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.MFAVerifications.WithLabelValues(method, "success").Inc()
	h.cookies.Set(c, result.Token)

	payload := gin.H{"user": result.User.Profile()}
	if req.IsBackupCode {
		payload["remaining_backup_codes"] = result.RemainingBackupCodes
	}
	response.Success(c, http.StatusOK, payload)
}

type checkEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// POST /api/auth/check-email
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	var req checkEmailRequest
	if !bindAndValidate(c, &req) {
		return
	}

	available, err := h.users.EmailAvailable(requestContext(c), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"available": available})
}

// POST /api/auth/logout
//
// Sessions are stateless, so logout only clears the cookie. A token the
// client kept elsewhere remains valid until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.Clear(c)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}
