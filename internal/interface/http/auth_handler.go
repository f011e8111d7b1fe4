package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sikshyalaya/backend/internal/application"
	"github.com/sikshyalaya/backend/internal/interface/middleware"
	"github.com/sikshyalaya/backend/pkg/helpers"
	"github.com/sikshyalaya/backend/pkg/response"
	"github.com/sikshyalaya/backend/pkg/validation"
)

type AuthHandler struct {
	Auth    *application.AuthService
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewAuthHandler(auth *application.AuthService, cookies *helpers.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookies: cookies, Logger: logger}
}

type registerRequest struct {
	FullName string `json:"fullName" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,oneof=user admin"`
	Password string `json:"password" binding:"required,pwd"`
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"verificationCode" binding:"required,vcode"`
}

type resendCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register POST /api/auth/v1/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	u, err := h.Auth.Register(c.Request.Context(), req.FullName, req.Email, req.Role, req.Password)
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusCreated, u.Sanitized(), "registered, check your email for the verification code", nil)
}

// VerifyEmail POST /api/auth/v1/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	u, access, aexp, err := h.Auth.VerifyEmail(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	h.Cookies.SetAccess(c, access, aexp)
	response.Success(c, http.StatusOK, gin.H{
		"token": access,
		"user":  u.Sanitized(),
	}, "email verified", nil)
}

// ResendVerificationCode POST /api/auth/v1/resend-verification-code
func (h *AuthHandler) ResendVerificationCode(c *gin.Context) {
	var req resendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	if err := h.Auth.ResendVerificationCode(c.Request.Context(), req.Email); err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "verification code sent", nil)
}

// Login POST /api/auth/v1/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, msg := statusFor(err)
		if errors.Is(err, application.ErrNotVerified) {
			// The frontend uses this flag to route straight to the
			// verification screen.
			response.Error[any](c, status, msg, gin.H{"needsVerification": true})
			return
		}
		response.Error[any](c, status, msg, nil)
		return
	}
	h.Cookies.SetPair(c, pair.Access, pair.AccessExp, pair.Refresh, pair.RefreshExp)
	response.Success(c, http.StatusOK, gin.H{
		"accessToken": pair.Access,
		"user":        u.Sanitized(),
	}, "login successful", nil)
}

// Refresh POST /api/auth/v1/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	u, access, aexp, err := h.Auth.Refresh(c.Request.Context(), refresh)
	if err != nil {
		h.Cookies.Clear(c)
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	h.Cookies.SetAccess(c, access, aexp)
	response.Success(c, http.StatusOK, gin.H{
		"accessToken": access,
		"user":        u.Sanitized(),
	}, "token refreshed", nil)
}

// Logout POST /api/auth/v1/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	refresh, _ := c.Cookie(helpers.RefreshCookie)
	if err := h.Auth.Logout(c.Request.Context(), refresh); err != nil {
		h.Logger.WithError(err).Warn("refresh token revocation failed during logout")
	}
	h.Cookies.Clear(c)
	c.Status(http.StatusNoContent)
}

// Me GET /api/auth/v1/me
func (h *AuthHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Auth.GetUser(c.Request.Context(), uid)
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, u.Sanitized(), "", nil)
}
