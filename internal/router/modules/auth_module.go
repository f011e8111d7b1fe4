package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sikshyalaya/backend/internal/container"
	handlers "github.com/sikshyalaya/backend/internal/interface/http"
	"github.com/sikshyalaya/backend/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Tight per-IP limits on the credential endpoints; login and resend are
	// the brute-force targets.
	registerLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	verifyLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	resendLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	v1 := rg.Group("/auth/v1")
	v1.POST("/register", registerLimiter, m.Handler.Register)
	v1.POST("/verify-email", verifyLimiter, m.Handler.VerifyEmail)
	v1.POST("/resend-verification-code", resendLimiter, m.Handler.ResendVerificationCode)
	v1.POST("/login", loginLimiter, m.Handler.Login)
	v1.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	v1.POST("/logout", m.Handler.Logout)

	auth := v1.Group("/")
	auth.Use(middleware.Auth(container.GetJWT()))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP()))
	{
		auth.GET("/me", m.Handler.Me)
	}
}
