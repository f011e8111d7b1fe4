package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sikshyalaya/backend/internal/container"
	"github.com/sikshyalaya/backend/internal/domain/entity"
	handlers "github.com/sikshyalaya/backend/internal/interface/http"
	"github.com/sikshyalaya/backend/internal/interface/middleware"
)

type PaymentModule struct {
	Handler *handlers.PaymentHandler
}

func NewPaymentModule(h *handlers.PaymentHandler) *PaymentModule {
	return &PaymentModule{Handler: h}
}

func (m *PaymentModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/payments")
	auth.Use(middleware.Auth(container.GetJWT()))
	auth.Use(middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/verify-esewa-v2", m.Handler.VerifyEsewaV2)
		// Legacy callback shape, kept for older app builds.
		auth.POST("/verify-esewa", m.Handler.VerifyEsewa)
	}

	admin := rg.Group("/payments")
	admin.Use(middleware.Auth(container.GetJWT()), middleware.RequireRoles(entity.RoleAdmin))
	{
		admin.GET("/unapplied", m.Handler.ListUnapplied)
	}
}
