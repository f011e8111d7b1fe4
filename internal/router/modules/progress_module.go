package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sikshyalaya/backend/internal/container"
	handlers "github.com/sikshyalaya/backend/internal/interface/http"
	"github.com/sikshyalaya/backend/internal/interface/middleware"
)

type ProgressModule struct {
	Handler *handlers.ProgressHandler
}

func NewProgressModule(h *handlers.ProgressHandler) *ProgressModule {
	return &ProgressModule{Handler: h}
}

func (m *ProgressModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/courses")
	auth.Use(middleware.Auth(container.GetJWT()))
	auth.Use(middleware.RateLimit(container.GetRedis(), 240, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/:courseId/progress", m.Handler.Get)
		auth.POST("/:courseId/progress", m.Handler.Update)
		auth.POST("/:courseId/enroll", m.Handler.Enroll)
	}
}
