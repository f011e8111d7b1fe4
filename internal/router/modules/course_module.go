package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sikshyalaya/backend/internal/container"
	"github.com/sikshyalaya/backend/internal/domain/entity"
	handlers "github.com/sikshyalaya/backend/internal/interface/http"
	"github.com/sikshyalaya/backend/internal/interface/middleware"
)

type CourseModule struct {
	Handler *handlers.CourseHandler
}

func NewCourseModule(h *handlers.CourseHandler) *CourseModule {
	return &CourseModule{Handler: h}
}

func (m *CourseModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Catalog reads are public.
	public := rg.Group("/courses")
	public.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP()))
	{
		public.GET("", m.Handler.List)
		public.GET("/search", m.Handler.Search)
		public.GET("/:courseId", m.Handler.Get)
	}

	// Catalog writes are admin only.
	admin := rg.Group("/courses")
	admin.Use(middleware.Auth(container.GetJWT()), middleware.RequireRoles(entity.RoleAdmin))
	admin.Use(middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		admin.POST("", m.Handler.Create)
		admin.PUT("/:courseId", m.Handler.Update)
		admin.DELETE("/:courseId", m.Handler.Delete)
		admin.POST("/:courseId/thumbnail", m.Handler.UploadThumbnail)
	}
}
