package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sikshyalaya/backend/internal/application"
	"github.com/sikshyalaya/backend/internal/interface/middleware"
	"github.com/sikshyalaya/backend/pkg/response"
	"github.com/sikshyalaya/backend/pkg/validation"
)

type ProgressHandler struct {
	Progress *application.ProgressService
	Logger   *logrus.Logger
}

func NewProgressHandler(progress *application.ProgressService, logger *logrus.Logger) *ProgressHandler {
	return &ProgressHandler{Progress: progress, Logger: logger}
}

type updateProgressRequest struct {
	SubTopicID string `json:"subTopicId" binding:"required"`
	Completed  *bool  `json:"completed" binding:"required"`
}

type progressResponse struct {
	UserID             string     `json:"userId"`
	CourseID           string     `json:"courseId"`
	CompletedLessons   []string   `json:"completedLessons"`
	LastAccessedLesson string     `json:"lastAccessedLesson,omitempty"`
	EnrolledAt         *time.Time `json:"enrolledAt,omitempty"`
	IsPremium          bool       `json:"isPremium"`
	PurchasedAt        *time.Time `json:"purchasedAt,omitempty"`
	TotalLessons       int        `json:"totalLessons"`
	CompletedCount     int        `json:"completedCount"`
	Percentage         float64    `json:"percentage"`
}

func toProgressResponse(v *application.ProgressView) progressResponse {
	p := v.Progress
	out := progressResponse{
		UserID:             p.UserID,
		CourseID:           p.CourseID,
		CompletedLessons:   p.CompletedLessons,
		LastAccessedLesson: p.LastAccessedLesson,
		IsPremium:          p.IsPremium,
		PurchasedAt:        p.PurchasedAt,
		TotalLessons:       v.TotalLessons,
		CompletedCount:     len(p.CompletedLessons),
		Percentage:         v.Percentage,
	}
	if !p.EnrolledAt.IsZero() {
		at := p.EnrolledAt
		out.EnrolledAt = &at
	}
	return out
}

// Get GET /api/courses/:courseId/progress (auth required)
func (h *ProgressHandler) Get(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	view, err := h.Progress.Get(c.Request.Context(), uid, c.Param("courseId"))
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, toProgressResponse(view), "", nil)
}

// Update POST /api/courses/:courseId/progress (auth required)
func (h *ProgressHandler) Update(c *gin.Context) {
	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	view, err := h.Progress.SetLessonState(c.Request.Context(), uid, c.Param("courseId"), req.SubTopicID, *req.Completed)
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, toProgressResponse(view), "progress updated", nil)
}

// Enroll POST /api/courses/:courseId/enroll (auth required)
func (h *ProgressHandler) Enroll(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	view, already, err := h.Progress.Enroll(c.Request.Context(), uid, c.Param("courseId"))
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	msg := "enrolled"
	if already {
		msg = "already enrolled"
	}
	response.Success(c, http.StatusOK, toProgressResponse(view), msg, nil)
}
