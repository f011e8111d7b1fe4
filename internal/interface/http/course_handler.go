package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sikshyalaya/backend/internal/application"
	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/pkg/response"
	"github.com/sikshyalaya/backend/pkg/validation"
)

type CourseHandler struct {
	Courses *application.CourseService
	Logger  *logrus.Logger
}

func NewCourseHandler(courses *application.CourseService, logger *logrus.Logger) *CourseHandler {
	return &CourseHandler{Courses: courses, Logger: logger}
}

type subTopicPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title" binding:"required"`
	VideoURL string `json:"videoUrl"`
	Tier     string `json:"tier" binding:"omitempty,oneof=free premium"`
}

type topicPayload struct {
	ID        string            `json:"id"`
	Title     string            `json:"title" binding:"required"`
	SubTopics []subTopicPayload `json:"subTopics" binding:"dive"`
}

type coursePayload struct {
	Title        string         `json:"title" binding:"required,min=2,max=200"`
	Description  string         `json:"description"`
	Topics       []topicPayload `json:"topics" binding:"dive"`
	Price        float64        `json:"price" binding:"gte=0"`
	PremiumPrice float64        `json:"premiumPrice" binding:"gte=0"`
	Tier         string         `json:"tier" binding:"omitempty,oneof=free premium"`
}

type courseResponse struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Topics          []entity.Topic `json:"topics"`
	Price           float64        `json:"price"`
	PremiumPrice    float64        `json:"premiumPrice"`
	Tier            string         `json:"tier"`
	EnrollmentCount int            `json:"enrollmentCount"`
	ThumbnailURL    string         `json:"thumbnailUrl,omitempty"`
	TotalLessons    int            `json:"totalLessons"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func toCourseResponse(c *entity.Course) courseResponse {
	topics := c.Topics
	if topics == nil {
		topics = []entity.Topic{}
	}
	return courseResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		Topics:          topics,
		Price:           c.Price,
		PremiumPrice:    c.PremiumPrice,
		Tier:            c.Tier,
		EnrollmentCount: c.EnrollmentCount,
		ThumbnailURL:    c.ThumbnailURL,
		TotalLessons:    c.SubTopicCount(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (p coursePayload) toEntity(id string) *entity.Course {
	topics := make([]entity.Topic, 0, len(p.Topics))
	for _, t := range p.Topics {
		subs := make([]entity.SubTopic, 0, len(t.SubTopics))
		for _, st := range t.SubTopics {
			subs = append(subs, entity.SubTopic{ID: st.ID, Title: st.Title, VideoURL: st.VideoURL, Tier: st.Tier})
		}
		topics = append(topics, entity.Topic{ID: t.ID, Title: t.Title, SubTopics: subs})
	}
	return &entity.Course{
		ID:           id,
		Title:        p.Title,
		Description:  p.Description,
		Topics:       topics,
		Price:        p.Price,
		PremiumPrice: p.PremiumPrice,
		Tier:         p.Tier,
	}
}

// Create POST /api/courses (admin only)
func (h *CourseHandler) Create(c *gin.Context) {
	var req coursePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	course, err := h.Courses.Create(c.Request.Context(), req.toEntity(""))
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusCreated, toCourseResponse(course), "course created", nil)
}

// Get GET /api/courses/:courseId
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.Courses.Get(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, toCourseResponse(course), "", nil)
}

// List GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	courses, err := h.Courses.List(c.Request.Context(), limit, offset)
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	out := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, toCourseResponse(course))
	}
	response.Success(c, http.StatusOK, out, "", map[string]any{"count": len(out), "limit": limit, "offset": offset})
}

// Update PUT /api/courses/:courseId (admin only)
func (h *CourseHandler) Update(c *gin.Context) {
	var req coursePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid request", validation.ToDetails(err))
		return
	}
	course, err := h.Courses.Update(c.Request.Context(), req.toEntity(c.Param("courseId")))
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, toCourseResponse(course), "course updated", nil)
}

// Delete DELETE /api/courses/:courseId (admin only)
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.Courses.Delete(c.Request.Context(), c.Param("courseId")); err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "course deleted", nil)
}

// Search GET /api/courses/search?q=...
func (h *CourseHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query parameter q", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	courses, err := h.Courses.Search(c.Request.Context(), q, limit)
	if err != nil {
		h.Logger.WithError(err).Warn("course search failed")
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	out := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, toCourseResponse(course))
	}
	response.Success(c, http.StatusOK, out, "", map[string]any{"count": len(out), "query": q})
}

const maxThumbnailSize = 5 << 20 // 5 MiB

// UploadThumbnail POST /api/courses/:courseId/thumbnail (admin only)
func (h *CourseHandler) UploadThumbnail(c *gin.Context) {
	file, err := c.FormFile("thumbnail")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing thumbnail file", nil)
		return
	}
	if file.Size > maxThumbnailSize {
		response.Error[any](c, http.StatusBadRequest, "thumbnail exceeds 5MB limit", nil)
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable thumbnail file", nil)
		return
	}
	defer func() { _ = src.Close() }()

	contentType := file.Header.Get("Content-Type")
	url, err := h.Courses.UploadThumbnail(c.Request.Context(), c.Param("courseId"), file.Filename, contentType, src)
	if err != nil {
		status, msg := statusFor(err)
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"thumbnailUrl": url}, "thumbnail uploaded", nil)
}
