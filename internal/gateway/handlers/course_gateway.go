package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academix-system/internal/database/models"
	"academix-system/internal/gateway/middleware"
)

const (
	COURSE_CACHE_PREFIX = "course:"
	COURSE_CACHE_TTL    = 2 * time.Hour
)

type CourseHTTPHandler struct {
	db    *gorm.DB
	redis *redis.Client
	log   *zap.SugaredLogger
}

func NewCourseHTTPHandler(db *gorm.DB, redisClient *redis.Client, log *zap.SugaredLogger) *CourseHTTPHandler {
	return &CourseHTTPHandler{
		db:    db,
		redis: redisClient,
		log:   log,
	}
}

type CreateCourseRequest struct {
	Title              string   `json:"title" binding:"required"`
	Description        *string  `json:"description"`
	Instructor         string   `json:"instructor"`
	AssignedTeacherIDs []string `json:"assigned_teacher_ids"`
}

type UpdateCourseRequest struct {
	Title              *string   `json:"title"`
	Description        *string   `json:"description"`
	Instructor         *string   `json:"instructor"`
	AssignedTeacherIDs *[]string `json:"assigned_teacher_ids"`
	IsActive           *bool     `json:"is_active"`
}

func (h *CourseHTTPHandler) CreateCourse(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	course := models.Course{
		ID:                 uuid.NewString(),
		OrgID:              orgID,
		Title:              req.Title,
		Description:        req.Description,
		Instructor:         req.Instructor,
		CreatorID:          middleware.UserID(c),
		AssignedTeacherIDs: models.StringArray(req.AssignedTeacherIDs),
		IsActive:           true,
	}

	if err := h.db.Create(&course).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create course"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Course created", course))
}

func (h *CourseHTTPHandler) ListCourses(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	page, pageSize := paginationParams(c)

	query := h.db.Model(&models.Course{}).Where("org_id = ?", orgID)
	if active := c.Query("active"); active == "true" {
		query = query.Where("is_active = ?", true)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to count courses"))
		return
	}

	var courses []models.Course
	if err := query.Order("title").Offset((page - 1) * pageSize).Limit(pageSize).Find(&courses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to retrieve courses"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Courses retrieved", courses, PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}))
}

func (h *CourseHTTPHandler) GetCourse(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	cacheKey := COURSE_CACHE_PREFIX + orgID + ":" + c.Param("id")
	if cached, err := h.redis.Get(c.Request.Context(), cacheKey).Result(); err == nil {
		var course models.Course
		if json.Unmarshal([]byte(cached), &course) == nil {
			c.JSON(http.StatusOK, successResponse("Course retrieved", course))
			return
		}
	}

	var course models.Course
	if err := h.db.Where("id = ? AND org_id = ?", c.Param("id"), orgID).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Course not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if data, err := json.Marshal(course); err == nil {
		if err := h.redis.Set(c.Request.Context(), cacheKey, data, COURSE_CACHE_TTL).Err(); err != nil {
			h.log.Warnw("course cache write failed", "course_id", course.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, successResponse("Course retrieved", course))
}

func (h *CourseHTTPHandler) UpdateCourse(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	var course models.Course
	if err := h.db.Where("id = ? AND org_id = ?", c.Param("id"), orgID).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Course not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.Instructor != nil {
		course.Instructor = *req.Instructor
	}
	if req.AssignedTeacherIDs != nil {
		course.AssignedTeacherIDs = models.StringArray(*req.AssignedTeacherIDs)
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := h.db.Save(&course).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update course"))
		return
	}

	if err := h.redis.Del(c.Request.Context(), COURSE_CACHE_PREFIX+orgID+":"+course.ID).Err(); err != nil {
		h.log.Warnw("course cache invalidation failed", "course_id", course.ID, "error", err)
	}

	c.JSON(http.StatusOK, successResponse("Course updated", course))
}
