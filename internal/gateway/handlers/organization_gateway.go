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
	"academix-system/internal/services/payroll/engine"
)

const ORG_CACHE_PREFIX = "organization:"

type OrganizationHTTPHandler struct {
	db    *gorm.DB
	redis *redis.Client
	log   *zap.SugaredLogger
}

func NewOrganizationHTTPHandler(db *gorm.DB, redisClient *redis.Client, log *zap.SugaredLogger) *OrganizationHTTPHandler {
	return &OrganizationHTTPHandler{
		db:    db,
		redis: redisClient,
		log:   log,
	}
}

type CreateOrganizationRequest struct {
	Name                         string `json:"name" binding:"required"`
	TeacherSalaryPercentage      string `json:"teacher_salary_percentage"`
	OrganizationSalaryPercentage string `json:"organization_salary_percentage"`
}

type UpdateSettingsRequest struct {
	Name                         *string `json:"name"`
	TeacherSalaryPercentage      *string `json:"teacher_salary_percentage"`
	OrganizationSalaryPercentage *string `json:"organization_salary_percentage"`
}

func (h *OrganizationHTTPHandler) CreateOrganization(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	teacherPct := req.TeacherSalaryPercentage
	orgPct := req.OrganizationSalaryPercentage
	if teacherPct == "" && orgPct == "" {
		teacherPct, orgPct = "75", "25"
	}
	if _, err := engine.NewPercentSplit(teacherPct, orgPct); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	org := models.Organization{
		ID:                           uuid.NewString(),
		Name:                         req.Name,
		TeacherSalaryPercentage:      teacherPct,
		OrganizationSalaryPercentage: orgPct,
	}

	if err := h.db.Create(&org).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create organization"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Organization created", org))
}

func (h *OrganizationHTTPHandler) GetSettings(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	cacheKey := ORG_CACHE_PREFIX + orgID

	val, err := h.redis.Get(c.Request.Context(), cacheKey).Result()
	if err == nil {
		var cached models.Organization
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			c.JSON(http.StatusOK, successResponse("Organization settings", cached))
			return
		}
	} else if err != redis.Nil {
		h.log.Warnw("redis error on organization cache, falling back to DB", "error", err)
	}

	var org models.Organization
	if err := h.db.First(&org, "id = ?", orgID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Organization not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if jsonData, err := json.Marshal(org); err == nil {
		h.redis.Set(c.Request.Context(), cacheKey, jsonData, 30*time.Minute)
	}

	c.JSON(http.StatusOK, successResponse("Organization settings", org))
}

// UpdateSettings is the one place the percentage split is validated: the two
// values must sum to exactly 100.
func (h *OrganizationHTTPHandler) UpdateSettings(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	var org models.Organization
	if err := h.db.First(&org, "id = ?", orgID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Organization not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.Name != nil {
		org.Name = *req.Name
	}
	if req.TeacherSalaryPercentage != nil {
		org.TeacherSalaryPercentage = *req.TeacherSalaryPercentage
	}
	if req.OrganizationSalaryPercentage != nil {
		org.OrganizationSalaryPercentage = *req.OrganizationSalaryPercentage
	}

	if _, err := engine.NewPercentSplit(org.TeacherSalaryPercentage, org.OrganizationSalaryPercentage); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	if err := h.db.Save(&org).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update organization"))
		return
	}

	h.redis.Del(c.Request.Context(), ORG_CACHE_PREFIX+orgID)

	c.JSON(http.StatusOK, successResponse("Organization updated", org))
}
