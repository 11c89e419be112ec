package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"academix-system/internal/database/models"
	"academix-system/internal/gateway/middleware"
	"academix-system/internal/services/payroll"
	"academix-system/internal/utils"
)

type UserHTTPHandler struct {
	db       *gorm.DB
	redis    *redis.Client
	payroll  *payroll.Service
	log      *zap.SugaredLogger
	tokenTTL time.Duration
}

func NewUserHTTPHandler(db *gorm.DB, redisClient *redis.Client, payrollSvc *payroll.Service, log *zap.SugaredLogger, tokenTTL time.Duration) *UserHTTPHandler {
	return &UserHTTPHandler{
		db:       db,
		redis:    redisClient,
		payroll:  payrollSvc,
		log:      log,
		tokenTTL: tokenTTL,
	}
}

type RegisterRequest struct {
	OrgID       string `json:"org_id" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
	Role        string `json:"role" binding:"required,oneof=student teacher instructor org_admin super_admin"`
	LegacyUID   string `json:"legacy_uid"`
}

type LoginRequest struct {
	OrgID    string `json:"org_id" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role" binding:"omitempty,oneof=student teacher instructor org_admin super_admin"`
	IsActive    *bool   `json:"is_active"`
}

type userResponse struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	LegacyUID   string     `json:"legacy_uid,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		OrgID:       u.OrgID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		LegacyUID:   u.LegacyUID,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
	}
}

func (h *UserHTTPHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	var existing models.User
	err := h.db.Where("org_id = ? AND email = ?", req.OrgID, req.Email).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, errorResponse("Email already registered"))
		return
	} else if err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error hashing password"))
		return
	}

	newUser := models.User{
		ID:          uuid.NewString(),
		OrgID:       req.OrgID,
		Email:       req.Email,
		Password:    string(pwHash),
		DisplayName: req.DisplayName,
		Role:        req.Role,
		LegacyUID:   req.LegacyUID,
		IsActive:    true,
	}

	if err := h.db.Create(&newUser).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating user"))
		return
	}

	if newUser.IsTeacher() {
		h.payroll.InvalidateTeacherCache(c.Request.Context(), newUser.OrgID)
	}

	token, exp, err := utils.GenerateToken(newUser.ID, newUser.OrgID, newUser.Role, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error generating token"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("User registered successfully", gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       toUserResponse(newUser),
	}))
}

func (h *UserHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	var user models.User
	if err := h.db.Where("org_id = ? AND email = ?", req.OrgID, req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusForbidden, errorResponse("Account is deactivated"))
		return
	}

	token, exp, err := utils.GenerateToken(user.ID, user.OrgID, user.Role, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error generating token"))
		return
	}

	now := time.Now()
	user.LastLogin = &now
	if err := h.db.Save(&user).Error; err != nil {
		h.log.Warnw("failed to record last login", "user_id", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, successResponse("Login successful", gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       toUserResponse(user),
	}))
}

func (h *UserHTTPHandler) ListUsers(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	page, pageSize := paginationParams(c)

	query := h.db.Model(&models.User{}).Where("org_id = ?", orgID)
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to count users"))
		return
	}

	var users []models.User
	if err := query.Order("display_name").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to retrieve users"))
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Users retrieved", out, PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}))
}

// ListTeachers serves the teacher roster used by payroll screens, through the
// same cache the payroll service reads.
func (h *UserHTTPHandler) ListTeachers(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	teachers := h.payroll.Teachers(c.Request.Context(), orgID)

	out := make([]userResponse, 0, len(teachers))
	for _, t := range teachers {
		out = append(out, toUserResponse(t))
	}

	c.JSON(http.StatusOK, successResponse("Teachers retrieved", out))
}

func (h *UserHTTPHandler) GetUser(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND org_id = ?", c.Param("id"), orgID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("User retrieved", toUserResponse(user)))
}

func (h *UserHTTPHandler) UpdateUser(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND org_id = ?", c.Param("id"), orgID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update user"))
		return
	}

	h.payroll.InvalidateTeacherCache(c.Request.Context(), orgID)

	c.JSON(http.StatusOK, successResponse("User updated", toUserResponse(user)))
}
