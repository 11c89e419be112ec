package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academix-system/internal/database/models"
	"academix-system/internal/gateway/middleware"
	"academix-system/internal/services/payroll"
)

type PayrollHTTPHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	payroll *payroll.Service
	log     *zap.SugaredLogger
}

func NewPayrollHTTPHandler(db *gorm.DB, redisClient *redis.Client, payrollSvc *payroll.Service, log *zap.SugaredLogger) *PayrollHTTPHandler {
	return &PayrollHTTPHandler{
		db:      db,
		redis:   redisClient,
		payroll: payrollSvc,
		log:     log,
	}
}

type CreateManualEntryRequest struct {
	EmployeeID   string  `json:"employee_id" binding:"required"`
	EmployeeName string  `json:"employee_name" binding:"required"`
	PayPeriod    string  `json:"pay_period" binding:"required,len=7"`
	BaseSalary   string  `json:"base_salary" binding:"required"`
	Allowances   string  `json:"allowances"`
	Bonus        string  `json:"bonus"`
	Deductions   string  `json:"deductions"`
	Notes        *string `json:"notes"`
}

type AdjustEntryRequest struct {
	Allowances *string `json:"allowances"`
	Bonus      *string `json:"bonus"`
	Deductions *string `json:"deductions"`
	Notes      *string `json:"notes"`
}

type BulkPayRequest struct {
	EntryIDs []string `json:"entry_ids" binding:"required"`
}

func (h *PayrollHTTPHandler) ListEntries(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	page, pageSize := paginationParams(c)

	query := h.db.Model(&models.PayrollEntry{}).Where("org_id = ?", orgID)
	if employeeID := c.Query("employee_id"); employeeID != "" {
		query = query.Where("employee_id = ?", employeeID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if period := c.Query("pay_period"); period != "" {
		query = query.Where("pay_period = ?", period)
	}
	if calcType := c.Query("calculation_type"); calcType != "" {
		query = query.Where("calculation_type = ?", calcType)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to count payroll entries"))
		return
	}

	var entries []models.PayrollEntry
	if err := query.Order("pay_period desc, employee_name").
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to retrieve payroll entries"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Payroll entries retrieved", entries, PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}))
}

func (h *PayrollHTTPHandler) GetEntry(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	entryID := c.Param("id")
	cacheKey := payroll.PAYROLL_CACHE_PREFIX + entryID

	val, err := h.redis.Get(c.Request.Context(), cacheKey).Result()
	if err == nil {
		var cached models.PayrollEntry
		if err := json.Unmarshal([]byte(val), &cached); err == nil && cached.OrgID == orgID {
			c.JSON(http.StatusOK, successResponse("Payroll entry retrieved", cached))
			return
		}
	} else if err != redis.Nil {
		h.log.Warnw("redis error on payroll entry cache, falling back to DB", "error", err)
	}

	var entry models.PayrollEntry
	if err := h.db.Where("id = ? AND org_id = ?", entryID, orgID).First(&entry).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Payroll entry not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if jsonData, err := json.Marshal(entry); err == nil {
		h.redis.Set(c.Request.Context(), cacheKey, jsonData, payroll.CACHE_TTL_MEDIUM)
	}

	c.JSON(http.StatusOK, successResponse("Payroll entry retrieved", entry))
}

func (h *PayrollHTTPHandler) CreateManualEntry(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req CreateManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	input := payroll.ManualEntryInput{
		EmployeeID:   req.EmployeeID,
		EmployeeName: req.EmployeeName,
		PayPeriod:    req.PayPeriod,
		BaseSalary:   req.BaseSalary,
		Allowances:   orZero(req.Allowances),
		Bonus:        orZero(req.Bonus),
		Deductions:   orZero(req.Deductions),
		Notes:        req.Notes,
	}

	entry, err := h.payroll.CreateManualEntry(c.Request.Context(), orgID, input)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Payroll entry created", entry))
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func (h *PayrollHTTPHandler) AdjustEntry(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req AdjustEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	entry, err := h.payroll.AdjustEntry(c.Request.Context(), orgID, c.Param("id"), payroll.EntryAdjustment{
		Allowances: req.Allowances,
		Bonus:      req.Bonus,
		Deductions: req.Deductions,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, payroll.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Payroll entry not found"))
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payroll entry updated", entry))
}

func (h *PayrollHTTPHandler) PayEntry(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	entry, err := h.payroll.MarkPaid(c.Request.Context(), orgID, c.Param("id"))
	if err != nil {
		if errors.Is(err, payroll.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Payroll entry not found"))
			return
		}
		if errors.Is(err, payroll.ErrNotPending) {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to pay payroll entry"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payroll entry paid", entry))
}

func (h *PayrollHTTPHandler) BulkPayEntries(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req BulkPayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	paid, errs := h.payroll.BulkMarkPaid(c.Request.Context(), orgID, req.EntryIDs)

	c.JSON(http.StatusOK, successResponse("Bulk pay finished", gin.H{
		"paid":        paid,
		"errors":      errs,
		"paid_count":  len(paid),
		"error_count": len(errs),
	}))
}

func (h *PayrollHTTPHandler) Report(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	report, err := h.payroll.Report(c.Request.Context(), orgID, c.Query("pay_period"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to build payroll report"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payroll report", report))
}

// Reconcile runs the full historical scan synchronously; progress is readable
// through the companion Progress endpoint while this request is in flight.
func (h *PayrollHTTPHandler) Reconcile(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	summary, err := h.payroll.Reconcile(c.Request.Context(), orgID)
	if err != nil {
		if errors.Is(err, payroll.ErrReconcileRunning) {
			c.JSON(http.StatusConflict, errorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Reconciliation failed: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, successResponse("Reconciliation finished", summary))
}

func (h *PayrollHTTPHandler) ReconcileProgress(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	progress, err := h.payroll.Progress(c.Request.Context(), orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to read progress"))
		return
	}
	if progress == nil {
		c.JSON(http.StatusNotFound, errorResponse("No reconciliation run recorded"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Reconciliation progress", progress))
}
