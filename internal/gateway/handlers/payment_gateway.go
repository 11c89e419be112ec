package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academix-system/internal/database/models"
	"academix-system/internal/gateway/middleware"
	"academix-system/internal/services/payroll"
)

type PaymentHTTPHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	payroll *payroll.Service
	log     *zap.SugaredLogger
}

func NewPaymentHTTPHandler(db *gorm.DB, redisClient *redis.Client, payrollSvc *payroll.Service, log *zap.SugaredLogger) *PaymentHTTPHandler {
	return &PaymentHTTPHandler{
		db:      db,
		redis:   redisClient,
		payroll: payrollSvc,
		log:     log,
	}
}

type CreatePaymentRequest struct {
	StudentID     string   `json:"student_id" binding:"required"`
	Amount        string   `json:"amount" binding:"required"`
	Status        string   `json:"status" binding:"omitempty,oneof=pending completed failed"`
	Month         string   `json:"month"`
	Year          string   `json:"year"`
	ClassIDs      []string `json:"class_ids"`
	TransactionID string   `json:"transaction_id"`
	Notes         *string  `json:"notes"`
}

type UpdatePaymentRequest struct {
	Amount   *string   `json:"amount"`
	Status   *string   `json:"status" binding:"omitempty,oneof=pending completed failed"`
	Month    *string   `json:"month"`
	Year     *string   `json:"year"`
	ClassIDs *[]string `json:"class_ids"`
	Notes    *string   `json:"notes"`
}

func validAmount(s string) bool {
	d, err := decimal.NewFromString(s)
	return err == nil && d.IsPositive()
}

func validMonth(s string) bool {
	if len(s) != 2 {
		return false
	}
	m, err := strconv.Atoi(s)
	return err == nil && m >= 1 && m <= 12
}

func validYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// CreatePayment saves the payment first and only then, when the payment is
// already completed, posts payroll best-effort. A payroll failure is reported
// in the response meta but never rolls the payment back.
func (h *PaymentHTTPHandler) CreatePayment(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	if !validAmount(req.Amount) {
		c.JSON(http.StatusBadRequest, errorResponse("Amount must be a positive decimal"))
		return
	}
	if req.Month != "" && !validMonth(req.Month) {
		c.JSON(http.StatusBadRequest, errorResponse("Month must be a 2-digit value between 01 and 12"))
		return
	}
	if req.Year != "" && !validYear(req.Year) {
		c.JSON(http.StatusBadRequest, errorResponse("Year must be a 4-digit value"))
		return
	}

	status := req.Status
	if status == "" {
		status = models.PaymentStatusPending
	}

	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	amount, _ := decimal.NewFromString(req.Amount)

	payment := models.Payment{
		ID:            uuid.NewString(),
		OrgID:         orgID,
		StudentID:     req.StudentID,
		Amount:        amount.StringFixed(2),
		Status:        status,
		Month:         req.Month,
		Year:          req.Year,
		ClassIDs:      models.StringArray(req.ClassIDs),
		TransactionID: transactionID,
		Notes:         req.Notes,
	}

	if err := h.db.Create(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create payment"))
		return
	}

	var postResult *payroll.PostResult
	if payment.Status == models.PaymentStatusCompleted {
		split := h.payroll.SplitForOrg(c.Request.Context(), orgID)
		res := h.payroll.PostPayment(c.Request.Context(), payment, split)
		postResult = &res
	}

	c.JSON(http.StatusCreated, successWithMetaResponse("Payment created", payment, gin.H{
		"payroll": postResult,
	}))
}

func (h *PaymentHTTPHandler) ListPayments(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	page, pageSize := paginationParams(c)

	query := h.db.Model(&models.Payment{}).Where("org_id = ?", orgID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if month := c.Query("month"); month != "" {
		query = query.Where("month = ?", month)
	}
	if year := c.Query("year"); year != "" {
		query = query.Where("year = ?", year)
	}
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to count payments"))
		return
	}

	var payments []models.Payment
	if err := query.Order("created_at desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to retrieve payments"))
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Payments retrieved", payments, PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}))
}

func (h *PaymentHTTPHandler) GetPayment(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var payment models.Payment
	if err := h.db.Where("id = ? AND org_id = ?", c.Param("id"), orgID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Payment not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Payment retrieved", payment))
}

// UpdatePayment edits a payment. A transition into completed posts payroll
// best-effort; work already posted against an earlier state is never retracted.
func (h *PaymentHTTPHandler) UpdatePayment(c *gin.Context) {
	orgID := middleware.OrgID(c)
	if orgID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Organization is required"))
		return
	}

	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format: "+err.Error()))
		return
	}

	var payment models.Payment
	if err := h.db.Where("id = ? AND org_id = ?", c.Param("id"), orgID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Payment not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	wasCompleted := payment.Status == models.PaymentStatusCompleted

	if req.Amount != nil {
		if !validAmount(*req.Amount) {
			c.JSON(http.StatusBadRequest, errorResponse("Amount must be a positive decimal"))
			return
		}
		amount, _ := decimal.NewFromString(*req.Amount)
		payment.Amount = amount.StringFixed(2)
	}
	if req.Status != nil {
		payment.Status = *req.Status
	}
	if req.Month != nil {
		if !validMonth(*req.Month) {
			c.JSON(http.StatusBadRequest, errorResponse("Month must be a 2-digit value between 01 and 12"))
			return
		}
		payment.Month = *req.Month
	}
	if req.Year != nil {
		if !validYear(*req.Year) {
			c.JSON(http.StatusBadRequest, errorResponse("Year must be a 4-digit value"))
			return
		}
		payment.Year = *req.Year
	}
	if req.ClassIDs != nil {
		payment.ClassIDs = models.StringArray(*req.ClassIDs)
	}
	if req.Notes != nil {
		payment.Notes = req.Notes
	}

	if err := h.db.Save(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update payment"))
		return
	}

	var postResult *payroll.PostResult
	if !wasCompleted && payment.Status == models.PaymentStatusCompleted {
		split := h.payroll.SplitForOrg(c.Request.Context(), orgID)
		res := h.payroll.PostPayment(c.Request.Context(), payment, split)
		postResult = &res
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Payment updated", payment, gin.H{
		"payroll": postResult,
	}))
}
