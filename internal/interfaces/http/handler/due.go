package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	financeapp "github.com/tasheel/backend/internal/application/finance"
	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/interfaces/http/dto"
)

// DueHandler handles due ledger API endpoints
type DueHandler struct {
	BaseHandler
	dueService *financeapp.DueService
}

// NewDueHandler creates a new DueHandler
func NewDueHandler(dueService *financeapp.DueService) *DueHandler {
	return &DueHandler{dueService: dueService}
}

// ===================== Request/Response DTOs =====================

// RecordDuePaymentRequest represents a request to record a collection
type RecordDuePaymentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required,oneof=CASH CARD BANK_TRANSFER CHEQUE"`
	Remark string  `json:"remark" binding:"omitempty,max=500"`
}

// CancelDueRequest represents a request to cancel a due
type CancelDueRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// DuePaymentRecordResponse represents a payment record in API responses
type DuePaymentRecordResponse struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	AppliedAt time.Time `json:"applied_at"`
	Remark    string    `json:"remark,omitempty"`
}

// DueResponse represents a due in API responses
type DueResponse struct {
	ID             string                     `json:"id"`
	DueNumber      string                     `json:"due_number"`
	CustomerID     string                     `json:"customer_id"`
	CustomerName   string                     `json:"customer_name"`
	BillingID      string                     `json:"billing_id"`
	BillingNumber  string                     `json:"billing_number"`
	OriginalAmount float64                    `json:"original_amount"`
	PaidAmount     float64                    `json:"paid_amount"`
	DueAmount      float64                    `json:"due_amount"`
	Status         string                     `json:"status"`
	Priority       string                     `json:"priority"`
	DueDate        time.Time                  `json:"due_date"`
	PaymentRecords []DuePaymentRecordResponse `json:"payment_records,omitempty"`
	Remark         string                     `json:"remark,omitempty"`
	PaidAt         *time.Time                 `json:"paid_at,omitempty"`
	OverdueAt      *time.Time                 `json:"overdue_at,omitempty"`
	CancelledAt    *time.Time                 `json:"cancelled_at,omitempty"`
	CancelReason   string                     `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
	Version        int                        `json:"version"`
}

// SweepOverdueResponse reports how many dues an overdue sweep transitioned
type SweepOverdueResponse struct {
	Swept int `json:"swept"`
}

// ===================== Handlers =====================

// RecordPayment applies a collected payment against a due
func (h *DueHandler) RecordPayment(c *gin.Context) {
	dueID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid due ID format")
		return
	}

	var req RecordDuePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	due, err := h.dueService.RecordPayment(
		c.Request.Context(),
		dueID,
		decimal.NewFromFloat(req.Amount),
		finance.PaymentMethod(req.Method),
		req.Remark,
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDueResponse(due))
}

// Cancel voids a due that has no recorded collections
func (h *DueHandler) Cancel(c *gin.Context) {
	dueID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid due ID format")
		return
	}

	var req CancelDueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	due, err := h.dueService.CancelDue(c.Request.Context(), dueID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDueResponse(due))
}

// Get retrieves a due by ID
func (h *DueHandler) Get(c *gin.Context) {
	dueID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid due ID format")
		return
	}

	due, err := h.dueService.GetDue(c.Request.Context(), dueID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDueResponse(due))
}

// GetForBilling retrieves the due opened for a billing, if any
func (h *DueHandler) GetForBilling(c *gin.Context) {
	billingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	due, err := h.dueService.GetDueForBilling(c.Request.Context(), billingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if due == nil {
		h.NotFound(c, "No due exists for this billing")
		return
	}

	h.Success(c, toDueResponse(due))
}

// List retrieves dues matching the query
func (h *DueHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := buildFilter(req)
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if priority := c.Query("priority"); priority != "" {
		filter.Filters["priority"] = priority
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.Filters["customer_id"] = customerID
	}

	dues, err := h.dueService.ListDues(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDueResponses(dues))
}

// ListOutstanding retrieves a customer's open dues, oldest first
func (h *DueHandler) ListOutstanding(c *gin.Context) {
	customerID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	dues, err := h.dueService.ListOutstanding(c.Request.Context(), customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDueResponses(dues))
}

// SweepOverdue marks past-due pending/partial records as overdue
func (h *DueHandler) SweepOverdue(c *gin.Context) {
	swept, err := h.dueService.SweepOverdue(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, SweepOverdueResponse{Swept: swept})
}

// ===================== Converters =====================

func toDueResponse(due *finance.Due) DueResponse {
	records := make([]DuePaymentRecordResponse, 0, len(due.PaymentRecords))
	for _, record := range due.PaymentRecords {
		records = append(records, DuePaymentRecordResponse{
			ID:        record.ID.String(),
			Amount:    record.Amount.InexactFloat64(),
			Method:    string(record.Method),
			AppliedAt: record.AppliedAt,
			Remark:    record.Remark,
		})
	}

	return DueResponse{
		ID:             due.ID.String(),
		DueNumber:      due.DueNumber,
		CustomerID:     due.CustomerID.String(),
		CustomerName:   due.CustomerName,
		BillingID:      due.BillingID.String(),
		BillingNumber:  due.BillingNumber,
		OriginalAmount: due.OriginalAmount.InexactFloat64(),
		PaidAmount:     due.PaidAmount.InexactFloat64(),
		DueAmount:      due.DueAmount.InexactFloat64(),
		Status:         due.Status.String(),
		Priority:       string(due.Priority),
		DueDate:        due.DueDate,
		PaymentRecords: records,
		Remark:         due.Remark,
		PaidAt:         due.PaidAt,
		OverdueAt:      due.OverdueAt,
		CancelledAt:    due.CancelledAt,
		CancelReason:   due.CancelReason,
		CreatedAt:      due.CreatedAt,
		UpdatedAt:      due.UpdatedAt,
		Version:        due.Version,
	}
}

func toDueResponses(dues []finance.Due) []DueResponse {
	responses := make([]DueResponse, 0, len(dues))
	for i := range dues {
		responses = append(responses, toDueResponse(&dues[i]))
	}
	return responses
}
