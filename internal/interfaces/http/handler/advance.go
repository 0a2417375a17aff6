package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	financeapp "github.com/tasheel/backend/internal/application/finance"
	"github.com/tasheel/backend/internal/domain/finance"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/interfaces/http/dto"
)

// AdvanceHandler handles advance payment API endpoints
type AdvanceHandler struct {
	BaseHandler
	advanceService *financeapp.AdvanceService
}

// NewAdvanceHandler creates a new AdvanceHandler
func NewAdvanceHandler(advanceService *financeapp.AdvanceService) *AdvanceHandler {
	return &AdvanceHandler{advanceService: advanceService}
}

// ===================== Request/Response DTOs =====================

// RecordReceiptRequest represents a request to enter an advance payment
type RecordReceiptRequest struct {
	CustomerID   string  `json:"customer_id" binding:"required,uuid"`
	CustomerKind string  `json:"customer_kind" binding:"required,oneof=COMPANY INDIVIDUAL"`
	CustomerName string  `json:"customer_name" binding:"required,min=1,max=200"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	PaymentDate  string  `json:"payment_date" binding:"required"`
	Method       string  `json:"method" binding:"required,oneof=CASH CARD BANK_TRANSFER CHEQUE"`
	Remark       string  `json:"remark" binding:"omitempty,max=500"`
}

// AmendReceiptRequest represents a request to correct a receipt amount
type AmendReceiptRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Remark string  `json:"remark" binding:"omitempty,max=500"`
}

// AdvanceReceiptResponse represents an advance receipt in API responses
type AdvanceReceiptResponse struct {
	ID               string    `json:"id"`
	ReceiptNumber    string    `json:"receipt_number"`
	CustomerID       string    `json:"customer_id"`
	CustomerKind     string    `json:"customer_kind"`
	CustomerName     string    `json:"customer_name"`
	Amount           float64   `json:"amount"`
	AllocatedAmount  float64   `json:"allocated_amount"`
	RemainingBalance float64   `json:"remaining_balance"`
	PaymentDate      time.Time `json:"payment_date"`
	Method           string    `json:"method"`
	Remark           string    `json:"remark,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int       `json:"version"`
}

// BillingAllocationResponse represents an allocation in API responses
type BillingAllocationResponse struct {
	ID        string    `json:"id"`
	ReceiptID string    `json:"receipt_id"`
	BillingID string    `json:"billing_id"`
	Amount    float64   `json:"amount"`
	AppliedAt time.Time `json:"applied_at"`
	Remark    string    `json:"remark,omitempty"`
}

// CustomerBalanceResponse represents a customer's unspent advance balance
type CustomerBalanceResponse struct {
	CustomerID string  `json:"customer_id"`
	Balance    float64 `json:"balance"`
}

// ===================== Handlers =====================

// RecordReceipt enters a new advance payment
func (h *AdvanceHandler) RecordReceipt(c *gin.Context) {
	var req RecordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	customerID, err := parseUUID(req.CustomerID)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	receipt, err := h.advanceService.RecordReceipt(c.Request.Context(), financeapp.RecordReceiptRequest{
		CustomerID:   customerID,
		CustomerKind: partner.CustomerKind(req.CustomerKind),
		CustomerName: req.CustomerName,
		Amount:       decimal.NewFromFloat(req.Amount),
		PaymentDate:  paymentDate,
		Method:       finance.PaymentMethod(req.Method),
		Remark:       req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toReceiptResponse(receipt))
}

// AmendReceipt corrects a receipt amount
func (h *AdvanceHandler) AmendReceipt(c *gin.Context) {
	receiptID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID format")
		return
	}

	var req AmendReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	receipt, err := h.advanceService.AmendReceipt(c.Request.Context(), receiptID, decimal.NewFromFloat(req.Amount), req.Remark)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toReceiptResponse(receipt))
}

// Get retrieves a receipt by ID
func (h *AdvanceHandler) Get(c *gin.Context) {
	receiptID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid receipt ID format")
		return
	}

	receipt, err := h.advanceService.GetReceipt(c.Request.Context(), receiptID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toReceiptResponse(receipt))
}

// ListByCustomer retrieves a customer's receipts
func (h *AdvanceHandler) ListByCustomer(c *gin.Context) {
	customerID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	receipts, err := h.advanceService.ListReceipts(c.Request.Context(), customerID, buildFilter(req))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toReceiptResponses(receipts))
}

// CustomerBalance retrieves a customer's unspent advance balance
func (h *AdvanceHandler) CustomerBalance(c *gin.Context) {
	customerID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	balance, err := h.advanceService.CustomerBalance(c.Request.Context(), customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CustomerBalanceResponse{
		CustomerID: customerID.String(),
		Balance:    balance.InexactFloat64(),
	})
}

// ListAllocationsForBilling retrieves the allocations recorded against a billing
func (h *AdvanceHandler) ListAllocationsForBilling(c *gin.Context) {
	billingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	allocations, err := h.advanceService.ListAllocationsForBilling(c.Request.Context(), billingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]BillingAllocationResponse, 0, len(allocations))
	for _, allocation := range allocations {
		responses = append(responses, BillingAllocationResponse{
			ID:        allocation.ID.String(),
			ReceiptID: allocation.ReceiptID.String(),
			BillingID: allocation.BillingID.String(),
			Amount:    allocation.Amount.InexactFloat64(),
			AppliedAt: allocation.AppliedAt,
			Remark:    allocation.Remark,
		})
	}

	h.Success(c, responses)
}

// ===================== Converters =====================

func toReceiptResponse(receipt *finance.AdvanceReceipt) AdvanceReceiptResponse {
	return AdvanceReceiptResponse{
		ID:               receipt.ID.String(),
		ReceiptNumber:    receipt.ReceiptNumber,
		CustomerID:       receipt.CustomerID.String(),
		CustomerKind:     string(receipt.CustomerKind),
		CustomerName:     receipt.CustomerName,
		Amount:           receipt.Amount.InexactFloat64(),
		AllocatedAmount:  receipt.AllocatedAmount.InexactFloat64(),
		RemainingBalance: receipt.RemainingBalance().InexactFloat64(),
		PaymentDate:      receipt.PaymentDate,
		Method:           string(receipt.Method),
		Remark:           receipt.Remark,
		CreatedAt:        receipt.CreatedAt,
		UpdatedAt:        receipt.UpdatedAt,
		Version:          receipt.Version,
	}
}

func toReceiptResponses(receipts []finance.AdvanceReceipt) []AdvanceReceiptResponse {
	responses := make([]AdvanceReceiptResponse, 0, len(receipts))
	for i := range receipts {
		responses = append(responses, toReceiptResponse(&receipts[i]))
	}
	return responses
}
