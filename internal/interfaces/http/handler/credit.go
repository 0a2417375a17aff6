package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	financeapp "github.com/tasheel/backend/internal/application/finance"
	"github.com/tasheel/backend/internal/domain/partner"
)

// CreditHandler handles credit position API endpoints
type CreditHandler struct {
	BaseHandler
	creditService *financeapp.CreditService
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(creditService *financeapp.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// CreditUsageResponse represents a customer's credit position
type CreditUsageResponse struct {
	CustomerID       string  `json:"customer_id"`
	CreditLimit      float64 `json:"credit_limit"`
	TotalOutstanding float64 `json:"total_outstanding"`
	AvailableCredit  float64 `json:"available_credit"`
}

// GetUsage retrieves a customer's current credit usage snapshot
func (h *CreditHandler) GetUsage(c *gin.Context) {
	customerID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	usage, err := h.creditService.UsageFor(c.Request.Context(), customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CreditUsageResponse{
		CustomerID:       customerID.String(),
		CreditLimit:      usage.CreditLimit.InexactFloat64(),
		TotalOutstanding: usage.TotalOutstanding.InexactFloat64(),
		AvailableCredit:  usage.AvailableCredit().InexactFloat64(),
	})
}

// SetCreditProfileRequest represents a request to set a customer's credit terms
type SetCreditProfileRequest struct {
	Kind        string  `json:"kind" binding:"required,oneof=COMPANY INDIVIDUAL"`
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	CreditLimit float64 `json:"credit_limit" binding:"gte=0"`
}

// CreditProfileResponse represents a customer's credit terms
type CreditProfileResponse struct {
	CustomerID  string  `json:"customer_id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	CreditLimit float64 `json:"credit_limit"`
}

// GetProfile retrieves a customer's credit terms
func (h *CreditHandler) GetProfile(c *gin.Context) {
	customerID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	profile, err := h.creditService.ProfileFor(c.Request.Context(), customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCreditProfileResponse(profile))
}

// SetProfile writes a customer's credit terms
func (h *CreditHandler) SetProfile(c *gin.Context) {
	customerID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	var req SetCreditProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	profile := &partner.CreditProfile{
		CustomerID:  customerID,
		Kind:        partner.CustomerKind(req.Kind),
		Name:        req.Name,
		CreditLimit: decimal.NewFromFloat(req.CreditLimit),
	}
	if err := h.creditService.SetProfile(c.Request.Context(), profile); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCreditProfileResponse(profile))
}

func toCreditProfileResponse(profile *partner.CreditProfile) CreditProfileResponse {
	return CreditProfileResponse{
		CustomerID:  profile.CustomerID.String(),
		Kind:        string(profile.Kind),
		Name:        profile.Name,
		CreditLimit: profile.CreditLimit.InexactFloat64(),
	}
}
