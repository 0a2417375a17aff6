package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	billingapp "github.com/tasheel/backend/internal/application/billing"
	"github.com/tasheel/backend/internal/domain/billing"
	"github.com/tasheel/backend/internal/domain/partner"
	"github.com/tasheel/backend/internal/interfaces/http/dto"
)

// BillingHandler handles billing API endpoints
type BillingHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *billingapp.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// ===================== Request/Response DTOs =====================

// ServiceLineRequest represents one service line in a billing request
type ServiceLineRequest struct {
	ServiceName              string   `json:"service_name" binding:"required,min=1,max=200"`
	UnitTypingCharge         float64  `json:"unit_typing_charge" binding:"gte=0"`
	UnitGovernmentCharge     float64  `json:"unit_government_charge" binding:"gte=0"`
	Quantity                 int      `json:"quantity" binding:"required,gt=0"`
	OverrideTypingCharge     *float64 `json:"override_typing_charge,omitempty" binding:"omitempty,gte=0"`
	OverrideGovernmentCharge *float64 `json:"override_government_charge,omitempty" binding:"omitempty,gte=0"`
}

// SubmitBillingRequest represents a request to submit a billing
type SubmitBillingRequest struct {
	CustomerID    string               `json:"customer_id" binding:"required,uuid"`
	CustomerKind  string               `json:"customer_kind" binding:"required,oneof=COMPANY INDIVIDUAL"`
	CustomerName  string               `json:"customer_name" binding:"required,min=1,max=200"`
	BillingDate   string               `json:"billing_date" binding:"omitempty"`
	Items         []ServiceLineRequest `json:"items" binding:"required,min=1,dive"`
	Discount      float64              `json:"discount" binding:"gte=0"`
	VendorCost    float64              `json:"vendor_cost" binding:"gte=0"`
	VATPercentage float64              `json:"vat_percentage" binding:"gte=0,lte=100"`
	VATMode       string               `json:"vat_mode" binding:"required,oneof=SERVICE_CHARGE TOTAL_AMOUNT"`
}

// EditBillingRequest represents a request to re-price a billing
type EditBillingRequest struct {
	Items         []ServiceLineRequest `json:"items" binding:"required,min=1,dive"`
	Discount      float64              `json:"discount" binding:"gte=0"`
	VendorCost    float64              `json:"vendor_cost" binding:"gte=0"`
	VATPercentage float64              `json:"vat_percentage" binding:"gte=0,lte=100"`
	VATMode       string               `json:"vat_mode" binding:"required,oneof=SERVICE_CHARGE TOTAL_AMOUNT"`
}

// UpdateBillingStatusRequest represents a lifecycle transition request
type UpdateBillingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=IN_PROGRESS COMPLETED CANCELLED"`
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ServiceChargeResponse represents a priced service line in API responses
type ServiceChargeResponse struct {
	ServiceName      string  `json:"service_name"`
	Quantity         int     `json:"quantity"`
	TypingCharge     float64 `json:"typing_charge"`
	GovernmentCharge float64 `json:"government_charge"`
	Discount         float64 `json:"discount"`
	VATPercentage    float64 `json:"vat_percentage"`
	VATMode          string  `json:"vat_mode"`
	Subtotal         float64 `json:"subtotal"`
	TotalAmount      float64 `json:"total_amount"`
	VATAmount        float64 `json:"vat_amount"`
	TotalWithVAT     float64 `json:"total_with_vat"`
	VendorCostShare  float64 `json:"vendor_cost_share"`
}

// BillingResponse represents a billing in API responses
type BillingResponse struct {
	ID            string                  `json:"id"`
	BillingNumber string                  `json:"billing_number"`
	CustomerID    string                  `json:"customer_id"`
	CustomerKind  string                  `json:"customer_kind"`
	CustomerName  string                  `json:"customer_name"`
	BillingDate   time.Time               `json:"billing_date"`
	Items         []ServiceChargeResponse `json:"items"`
	Discount      float64                 `json:"discount"`
	VendorCost    float64                 `json:"vendor_cost"`
	VATPercentage float64                 `json:"vat_percentage"`
	VATMode       string                  `json:"vat_mode"`
	TotalAmount   float64                 `json:"total_amount"`
	VATAmount     float64                 `json:"vat_amount"`
	TotalWithVAT  float64                 `json:"total_with_vat"`
	Status        string                  `json:"status"`
	Remark        string                  `json:"remark,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Version       int                     `json:"version"`
}

// WarningResponse represents a non-blocking issue reported with a result
type WarningResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmitBillingResponse represents the outcome of a billing submission
type SubmitBillingResponse struct {
	Billing             BillingResponse   `json:"billing"`
	Due                 *DueResponse      `json:"due,omitempty"`
	AppliedFromAdvances float64           `json:"applied_from_advances"`
	Warnings            []WarningResponse `json:"warnings"`
}

// EditBillingResponse represents the outcome of a billing edit
type EditBillingResponse struct {
	Billing  BillingResponse   `json:"billing"`
	Warnings []WarningResponse `json:"warnings"`
}

// RetrySettlementResponse represents the outcome of a settlement retry
type RetrySettlementResponse struct {
	BillingID string  `json:"billing_id"`
	Applied   float64 `json:"applied"`
}

// ===================== Handlers =====================

// Submit creates a billing from a service selection
func (h *BillingHandler) Submit(c *gin.Context) {
	var req SubmitBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	appReq, err := toSubmitRequest(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.billingService.Submit(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toSubmitBillingResponse(result))
}

// Edit re-prices an existing billing
func (h *BillingHandler) Edit(c *gin.Context) {
	billingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	var req EditBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.billingService.Edit(c.Request.Context(), billingapp.EditBillingRequest{
		BillingID:     billingID,
		Items:         toServiceLines(req.Items),
		Discount:      decimal.NewFromFloat(req.Discount),
		VendorCost:    decimal.NewFromFloat(req.VendorCost),
		VATPercentage: decimal.NewFromFloat(req.VATPercentage),
		VATMode:       billing.VATMode(req.VATMode),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, EditBillingResponse{
		Billing:  toBillingResponse(result.Billing),
		Warnings: toWarningResponses(result.Warnings),
	})
}

// Get retrieves a billing by ID
func (h *BillingHandler) Get(c *gin.Context) {
	billingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	b, err := h.billingService.GetBilling(c.Request.Context(), billingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBillingResponse(b))
}

// List retrieves billings matching the query
func (h *BillingHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	filter := buildFilter(req)
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.Filters["customer_id"] = customerID
	}

	billings, err := h.billingService.ListBillings(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBillingResponses(billings))
}

// ListByCustomer retrieves a customer's billings
func (h *BillingHandler) ListByCustomer(c *gin.Context) {
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

	billings, err := h.billingService.ListCustomerBillings(c.Request.Context(), customerID, buildFilter(req))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBillingResponses(billings))
}

// UpdateStatus applies a lifecycle transition to a billing
func (h *BillingHandler) UpdateStatus(c *gin.Context) {
	billingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	var req UpdateBillingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	b, err := h.billingService.UpdateStatus(c.Request.Context(), billingID, billing.BillingStatus(req.Status), req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBillingResponse(b))
}

// RetrySettlement re-runs advance settlement for a billing
func (h *BillingHandler) RetrySettlement(c *gin.Context) {
	billingID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid billing ID format")
		return
	}

	applied, err := h.billingService.RetrySettlement(c.Request.Context(), billingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, RetrySettlementResponse{
		BillingID: billingID.String(),
		Applied:   applied.InexactFloat64(),
	})
}

// ===================== Converters =====================

func toSubmitRequest(req SubmitBillingRequest) (billingapp.SubmitBillingRequest, error) {
	customerID, err := parseUUID(req.CustomerID)
	if err != nil {
		return billingapp.SubmitBillingRequest{}, err
	}

	var billingDate time.Time
	if req.BillingDate != "" {
		billingDate, err = parseDate(req.BillingDate)
		if err != nil {
			return billingapp.SubmitBillingRequest{}, err
		}
	}

	return billingapp.SubmitBillingRequest{
		CustomerID:    customerID,
		CustomerKind:  partner.CustomerKind(req.CustomerKind),
		CustomerName:  req.CustomerName,
		BillingDate:   billingDate,
		Items:         toServiceLines(req.Items),
		Discount:      decimal.NewFromFloat(req.Discount),
		VendorCost:    decimal.NewFromFloat(req.VendorCost),
		VATPercentage: decimal.NewFromFloat(req.VATPercentage),
		VATMode:       billing.VATMode(req.VATMode),
	}, nil
}

func toServiceLines(items []ServiceLineRequest) []billingapp.ServiceLineRequest {
	lines := make([]billingapp.ServiceLineRequest, 0, len(items))
	for _, item := range items {
		line := billingapp.ServiceLineRequest{
			ServiceName:          item.ServiceName,
			UnitTypingCharge:     decimal.NewFromFloat(item.UnitTypingCharge),
			UnitGovernmentCharge: decimal.NewFromFloat(item.UnitGovernmentCharge),
			Quantity:             item.Quantity,
		}
		if item.OverrideTypingCharge != nil {
			v := decimal.NewFromFloat(*item.OverrideTypingCharge)
			line.OverrideTyping = &v
		}
		if item.OverrideGovernmentCharge != nil {
			v := decimal.NewFromFloat(*item.OverrideGovernmentCharge)
			line.OverrideGovernment = &v
		}
		lines = append(lines, line)
	}
	return lines
}

func toServiceChargeResponse(item billing.ServiceCharge) ServiceChargeResponse {
	return ServiceChargeResponse{
		ServiceName:      item.ServiceName,
		Quantity:         item.Quantity,
		TypingCharge:     item.TypingCharge.InexactFloat64(),
		GovernmentCharge: item.GovernmentCharge.InexactFloat64(),
		Discount:         item.Discount.InexactFloat64(),
		VATPercentage:    item.VATPercentage.InexactFloat64(),
		VATMode:          item.VATMode.String(),
		Subtotal:         item.Subtotal.InexactFloat64(),
		TotalAmount:      item.TotalAmount.InexactFloat64(),
		VATAmount:        item.VATAmount.InexactFloat64(),
		TotalWithVAT:     item.TotalWithVAT.InexactFloat64(),
		VendorCostShare:  item.VendorCostShare.InexactFloat64(),
	}
}

func toBillingResponse(b *billing.Billing) BillingResponse {
	items := make([]ServiceChargeResponse, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, toServiceChargeResponse(item))
	}

	return BillingResponse{
		ID:            b.ID.String(),
		BillingNumber: b.BillingNumber,
		CustomerID:    b.CustomerID.String(),
		CustomerKind:  string(b.CustomerKind),
		CustomerName:  b.CustomerName,
		BillingDate:   b.BillingDate,
		Items:         items,
		Discount:      b.Discount.InexactFloat64(),
		VendorCost:    b.VendorCost.InexactFloat64(),
		VATPercentage: b.VATPercentage.InexactFloat64(),
		VATMode:       b.VATMode.String(),
		TotalAmount:   b.TotalAmount().InexactFloat64(),
		VATAmount:     b.VATAmount().InexactFloat64(),
		TotalWithVAT:  b.TotalWithVAT().InexactFloat64(),
		Status:        string(b.Status),
		Remark:        b.Remark,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
		Version:       b.Version,
	}
}

func toBillingResponses(billings []billing.Billing) []BillingResponse {
	responses := make([]BillingResponse, 0, len(billings))
	for i := range billings {
		responses = append(responses, toBillingResponse(&billings[i]))
	}
	return responses
}

func toWarningResponses(warnings []billingapp.Warning) []WarningResponse {
	responses := make([]WarningResponse, 0, len(warnings))
	for _, w := range warnings {
		responses = append(responses, WarningResponse{Code: w.Code, Message: w.Message})
	}
	return responses
}

func toSubmitBillingResponse(result *billingapp.SubmitBillingResult) SubmitBillingResponse {
	resp := SubmitBillingResponse{
		Billing:             toBillingResponse(result.Billing),
		AppliedFromAdvances: result.AppliedFromAdvances.InexactFloat64(),
		Warnings:            toWarningResponses(result.Warnings),
	}
	if result.Due != nil {
		due := toDueResponse(result.Due)
		resp.Due = &due
	}
	return resp
}
