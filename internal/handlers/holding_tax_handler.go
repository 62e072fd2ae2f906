package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/cityhall/internal/auth"
	apierrors "github.com/stwalsh4118/cityhall/internal/errors"
	"github.com/stwalsh4118/cityhall/internal/middleware"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
	"github.com/stwalsh4118/cityhall/internal/services"
)

// HoldingTaxHandler handles holding tax ledger HTTP requests.
type HoldingTaxHandler struct {
	service services.HoldingTaxService
}

// NewHoldingTaxHandler creates a new HoldingTaxHandler instance.
func NewHoldingTaxHandler(service services.HoldingTaxService) *HoldingTaxHandler {
	return &HoldingTaxHandler{service: service}
}

// HoldingTaxListQuery are the query parameters of GET /holding-taxes.
type HoldingTaxListQuery struct {
	Status  string `form:"status" binding:"omitempty,oneof=PENDING PAID PARTIAL OVERDUE WAIVED"`
	Overdue bool   `form:"overdue"`
	PageQuery
}

// CreateHoldingTaxRequest is the body of POST /holding-taxes.
// An omitted tax_amount defaults to the property's annual tax.
type CreateHoldingTaxRequest struct {
	TaxAmount     *decimal.Decimal `json:"tax_amount"`
	PenaltyAmount decimal.Decimal  `json:"penalty_amount"`
	DueDate       string           `json:"due_date" binding:"required,datetime=2006-01-02"`
	Notes         string           `json:"notes"`
	PropertyID    int64            `json:"property_id"`
	TaxPeriodID   int64            `json:"tax_period_id"`
}

// UpdateHoldingTaxRequest is the body of PUT /holding-taxes/:id. Omitted
// fields are left unchanged.
type UpdateHoldingTaxRequest struct {
	DueDate       *string          `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	PenaltyAmount *decimal.Decimal `json:"penalty_amount"`
	Notes         *string          `json:"notes"`
}

// PaymentRequest is the body of POST /holding-taxes/:id/payments.
type PaymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     string          `json:"payment_date" binding:"omitempty,datetime=2006-01-02"`
	PaymentMethod   string          `json:"payment_method"`
	ReferenceNumber string          `json:"reference_number"`
	ChequeNumber    string          `json:"cheque_number"`
	BankName        string          `json:"bank_name"`
	Notes           string          `json:"notes"`
}

// PaymentResponse pairs a recorded payment with the reconciled entry.
type PaymentResponse struct {
	HoldingTax *models.HoldingTax `json:"holding_tax"`
	Payment    *models.TaxPayment `json:"payment"`
}

// ReviewRequest is the body of the approve and reject endpoints. Reason is
// required for a rejection and optional for a waiver.
type ReviewRequest struct {
	Reason string `json:"reason"`
}

// List handles GET /api/v1/holding-taxes.
func (h *HoldingTaxHandler) List(c *gin.Context) {
	var q HoldingTaxListQuery
	if !bindQuery(c, &q) {
		return
	}

	list, err := h.service.List(c.Request.Context(), middleware.GetPrincipal(c), repository.HoldingTaxFilter{
		Search:  q.Search,
		Status:  models.HoldingTaxStatus(q.Status),
		Overdue: q.Overdue,
		Page:    q.Page,
	})
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create handles POST /api/v1/holding-taxes.
func (h *HoldingTaxHandler) Create(c *gin.Context) {
	var req CreateHoldingTaxRequest
	if !bindJSON(c, &req) {
		return
	}

	params := services.CreateHoldingTaxParams{
		TaxAmount:     req.TaxAmount,
		PenaltyAmount: req.PenaltyAmount,
		Notes:         req.Notes,
		PropertyID:    req.PropertyID,
		TaxPeriodID:   req.TaxPeriodID,
	}
	if d := parseDate(req.DueDate); d != nil {
		params.DueDate = *d
	}

	entry, err := h.service.Create(c.Request.Context(), middleware.GetPrincipal(c), params)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// Get handles GET /api/v1/holding-taxes/:id.
func (h *HoldingTaxHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Update handles PUT /api/v1/holding-taxes/:id.
func (h *HoldingTaxHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req UpdateHoldingTaxRequest
	if !bindJSON(c, &req) {
		return
	}

	params := services.UpdateHoldingTaxParams{
		PenaltyAmount: req.PenaltyAmount,
		Notes:         req.Notes,
	}
	if req.DueDate != nil {
		params.DueDate = parseDate(*req.DueDate)
	}

	entry, err := h.service.Update(c.Request.Context(), middleware.GetPrincipal(c), id, params)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete handles DELETE /api/v1/holding-taxes/:id.
func (h *HoldingTaxHandler) Delete(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordPayment handles POST /api/v1/holding-taxes/:id/payments.
func (h *HoldingTaxHandler) RecordPayment(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req PaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	entry, payment, err := h.service.RecordPayment(c.Request.Context(), middleware.GetPrincipal(c), id, services.PaymentParams{
		PaymentDate:     parseDate(req.PaymentDate),
		Amount:          req.Amount,
		Method:          models.PaymentMethod(req.PaymentMethod),
		ReferenceNumber: req.ReferenceNumber,
		ChequeNumber:    req.ChequeNumber,
		BankName:        req.BankName,
		Notes:           req.Notes,
	})
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusCreated, PaymentResponse{HoldingTax: entry, Payment: payment})
}

// ListPayments handles GET /api/v1/holding-taxes/:id/payments.
func (h *HoldingTaxHandler) ListPayments(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	payments, err := h.service.ListPayments(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": payments})
}

// Approve handles POST /api/v1/holding-taxes/:id/approve.
func (h *HoldingTaxHandler) Approve(c *gin.Context) {
	h.review(c, h.service.Approve)
}

// Reject handles POST /api/v1/holding-taxes/:id/reject.
func (h *HoldingTaxHandler) Reject(c *gin.Context) {
	h.review(c, h.service.Reject)
}

type reviewFunc func(ctx context.Context, actor *auth.Principal, id int64, reason string) (*models.HoldingTax, error)

func (h *HoldingTaxHandler) review(c *gin.Context, decide reviewFunc) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	entry, err := decide(c.Request.Context(), middleware.GetPrincipal(c), id, req.Reason)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// PendingQueue handles GET /api/v1/officer/holding-taxes.
func (h *HoldingTaxHandler) PendingQueue(c *gin.Context) {
	var q PageQuery
	if !bindQuery(c, &q) {
		return
	}
	list, err := h.service.PendingQueue(c.Request.Context(), middleware.GetPrincipal(c), q.Search, q.Page)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Mine handles GET /api/v1/me/holding-taxes.
func (h *HoldingTaxHandler) Mine(c *gin.Context) {
	var q PageQuery
	if !bindQuery(c, &q) {
		return
	}
	list, err := h.service.ListForCitizen(c.Request.Context(), middleware.GetPrincipal(c), q.Page)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
