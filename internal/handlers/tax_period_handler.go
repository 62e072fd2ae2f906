package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/cityhall/internal/errors"
	"github.com/stwalsh4118/cityhall/internal/middleware"
	"github.com/stwalsh4118/cityhall/internal/services"
)

// TaxPeriodHandler handles tax period catalog HTTP requests.
type TaxPeriodHandler struct {
	service services.TaxPeriodService
}

// NewTaxPeriodHandler creates a new TaxPeriodHandler instance.
func NewTaxPeriodHandler(service services.TaxPeriodService) *TaxPeriodHandler {
	return &TaxPeriodHandler{service: service}
}

// TaxPeriodRequest is the body of POST and PUT /tax-periods.
// IsActive defaults to true when omitted.
type TaxPeriodRequest struct {
	IsActive  *bool  `json:"is_active"`
	Name      string `json:"name"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
}

// TaxPeriodListQuery are the query parameters of GET /tax-periods.
type TaxPeriodListQuery struct {
	Active *bool `form:"active"`
}

func (r TaxPeriodRequest) params() services.TaxPeriodParams {
	p := services.TaxPeriodParams{Name: r.Name, IsActive: true}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	if d := parseDate(r.StartDate); d != nil {
		p.StartDate = *d
	}
	if d := parseDate(r.EndDate); d != nil {
		p.EndDate = *d
	}
	return p
}

// List handles GET /api/v1/tax-periods.
func (h *TaxPeriodHandler) List(c *gin.Context) {
	var q TaxPeriodListQuery
	if !bindQuery(c, &q) {
		return
	}
	periods, err := h.service.List(c.Request.Context(), middleware.GetPrincipal(c), q.Active)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": periods})
}

// Create handles POST /api/v1/tax-periods.
func (h *TaxPeriodHandler) Create(c *gin.Context) {
	var req TaxPeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.service.Create(c.Request.Context(), middleware.GetPrincipal(c), req.params())
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusCreated, period)
}

// Get handles GET /api/v1/tax-periods/:id.
func (h *TaxPeriodHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	period, err := h.service.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

// Update handles PUT /api/v1/tax-periods/:id.
func (h *TaxPeriodHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req TaxPeriodRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.service.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req.params())
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

// Delete handles DELETE /api/v1/tax-periods/:id.
func (h *TaxPeriodHandler) Delete(c *gin.Context) {
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
