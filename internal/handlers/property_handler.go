package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/cityhall/internal/errors"
	"github.com/stwalsh4118/cityhall/internal/middleware"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
	"github.com/stwalsh4118/cityhall/internal/services"
)

// PropertyHandler handles property registry and approval HTTP requests.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// PropertyListQuery are the query parameters of GET /properties.
type PropertyListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=DRAFT PENDING_APPROVAL APPROVED REJECTED"`
	PageQuery
}

// RejectPropertyRequest is the body of POST /properties/:id/reject.
type RejectPropertyRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

// List handles GET /api/v1/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	var q PropertyListQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.service.List(c.Request.Context(), middleware.GetPrincipal(c), repository.PropertyFilter{
		Search: q.Search,
		Status: models.PropertyStatus(q.Status),
		Page:   q.Page,
	})
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create handles POST /api/v1/properties.
func (h *PropertyHandler) Create(c *gin.Context) {
	var req services.PropertyParams
	if !bindJSON(c, &req) {
		return
	}
	property, err := h.service.Create(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusCreated, property)
}

// Get handles GET /api/v1/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	property, err := h.service.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// Update handles PUT /api/v1/properties/:id.
func (h *PropertyHandler) Update(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req services.PropertyParams
	if !bindJSON(c, &req) {
		return
	}
	property, err := h.service.Update(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// Delete handles DELETE /api/v1/properties/:id.
func (h *PropertyHandler) Delete(c *gin.Context) {
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

// Submit handles POST /api/v1/properties/:id/submit.
func (h *PropertyHandler) Submit(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	property, err := h.service.Submit(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// Approve handles POST /api/v1/properties/:id/approve.
func (h *PropertyHandler) Approve(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	property, err := h.service.Approve(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// Reject handles POST /api/v1/properties/:id/reject.
func (h *PropertyHandler) Reject(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req RejectPropertyRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	property, err := h.service.Reject(c.Request.Context(), middleware.GetPrincipal(c), id, req.RejectionReason)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, property)
}

// PendingQueue handles GET /api/v1/officer/properties.
func (h *PropertyHandler) PendingQueue(c *gin.Context) {
	var q PageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.service.PendingQueue(c.Request.Context(), middleware.GetPrincipal(c), q.Search, q.Page)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Mine handles GET /api/v1/me/properties.
func (h *PropertyHandler) Mine(c *gin.Context) {
	var q PageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, err := h.service.ListForCitizen(c.Request.Context(), middleware.GetPrincipal(c), q.Page)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
