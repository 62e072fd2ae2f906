package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/cityhall/internal/errors"
	"github.com/stwalsh4118/cityhall/internal/middleware"
	"github.com/stwalsh4118/cityhall/internal/services"
)

// DashboardHandler serves the role-specific overviews.
type DashboardHandler struct {
	service services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler instance.
func NewDashboardHandler(service services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// FieldOfficer handles GET /api/v1/dashboard/field-officer.
func (h *DashboardHandler) FieldOfficer(c *gin.Context) {
	d, err := h.service.FieldOfficer(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Officer handles GET /api/v1/dashboard/officer.
func (h *DashboardHandler) Officer(c *gin.Context) {
	d, err := h.service.Officer(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Citizen handles GET /api/v1/dashboard/citizen.
func (h *DashboardHandler) Citizen(c *gin.Context) {
	d, err := h.service.Citizen(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
