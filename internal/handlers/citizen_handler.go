package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/cityhall/internal/errors"
	"github.com/stwalsh4118/cityhall/internal/middleware"
	"github.com/stwalsh4118/cityhall/internal/repository"
	"github.com/stwalsh4118/cityhall/internal/services"
)

// CitizenHandler handles citizen registry HTTP requests.
type CitizenHandler struct {
	service services.CitizenService
}

// NewCitizenHandler creates a new CitizenHandler instance.
func NewCitizenHandler(service services.CitizenService) *CitizenHandler {
	return &CitizenHandler{service: service}
}

// CreateCitizenRequest is the body of POST /citizens.
type CreateCitizenRequest struct {
	UserID      *string `json:"user_id"`
	NationalID  string  `json:"national_id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
	DateOfBirth string  `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
}

// CitizenListQuery are the query parameters of GET /citizens.
type CitizenListQuery struct {
	Active *bool `form:"active"`
	PageQuery
}

// List handles GET /api/v1/citizens.
func (h *CitizenHandler) List(c *gin.Context) {
	var q CitizenListQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.service.List(c.Request.Context(), middleware.GetPrincipal(c), repository.CitizenFilter{
		Active: q.Active,
		Search: q.Search,
		Page:   q.Page,
	})
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create handles POST /api/v1/citizens.
func (h *CitizenHandler) Create(c *gin.Context) {
	var req CreateCitizenRequest
	if !bindJSON(c, &req) {
		return
	}

	citizen, err := h.service.Create(c.Request.Context(), middleware.GetPrincipal(c), services.CreateCitizenParams{
		DateOfBirth: parseDate(req.DateOfBirth),
		UserID:      req.UserID,
		NationalID:  req.NationalID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
	})
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusCreated, citizen)
}

// Get handles GET /api/v1/citizens/:id.
func (h *CitizenHandler) Get(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	citizen, err := h.service.Get(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, citizen)
}

// UpdateContact handles PATCH /api/v1/citizens/:id/contact.
func (h *CitizenHandler) UpdateContact(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}
	var req services.ContactParams
	if !bindJSON(c, &req) {
		return
	}

	citizen, err := h.service.UpdateContact(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, citizen)
}

// Deactivate handles POST /api/v1/citizens/:id/deactivate.
func (h *CitizenHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

// Activate handles POST /api/v1/citizens/:id/activate.
func (h *CitizenHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *CitizenHandler) setActive(c *gin.Context, active bool) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	change := h.service.Deactivate
	if active {
		change = h.service.Activate
	}
	citizen, err := change(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		apierrors.FromService(c, err)
		return
	}
	c.JSON(http.StatusOK, citizen)
}

// Delete handles DELETE /api/v1/citizens/:id.
func (h *CitizenHandler) Delete(c *gin.Context) {
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
