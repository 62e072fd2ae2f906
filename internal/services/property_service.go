package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/logger"
	"github.com/stwalsh4118/cityhall/internal/metrics"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
)

// PropertyParams are the editable fields of a property draft.
type PropertyParams struct {
	AreaSqft       decimal.Decimal `json:"area_sqft" validate:"gt=0"`
	AssessedValue  decimal.Decimal `json:"assessed_value" validate:"gte=0"`
	TaxRate        decimal.Decimal `json:"tax_rate" validate:"gte=0,lte=100"`
	PropertyNumber string          `json:"property_number" validate:"required,max=50"`
	PropertyType   string          `json:"property_type" validate:"required,max=50"`
	Address        string          `json:"address" validate:"required"`
	City           string          `json:"city" validate:"max=100"`
	PostalCode     string          `json:"postal_code" validate:"max=20"`
	Notes          string          `json:"notes"`
	OwnerID        int64           `json:"owner_id" validate:"required,gt=0"`
}

// PropertyService manages the property registry and its approval workflow.
type PropertyService interface {
	// Create registers a DRAFT owned by an active citizen.
	Create(ctx context.Context, actor *auth.Principal, params PropertyParams) (*models.Property, error)
	Get(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error)
	List(ctx context.Context, actor *auth.Principal, f repository.PropertyFilter) (*models.Page[models.Property], error)
	// Update edits a draft. Only its creator may edit it.
	Update(ctx context.Context, actor *auth.Principal, id int64, params PropertyParams) (*models.Property, error)
	// Submit sends the creator's draft for review.
	Submit(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error)
	Approve(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error)
	// Reject closes a pending review; reason is required.
	Reject(ctx context.Context, actor *auth.Principal, id int64, reason string) (*models.Property, error)
	// Delete fails with ErrIntegrity while ledger entries exist.
	Delete(ctx context.Context, actor *auth.Principal, id int64) error
	// PendingQueue lists properties awaiting an officer's decision.
	PendingQueue(ctx context.Context, actor *auth.Principal, search string, page int) (*models.Page[models.Property], error)
	// ListForCitizen lists the properties owned by the actor's citizen record.
	ListForCitizen(ctx context.Context, actor *auth.Principal, page int) (*models.Page[models.Property], error)
}

type propertyService struct {
	repo     repository.PropertyRepository
	citizens repository.CitizenRepository
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(
	repo repository.PropertyRepository,
	citizens repository.CitizenRepository,
	m *metrics.Metrics,
	log *logger.Logger,
) PropertyService {
	return &propertyService{repo: repo, citizens: citizens, metrics: m, log: log, now: time.Now}
}

func (s *propertyService) Create(ctx context.Context, actor *auth.Principal, params PropertyParams) (*models.Property, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}
	params = normalizeProperty(params)
	if err := s.checkParams(ctx, params); err != nil {
		return nil, err
	}

	p := &models.Property{
		Status:    models.PropertyDraft,
		IsActive:  true,
		CreatedBy: actor.UserID,
	}
	applyProperty(p, params)

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("property_number", "a property with this number already exists")
		}
		s.log.Error("Failed to create property", err, map[string]interface{}{
			"property_number": params.PropertyNumber,
		})
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.log.Info("Property draft created", map[string]interface{}{
		"property_id": p.ID,
		"actor":       actor.UserID,
	})
	return s.repo.GetByID(ctx, p.ID)
}

func (s *propertyService) Get(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer, auth.RoleOfficer); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "property")
	}
	return p, nil
}

func (s *propertyService) List(ctx context.Context, actor *auth.Principal, f repository.PropertyFilter) (*models.Page[models.Property], error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer, auth.RoleOfficer); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fieldError("status", "unknown property status")
	}
	return s.list(ctx, f)
}

func (s *propertyService) list(ctx context.Context, f repository.PropertyFilter) (*models.Page[models.Property], error) {
	if f.Page < 1 {
		f.Page = 1
	}
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return &models.Page[models.Property]{Items: items, Page: f.Page, PageSize: models.PageSize, Total: total}, nil
}

func (s *propertyService) Update(ctx context.Context, actor *auth.Principal, id int64, params PropertyParams) (*models.Property, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}
	p, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	params = normalizeProperty(params)
	if err := s.checkParams(ctx, params); err != nil {
		return nil, err
	}
	applyProperty(p, params)

	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("property_number", "a property with this number already exists")
		}
		return nil, mapRepoErr(err, "property")
	}

	s.log.Info("Property draft updated", map[string]interface{}{
		"property_id": id,
		"actor":       actor.UserID,
	})
	return s.repo.GetByID(ctx, id)
}

func (s *propertyService) Submit(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}
	p, err := s.editable(ctx, actor, id)
	if errors.Is(err, ErrUnauthorized) {
		return nil, fmt.Errorf("%w: only the creator may submit a draft", ErrInvalidTransition)
	}
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, p, models.ActionSubmit, "")
}

func (s *propertyService) Approve(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error) {
	if err := auth.Require(actor, auth.RoleOfficer); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "property")
	}
	return s.transition(ctx, actor, p, models.ActionApprove, "")
}

func (s *propertyService) Reject(ctx context.Context, actor *auth.Principal, id int64, reason string) (*models.Property, error) {
	if err := auth.Require(actor, auth.RoleOfficer); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fieldError("rejection_reason", "is required")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "property")
	}
	return s.transition(ctx, actor, p, models.ActionReject, reason)
}

func (s *propertyService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return fmt.Errorf("%w: property has holding tax entries", ErrIntegrity)
		}
		return mapRepoErr(err, "property")
	}

	s.log.Info("Property deleted", map[string]interface{}{
		"property_id": id,
		"actor":       actor.UserID,
	})
	return nil
}

func (s *propertyService) PendingQueue(ctx context.Context, actor *auth.Principal, search string, page int) (*models.Page[models.Property], error) {
	if err := auth.Require(actor, auth.RoleOfficer); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.PropertyFilter{Search: search, Status: models.PropertyPendingApproval, Page: page})
}

func (s *propertyService) ListForCitizen(ctx context.Context, actor *auth.Principal, page int) (*models.Page[models.Property], error) {
	if err := auth.Require(actor, auth.RoleCitizen); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.PropertyFilter{OwnerUserID: actor.UserID, Page: page})
}

// editable loads a property the actor may still change: a draft they created.
func (s *propertyService) editable(ctx context.Context, actor *auth.Principal, id int64) (*models.Property, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "property")
	}
	if p.Status != models.PropertyDraft {
		return nil, fmt.Errorf("%w: property is %s", ErrInvalidTransition, p.Status)
	}
	if !p.IsEditableBy(actor.UserID) && !actor.IsSuperAdmin() {
		return nil, fmt.Errorf("%w: only the creator may change a draft", ErrUnauthorized)
	}
	return p, nil
}

func (s *propertyService) transition(
	ctx context.Context,
	actor *auth.Principal,
	p *models.Property,
	action models.Action,
	reason string,
) (*models.Property, error) {
	next, err := models.PropertyTransitions.Next(p.Status, action)
	if err != nil {
		s.log.Warn("Refused property transition", map[string]interface{}{
			"property_id": p.ID,
			"status":      p.Status,
			"action":      action,
		})
		return nil, err
	}

	updated, err := s.repo.Transition(ctx, repository.PropertyTransition{
		ID:     p.ID,
		From:   p.Status,
		To:     next,
		Actor:  actor.UserID,
		Reason: reason,
		At:     s.now(),
	})
	if err != nil {
		return nil, mapRepoErr(err, "property")
	}

	s.metrics.IncrementTransition("property", string(action))
	s.log.Info("Property status changed", map[string]interface{}{
		"property_id": p.ID,
		"from":        p.Status,
		"to":          next,
		"actor":       actor.UserID,
	})
	return updated, nil
}

func (s *propertyService) checkParams(ctx context.Context, params PropertyParams) error {
	if err := validateParams(params,
		scaled("area_sqft", params.AreaSqft, areaPrecision),
		scaled("assessed_value", params.AssessedValue, moneyPrecision),
		scaled("tax_rate", params.TaxRate, ratePrecision),
	); err != nil {
		return err
	}
	owner, err := s.citizens.GetByID(ctx, params.OwnerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fieldError("owner_id", "citizen does not exist")
		}
		return fmt.Errorf("failed to load owner: %w", err)
	}
	if !owner.IsActive {
		return fieldError("owner_id", "citizen is inactive")
	}
	return nil
}

func normalizeProperty(params PropertyParams) PropertyParams {
	params.PropertyNumber = strings.TrimSpace(params.PropertyNumber)
	params.PropertyType = strings.TrimSpace(params.PropertyType)
	params.Address = strings.TrimSpace(params.Address)
	params.City = strings.TrimSpace(params.City)
	params.PostalCode = strings.TrimSpace(params.PostalCode)
	return params
}

func applyProperty(p *models.Property, params PropertyParams) {
	p.PropertyNumber = params.PropertyNumber
	p.OwnerID = params.OwnerID
	p.PropertyType = params.PropertyType
	p.Address = params.Address
	p.City = params.City
	p.PostalCode = params.PostalCode
	p.AreaSqft = params.AreaSqft
	p.AssessedValue = params.AssessedValue
	p.TaxRate = params.TaxRate
	p.Notes = params.Notes
}
