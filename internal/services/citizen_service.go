package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/logger"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
)

// CreateCitizenParams are the inputs for registering a citizen.
type CreateCitizenParams struct {
	DateOfBirth *time.Time `json:"date_of_birth"`
	UserID      *string    `json:"user_id"`
	NationalID  string     `json:"national_id" validate:"required,max=20"`
	FirstName   string     `json:"first_name" validate:"required,max=100"`
	LastName    string     `json:"last_name" validate:"required,max=100"`
	Email       string     `json:"email" validate:"omitempty,email,max=254"`
	Phone       string     `json:"phone" validate:"max=20"`
	Address     string     `json:"address"`
}

// ContactParams are the mutable contact details of a citizen.
type ContactParams struct {
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Phone   string `json:"phone" validate:"max=20"`
	Address string `json:"address"`
}

// CitizenService manages the citizen registry.
type CitizenService interface {
	Create(ctx context.Context, actor *auth.Principal, params CreateCitizenParams) (*models.Citizen, error)
	Get(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error)
	List(ctx context.Context, actor *auth.Principal, f repository.CitizenFilter) (*models.Page[models.Citizen], error)
	// UpdateContact changes email, phone and address. Identity fields never change.
	UpdateContact(ctx context.Context, actor *auth.Principal, id int64, params ContactParams) (*models.Citizen, error)
	Deactivate(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error)
	Activate(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error)
	// Delete removes a citizen with no properties. Super admin only.
	Delete(ctx context.Context, actor *auth.Principal, id int64) error
}

type citizenService struct {
	repo repository.CitizenRepository
	log  *logger.Logger
}

// NewCitizenService creates a new instance of CitizenService.
func NewCitizenService(repo repository.CitizenRepository, log *logger.Logger) CitizenService {
	return &citizenService{repo: repo, log: log}
}

func (s *citizenService) Create(ctx context.Context, actor *auth.Principal, params CreateCitizenParams) (*models.Citizen, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}

	params.NationalID = strings.TrimSpace(params.NationalID)
	params.FirstName = strings.TrimSpace(params.FirstName)
	params.LastName = strings.TrimSpace(params.LastName)
	params.Email = strings.TrimSpace(params.Email)
	params.Phone = strings.TrimSpace(params.Phone)
	params.Address = strings.TrimSpace(params.Address)
	if err := validateParams(params); err != nil {
		return nil, err
	}
	if params.DateOfBirth != nil && params.DateOfBirth.After(time.Now()) {
		return nil, fieldError("date_of_birth", "cannot be in the future")
	}

	c := &models.Citizen{
		NationalID:  params.NationalID,
		FirstName:   params.FirstName,
		LastName:    params.LastName,
		Email:       params.Email,
		Phone:       params.Phone,
		Address:     params.Address,
		DateOfBirth: params.DateOfBirth,
		UserID:      params.UserID,
		IsActive:    true,
		CreatedBy:   actor.UserID,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if strings.Contains(err.Error(), "user_id") {
				return nil, fieldError("user_id", "is already linked to another citizen")
			}
			return nil, fieldError("national_id", "a citizen with this national id already exists")
		}
		s.log.Error("Failed to create citizen", err, map[string]interface{}{
			"national_id": params.NationalID,
		})
		return nil, fmt.Errorf("failed to create citizen: %w", err)
	}

	s.log.Info("Citizen registered", map[string]interface{}{
		"citizen_id": c.ID,
		"name":       c.FullName(),
		"actor":      actor.UserID,
	})
	return c, nil
}

func (s *citizenService) Get(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer, auth.RoleOfficer); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "citizen")
	}
	return c, nil
}

func (s *citizenService) List(ctx context.Context, actor *auth.Principal, f repository.CitizenFilter) (*models.Page[models.Citizen], error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer, auth.RoleOfficer); err != nil {
		return nil, err
	}
	if f.Page < 1 {
		f.Page = 1
	}

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list citizens: %w", err)
	}
	return &models.Page[models.Citizen]{Items: items, Page: f.Page, PageSize: models.PageSize, Total: total}, nil
}

func (s *citizenService) UpdateContact(ctx context.Context, actor *auth.Principal, id int64, params ContactParams) (*models.Citizen, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}
	params = trimContact(params)
	if err := validateParams(params); err != nil {
		return nil, err
	}

	c, err := s.repo.UpdateContact(ctx, id, params.Email, params.Phone, params.Address)
	if err != nil {
		return nil, mapRepoErr(err, "citizen")
	}

	s.log.Info("Citizen contact updated", map[string]interface{}{
		"citizen_id": id,
		"actor":      actor.UserID,
	})
	return c, nil
}

func (s *citizenService) Deactivate(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error) {
	return s.setActive(ctx, actor, id, false)
}

func (s *citizenService) Activate(ctx context.Context, actor *auth.Principal, id int64) (*models.Citizen, error) {
	return s.setActive(ctx, actor, id, true)
}

func (s *citizenService) setActive(ctx context.Context, actor *auth.Principal, id int64, active bool) (*models.Citizen, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}
	c, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, mapRepoErr(err, "citizen")
	}

	s.log.Info("Citizen active flag changed", map[string]interface{}{
		"citizen_id": id,
		"is_active":  active,
		"actor":      actor.UserID,
	})
	return c, nil
}

func (s *citizenService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := auth.Require(actor, auth.RoleSuperAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return fmt.Errorf("%w: citizen owns registered properties", ErrIntegrity)
		}
		return mapRepoErr(err, "citizen")
	}

	s.log.Info("Citizen deleted", map[string]interface{}{
		"citizen_id": id,
		"actor":      actor.UserID,
	})
	return nil
}

func trimContact(params ContactParams) ContactParams {
	params.Email = strings.TrimSpace(params.Email)
	params.Phone = strings.TrimSpace(params.Phone)
	params.Address = strings.TrimSpace(params.Address)
	return params
}
