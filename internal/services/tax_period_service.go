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

// TaxPeriodParams describe a fiscal period.
type TaxPeriodParams struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Name      string    `json:"name" validate:"required,max=100"`
	IsActive  bool      `json:"is_active"`
}

// TaxPeriodService manages the tax period catalog. Every authenticated user
// may read it; only super admins change it.
type TaxPeriodService interface {
	Create(ctx context.Context, actor *auth.Principal, params TaxPeriodParams) (*models.TaxPeriod, error)
	Get(ctx context.Context, actor *auth.Principal, id int64) (*models.TaxPeriod, error)
	List(ctx context.Context, actor *auth.Principal, active *bool) ([]models.TaxPeriod, error)
	Update(ctx context.Context, actor *auth.Principal, id int64, params TaxPeriodParams) (*models.TaxPeriod, error)
	Delete(ctx context.Context, actor *auth.Principal, id int64) error
}

type taxPeriodService struct {
	repo repository.TaxPeriodRepository
	log  *logger.Logger
}

// NewTaxPeriodService creates a new instance of TaxPeriodService.
func NewTaxPeriodService(repo repository.TaxPeriodRepository, log *logger.Logger) TaxPeriodService {
	return &taxPeriodService{repo: repo, log: log}
}

func checkPeriod(params *TaxPeriodParams) error {
	params.Name = strings.TrimSpace(params.Name)
	fields := fieldErrors{}
	if err := validateParams(*params); err != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for k, v := range verr.Fields {
			fields.add(k, v)
		}
	}
	if params.StartDate.IsZero() {
		fields.add("start_date", "is required")
	}
	if params.EndDate.IsZero() {
		fields.add("end_date", "is required")
	}
	if !params.StartDate.IsZero() && !params.EndDate.IsZero() && !params.EndDate.After(params.StartDate) {
		fields.add("end_date", "must be after start_date")
	}
	params.StartDate = models.DateOf(params.StartDate)
	params.EndDate = models.DateOf(params.EndDate)
	return fields.err()
}

func (s *taxPeriodService) Create(ctx context.Context, actor *auth.Principal, params TaxPeriodParams) (*models.TaxPeriod, error) {
	if err := auth.Require(actor, auth.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := checkPeriod(&params); err != nil {
		return nil, err
	}

	p := &models.TaxPeriod{
		Name:      params.Name,
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		IsActive:  params.IsActive,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create tax period: %w", err)
	}

	s.log.Info("Tax period created", map[string]interface{}{
		"tax_period_id": p.ID,
		"name":          p.Name,
	})
	return p, nil
}

func (s *taxPeriodService) Get(ctx context.Context, actor *auth.Principal, id int64) (*models.TaxPeriod, error) {
	if err := auth.Require(actor); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "tax period")
	}
	return p, nil
}

func (s *taxPeriodService) List(ctx context.Context, actor *auth.Principal, active *bool) ([]models.TaxPeriod, error) {
	if err := auth.Require(actor); err != nil {
		return nil, err
	}
	periods, err := s.repo.List(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax periods: %w", err)
	}
	return periods, nil
}

func (s *taxPeriodService) Update(ctx context.Context, actor *auth.Principal, id int64, params TaxPeriodParams) (*models.TaxPeriod, error) {
	if err := auth.Require(actor, auth.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := checkPeriod(&params); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "tax period")
	}
	p.Name = params.Name
	p.StartDate = params.StartDate
	p.EndDate = params.EndDate
	p.IsActive = params.IsActive

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, mapRepoErr(err, "tax period")
	}
	return p, nil
}

func (s *taxPeriodService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := auth.Require(actor, auth.RoleSuperAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return fmt.Errorf("%w: tax period has holding tax entries", ErrIntegrity)
		}
		return mapRepoErr(err, "tax period")
	}

	s.log.Info("Tax period deleted", map[string]interface{}{
		"tax_period_id": id,
	})
	return nil
}
