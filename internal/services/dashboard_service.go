package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/cityhall/internal/auth"
	"github.com/stwalsh4118/cityhall/internal/logger"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
	"golang.org/x/sync/errgroup"
)

// recentLimit is how many recent records each dashboard panel shows.
const recentLimit = 5

// FieldOfficerDashboard summarizes registry and ledger activity.
type FieldOfficerDashboard struct {
	RecentCitizens     []models.Citizen    `json:"recent_citizens"`
	RecentProperties   []models.Property   `json:"recent_properties"`
	RecentHoldingTaxes []models.HoldingTax `json:"recent_holding_taxes"`
	CitizenCount       int                 `json:"citizen_count"`
	PropertyCount      int                 `json:"property_count"`
	HoldingTaxCount    int                 `json:"holding_tax_count"`
	PendingTaxCount    int                 `json:"pending_tax_count"`
}

// OfficerDashboard summarizes the review queues.
type OfficerDashboard struct {
	RecentPendingProperties   []models.Property   `json:"recent_pending_properties"`
	RecentPendingHoldingTaxes []models.HoldingTax `json:"recent_pending_holding_taxes"`
	PendingProperties         int                 `json:"pending_properties"`
	PendingHoldingTaxes       int                 `json:"pending_holding_taxes"`
}

// CitizenDashboard summarizes a citizen's own holdings.
type CitizenDashboard struct {
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	PropertyCount      int             `json:"property_count"`
}

// DashboardService assembles role-specific overviews.
type DashboardService interface {
	FieldOfficer(ctx context.Context, actor *auth.Principal) (*FieldOfficerDashboard, error)
	Officer(ctx context.Context, actor *auth.Principal) (*OfficerDashboard, error)
	Citizen(ctx context.Context, actor *auth.Principal) (*CitizenDashboard, error)
}

type dashboardService struct {
	citizens   repository.CitizenRepository
	properties repository.PropertyRepository
	ledger     repository.HoldingTaxRepository
	log        *logger.Logger
}

// NewDashboardService creates a new instance of DashboardService.
func NewDashboardService(
	citizens repository.CitizenRepository,
	properties repository.PropertyRepository,
	ledger repository.HoldingTaxRepository,
	log *logger.Logger,
) DashboardService {
	return &dashboardService{citizens: citizens, properties: properties, ledger: ledger, log: log}
}

// FieldOfficer runs every panel query concurrently; the first failure
// cancels the rest.
func (s *dashboardService) FieldOfficer(ctx context.Context, actor *auth.Principal) (*FieldOfficerDashboard, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}

	var d FieldOfficerDashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.CitizenCount, err = s.citizens.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.PropertyCount, err = s.properties.Count(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		d.HoldingTaxCount, err = s.ledger.Count(ctx, "")
		return err
	})
	g.Go(func() (err error) {
		d.PendingTaxCount, err = s.ledger.Count(ctx, models.HoldingTaxPending)
		return err
	})
	g.Go(func() (err error) {
		d.RecentCitizens, err = s.citizens.Recent(ctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentProperties, err = s.properties.Recent(ctx, "", recentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentHoldingTaxes, err = s.ledger.Recent(ctx, "", recentLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("Failed to build field officer dashboard", err, nil)
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return &d, nil
}

func (s *dashboardService) Officer(ctx context.Context, actor *auth.Principal) (*OfficerDashboard, error) {
	if err := auth.Require(actor, auth.RoleOfficer); err != nil {
		return nil, err
	}

	var d OfficerDashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.PendingProperties, err = s.properties.Count(ctx, models.PropertyPendingApproval)
		return err
	})
	g.Go(func() (err error) {
		d.PendingHoldingTaxes, err = s.ledger.Count(ctx, models.HoldingTaxPending)
		return err
	})
	g.Go(func() (err error) {
		d.RecentPendingProperties, err = s.properties.Recent(ctx, models.PropertyPendingApproval, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		d.RecentPendingHoldingTaxes, err = s.ledger.Recent(ctx, models.HoldingTaxPending, recentLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Error("Failed to build officer dashboard", err, nil)
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return &d, nil
}

func (s *dashboardService) Citizen(ctx context.Context, actor *auth.Principal) (*CitizenDashboard, error) {
	if err := auth.Require(actor, auth.RoleCitizen); err != nil {
		return nil, err
	}

	var d CitizenDashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, total, err := s.properties.List(ctx, repository.PropertyFilter{OwnerUserID: actor.UserID, Page: 1})
		d.PropertyCount = total
		return err
	})
	g.Go(func() (err error) {
		d.OutstandingBalance, err = s.ledger.OutstandingForOwner(ctx, actor.UserID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return &d, nil
}
