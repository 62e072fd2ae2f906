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

// CreateHoldingTaxParams assess a property for a period. A nil TaxAmount
// defaults to the property's annual tax.
type CreateHoldingTaxParams struct {
	DueDate       time.Time        `json:"due_date"`
	TaxAmount     *decimal.Decimal `json:"tax_amount"`
	PenaltyAmount decimal.Decimal  `json:"penalty_amount" validate:"gte=0"`
	Notes         string           `json:"notes"`
	PropertyID    int64            `json:"property_id" validate:"required,gt=0"`
	TaxPeriodID   int64            `json:"tax_period_id" validate:"required,gt=0"`
}

// UpdateHoldingTaxParams change an open entry. Nil fields are left alone.
type UpdateHoldingTaxParams struct {
	DueDate       *time.Time       `json:"due_date"`
	PenaltyAmount *decimal.Decimal `json:"penalty_amount"`
	Notes         *string          `json:"notes"`
}

// PaymentParams describe a payment received against an entry. A nil
// PaymentDate means today.
type PaymentParams struct {
	PaymentDate     *time.Time           `json:"payment_date"`
	Amount          decimal.Decimal      `json:"amount" validate:"gt=0"`
	Method          models.PaymentMethod `json:"payment_method" validate:"required"`
	ReferenceNumber string               `json:"reference_number" validate:"max=100"`
	ChequeNumber    string               `json:"cheque_number" validate:"max=50"`
	BankName        string               `json:"bank_name" validate:"max=100"`
	Notes           string               `json:"notes"`
}

// HoldingTaxDetail is an entry with its payments and derived figures.
type HoldingTaxDetail struct {
	models.HoldingTax
	Payments  []models.TaxPayment `json:"payments"`
	Balance   decimal.Decimal     `json:"balance"`
	IsOverdue bool                `json:"is_overdue"`
}

// HoldingTaxList is a page of entries with totals over the whole filter.
type HoldingTaxList struct {
	models.Page[models.HoldingTax]
	Summary repository.HoldingTaxSummary `json:"summary"`
}

// HoldingTaxService manages the holding tax ledger.
type HoldingTaxService interface {
	Create(ctx context.Context, actor *auth.Principal, params CreateHoldingTaxParams) (*models.HoldingTax, error)
	Get(ctx context.Context, actor *auth.Principal, id int64) (*HoldingTaxDetail, error)
	List(ctx context.Context, actor *auth.Principal, f repository.HoldingTaxFilter) (*HoldingTaxList, error)
	// Update is refused once the entry is PAID or WAIVED. The status is
	// re-derived when the penalty changes.
	Update(ctx context.Context, actor *auth.Principal, id int64, params UpdateHoldingTaxParams) (*models.HoldingTax, error)
	// Delete fails with ErrIntegrity while payments exist.
	Delete(ctx context.Context, actor *auth.Principal, id int64) error
	// RecordPayment stores a payment and reconciles the entry atomically.
	// Amounts above the outstanding balance are rejected.
	RecordPayment(ctx context.Context, actor *auth.Principal, id int64, params PaymentParams) (*models.HoldingTax, *models.TaxPayment, error)
	ListPayments(ctx context.Context, actor *auth.Principal, id int64) ([]models.TaxPayment, error)
	// Approve waives the outstanding balance.
	Approve(ctx context.Context, actor *auth.Principal, id int64, note string) (*models.HoldingTax, error)
	// Reject flags the entry OVERDUE; reason is required.
	Reject(ctx context.Context, actor *auth.Principal, id int64, reason string) (*models.HoldingTax, error)
	// PendingQueue lists PENDING entries for officer review.
	PendingQueue(ctx context.Context, actor *auth.Principal, search string, page int) (*HoldingTaxList, error)
	// ListForCitizen lists entries on the actor's own properties.
	ListForCitizen(ctx context.Context, actor *auth.Principal, page int) (*HoldingTaxList, error)
}

type holdingTaxService struct {
	repo       repository.HoldingTaxRepository
	properties repository.PropertyRepository
	periods    repository.TaxPeriodRepository
	metrics    *metrics.Metrics
	log        *logger.Logger
	now        func() time.Time
}

// NewHoldingTaxService creates a new instance of HoldingTaxService.
func NewHoldingTaxService(
	repo repository.HoldingTaxRepository,
	properties repository.PropertyRepository,
	periods repository.TaxPeriodRepository,
	m *metrics.Metrics,
	log *logger.Logger,
) HoldingTaxService {
	return &holdingTaxService{
		repo:       repo,
		properties: properties,
		periods:    periods,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

func (s *holdingTaxService) Create(ctx context.Context, actor *auth.Principal, params CreateHoldingTaxParams) (*models.HoldingTax, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}
	checks := []func(fieldErrors){scaled("penalty_amount", params.PenaltyAmount, moneyPrecision)}
	if params.TaxAmount != nil {
		checks = append(checks, scaled("tax_amount", *params.TaxAmount, moneyPrecision))
	}
	if err := validateParams(params, checks...); err != nil {
		return nil, err
	}
	if params.DueDate.IsZero() {
		return nil, fieldError("due_date", "is required")
	}

	property, err := s.properties.GetByID(ctx, params.PropertyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fieldError("property_id", "property does not exist")
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if property.Status != models.PropertyApproved {
		return nil, fieldError("property_id", "property must be approved before it can be assessed")
	}

	period, err := s.periods.GetByID(ctx, params.TaxPeriodID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fieldError("tax_period_id", "tax period does not exist")
		}
		return nil, fmt.Errorf("failed to load tax period: %w", err)
	}
	if !period.IsActive {
		return nil, fieldError("tax_period_id", "tax period is not active")
	}

	amount := property.AnnualTax()
	if params.TaxAmount != nil {
		amount = *params.TaxAmount
	}
	if !amount.IsPositive() {
		return nil, fieldError("tax_amount", "must be greater than 0")
	}

	entry := &models.HoldingTax{
		PropertyID:    property.ID,
		TaxPeriodID:   period.ID,
		TaxAmount:     amount,
		PenaltyAmount: params.PenaltyAmount,
		PaidAmount:    decimal.Zero,
		DueDate:       models.DateOf(params.DueDate),
		Status:        models.HoldingTaxPending,
		Notes:         strings.TrimSpace(params.Notes),
		CreatedBy:     actor.UserID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fieldError("tax_period_id", "this property is already assessed for the period")
		}
		s.log.Error("Failed to create holding tax", err, map[string]interface{}{
			"property_id":   property.ID,
			"tax_period_id": period.ID,
		})
		return nil, fmt.Errorf("failed to create holding tax: %w", err)
	}

	s.log.Info("Holding tax assessed", map[string]interface{}{
		"holding_tax_id": entry.ID,
		"tax_number":     entry.TaxNumber,
		"tax_amount":     entry.TaxAmount.StringFixed(2),
		"actor":          actor.UserID,
	})
	return s.repo.GetByID(ctx, entry.ID)
}

func (s *holdingTaxService) Get(ctx context.Context, actor *auth.Principal, id int64) (*HoldingTaxDetail, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer, auth.RoleOfficer); err != nil {
		return nil, err
	}
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "holding tax")
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	if sum := models.SumPayments(payments); !sum.Equal(entry.PaidAmount) {
		s.log.Warn("Paid amount differs from recorded payments", map[string]interface{}{
			"holding_tax_id": id,
			"paid_amount":    entry.PaidAmount.StringFixed(2),
			"payments_sum":   sum.StringFixed(2),
		})
	}
	return &HoldingTaxDetail{
		HoldingTax: *entry,
		Payments:   payments,
		Balance:    entry.Balance(),
		IsOverdue:  entry.IsOverdue(s.now()),
	}, nil
}

func (s *holdingTaxService) List(ctx context.Context, actor *auth.Principal, f repository.HoldingTaxFilter) (*HoldingTaxList, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer, auth.RoleOfficer); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fieldError("status", "unknown holding tax status")
	}
	return s.list(ctx, f)
}

func (s *holdingTaxService) list(ctx context.Context, f repository.HoldingTaxFilter) (*HoldingTaxList, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	f.AsOf = s.now()

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list holding taxes: %w", err)
	}
	summary, err := s.repo.Summary(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize holding taxes: %w", err)
	}

	return &HoldingTaxList{
		Page:    models.Page[models.HoldingTax]{Items: items, Page: f.Page, PageSize: models.PageSize, Total: total},
		Summary: summary,
	}, nil
}

func (s *holdingTaxService) Update(ctx context.Context, actor *auth.Principal, id int64, params UpdateHoldingTaxParams) (*models.HoldingTax, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return nil, err
	}
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "holding tax")
	}
	if entry.Status == models.HoldingTaxPaid || entry.Status == models.HoldingTaxWaived {
		return nil, fmt.Errorf("%w: %s entries cannot be edited", ErrInvalidTransition, entry.Status)
	}

	expected := entry.Status
	if params.DueDate != nil {
		entry.DueDate = models.DateOf(*params.DueDate)
	}
	if params.Notes != nil {
		entry.Notes = strings.TrimSpace(*params.Notes)
	}
	if params.PenaltyAmount != nil {
		penalty := *params.PenaltyAmount
		if penalty.IsNegative() {
			return nil, fieldError("penalty_amount", "must be at least 0")
		}
		fields := fieldErrors{}
		scaled("penalty_amount", penalty, moneyPrecision)(fields)
		if err := fields.err(); err != nil {
			return nil, err
		}
		entry.PenaltyAmount = penalty
		if entry.TotalDue().LessThan(entry.PaidAmount) {
			return nil, fieldError("penalty_amount", "total due cannot fall below the amount already paid")
		}
		// OVERDUE is an officer override; only full settlement replaces it.
		if !entry.Balance().IsPositive() {
			entry.Status = models.HoldingTaxPaid
		}
	}

	if err := s.repo.Update(ctx, entry, expected); err != nil {
		return nil, mapRepoErr(err, "holding tax")
	}
	if entry.Status != expected {
		s.metrics.IncrementTransition("holding_tax", string(paymentAction(entry.Status)))
	}

	s.log.Info("Holding tax updated", map[string]interface{}{
		"holding_tax_id": id,
		"status":         entry.Status,
		"actor":          actor.UserID,
	})
	return s.repo.GetByID(ctx, id)
}

func (s *holdingTaxService) Delete(ctx context.Context, actor *auth.Principal, id int64) error {
	if err := auth.Require(actor, auth.RoleFieldOfficer); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return fmt.Errorf("%w: holding tax has recorded payments", ErrIntegrity)
		}
		return mapRepoErr(err, "holding tax")
	}

	s.log.Info("Holding tax deleted", map[string]interface{}{
		"holding_tax_id": id,
		"actor":          actor.UserID,
	})
	return nil
}

func (s *holdingTaxService) RecordPayment(
	ctx context.Context,
	actor *auth.Principal,
	id int64,
	params PaymentParams,
) (*models.HoldingTax, *models.TaxPayment, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer, auth.RoleOfficer); err != nil {
		return nil, nil, err
	}
	payment, err := s.buildPayment(actor, params)
	if err != nil {
		return nil, nil, err
	}

	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, mapRepoErr(err, "holding tax")
	}

	entry, err := s.repo.RecordPayment(ctx, id, payment)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNonPositiveAmount), errors.Is(err, models.ErrOverpayment):
			s.log.Warn("Payment refused", map[string]interface{}{
				"holding_tax_id": id,
				"amount":         payment.Amount.StringFixed(2),
				"reason":         err.Error(),
			})
			return nil, nil, fieldError("amount", err.Error())
		case errors.Is(err, models.ErrInvalidTransition):
			return nil, nil, err
		}
		s.log.Error("Failed to record payment", err, map[string]interface{}{
			"holding_tax_id": id,
		})
		return nil, nil, mapRepoErr(err, "holding tax")
	}

	s.metrics.RecordPayment(string(payment.Method), payment.Amount)
	if entry.Status != before.Status {
		s.metrics.IncrementTransition("holding_tax", string(paymentAction(entry.Status)))
	}

	s.log.Info("Payment recorded", map[string]interface{}{
		"holding_tax_id": id,
		"payment_number": payment.PaymentNumber,
		"amount":         payment.Amount.StringFixed(2),
		"paid_amount":    entry.PaidAmount.StringFixed(2),
		"status":         entry.Status,
		"actor":          actor.UserID,
	})
	return entry, payment, nil
}

func (s *holdingTaxService) buildPayment(actor *auth.Principal, params PaymentParams) (*models.TaxPayment, error) {
	if err := validateParams(params, scaled("amount", params.Amount, moneyPrecision)); err != nil {
		return nil, err
	}

	fields := fieldErrors{}
	if !params.Method.Valid() {
		fields.add("payment_method", "must be one of CASH, CHEQUE, BANK_TRANSFER, ONLINE, OTHER")
	}
	if params.Method == models.PaymentCheque && strings.TrimSpace(params.ChequeNumber) == "" {
		fields.add("cheque_number", "is required for cheque payments")
	}

	today := models.DateOf(s.now())
	date := today
	if params.PaymentDate != nil {
		date = models.DateOf(*params.PaymentDate)
		if date.After(today) {
			fields.add("payment_date", "cannot be in the future")
		}
	}
	if err := fields.err(); err != nil {
		return nil, err
	}

	return &models.TaxPayment{
		PaymentDate:     date,
		Amount:          params.Amount,
		Method:          params.Method,
		ReferenceNumber: strings.TrimSpace(params.ReferenceNumber),
		ChequeNumber:    strings.TrimSpace(params.ChequeNumber),
		BankName:        strings.TrimSpace(params.BankName),
		Notes:           strings.TrimSpace(params.Notes),
		ReceivedBy:      actor.UserID,
	}, nil
}

func (s *holdingTaxService) ListPayments(ctx context.Context, actor *auth.Principal, id int64) ([]models.TaxPayment, error) {
	if err := auth.Require(actor, auth.RoleFieldOfficer, auth.RoleOfficer); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, mapRepoErr(err, "holding tax")
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (s *holdingTaxService) Approve(ctx context.Context, actor *auth.Principal, id int64, note string) (*models.HoldingTax, error) {
	if err := auth.Require(actor, auth.RoleOfficer); err != nil {
		return nil, err
	}
	return s.review(ctx, actor, id, models.ActionApprove, strings.TrimSpace(note))
}

func (s *holdingTaxService) Reject(ctx context.Context, actor *auth.Principal, id int64, reason string) (*models.HoldingTax, error) {
	if err := auth.Require(actor, auth.RoleOfficer); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fieldError("reason", "is required")
	}
	return s.review(ctx, actor, id, models.ActionReject, reason)
}

func (s *holdingTaxService) review(
	ctx context.Context,
	actor *auth.Principal,
	id int64,
	action models.Action,
	reason string,
) (*models.HoldingTax, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "holding tax")
	}

	next, err := models.HoldingTaxTransitions.Next(entry.Status, action)
	if err != nil {
		s.log.Warn("Refused holding tax review", map[string]interface{}{
			"holding_tax_id": id,
			"status":         entry.Status,
			"action":         action,
		})
		return nil, err
	}

	updated, err := s.repo.Transition(ctx, repository.HoldingTaxTransition{
		ID:     id,
		From:   entry.Status,
		To:     next,
		Actor:  actor.UserID,
		Reason: reason,
		At:     s.now(),
	})
	if err != nil {
		return nil, mapRepoErr(err, "holding tax")
	}

	s.metrics.IncrementTransition("holding_tax", string(action))
	s.log.Info("Holding tax reviewed", map[string]interface{}{
		"holding_tax_id": id,
		"from":           entry.Status,
		"to":             next,
		"actor":          actor.UserID,
	})
	return updated, nil
}

func (s *holdingTaxService) PendingQueue(ctx context.Context, actor *auth.Principal, search string, page int) (*HoldingTaxList, error) {
	if err := auth.Require(actor, auth.RoleOfficer); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.HoldingTaxFilter{Search: search, Status: models.HoldingTaxPending, Page: page})
}

func (s *holdingTaxService) ListForCitizen(ctx context.Context, actor *auth.Principal, page int) (*HoldingTaxList, error) {
	if err := auth.Require(actor, auth.RoleCitizen); err != nil {
		return nil, err
	}
	return s.list(ctx, repository.HoldingTaxFilter{OwnerUserID: actor.UserID, Page: page})
}

// paymentAction names the payment-derived move that produced status.
func paymentAction(status models.HoldingTaxStatus) models.Action {
	if status == models.HoldingTaxPaid {
		return models.ActionPayFull
	}
	return models.ActionPayPartial
}
