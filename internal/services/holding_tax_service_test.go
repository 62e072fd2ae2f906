package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/cityhall/internal/logger"
	"github.com/stwalsh4118/cityhall/internal/metrics"
	"github.com/stwalsh4118/cityhall/internal/models"
	"github.com/stwalsh4118/cityhall/internal/repository"
)

type ledgerFixture struct {
	svc        *holdingTaxService
	repo       *MockHoldingTaxRepository
	properties *MockPropertyRepository
	periods    *MockTaxPeriodRepository
	metrics    *metrics.Metrics
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		repo:       new(MockHoldingTaxRepository),
		properties: new(MockPropertyRepository),
		periods:    new(MockTaxPeriodRepository),
		metrics:    metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewHoldingTaxService(f.repo, f.properties, f.periods, f.metrics, logger.Nop()).(*holdingTaxService)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func approvedProperty() *models.Property {
	return &models.Property{
		ID:            9,
		Status:        models.PropertyApproved,
		AssessedValue: dec("250000"),
		TaxRate:       dec("1.5"),
	}
}

func openEntry(status models.HoldingTaxStatus, paid string) *models.HoldingTax {
	return &models.HoldingTax{
		ID:            5,
		TaxNumber:     "HT-000005",
		TaxAmount:     dec("1000"),
		PenaltyAmount: dec("50"),
		PaidAmount:    dec(paid),
		DueDate:       time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:        status,
	}
}

func createParams() CreateHoldingTaxParams {
	return CreateHoldingTaxParams{
		PropertyID:  9,
		TaxPeriodID: 3,
		DueDate:     time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestHoldingTaxService_Create_DefaultsToAnnualTax(t *testing.T) {
	// Arrange
	f := newLedgerFixture()
	f.properties.On("GetByID", mock.Anything, int64(9)).Return(approvedProperty(), nil)
	f.periods.On("GetByID", mock.Anything, int64(3)).Return(&models.TaxPeriod{ID: 3, IsActive: true}, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(h *models.HoldingTax) bool {
		return h.TaxAmount.Equal(dec("3750")) &&
			h.Status == models.HoldingTaxPending &&
			h.PaidAmount.IsZero() &&
			h.DueDate.Equal(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC))
	})).Run(func(args mock.Arguments) {
		h := args.Get(1).(*models.HoldingTax)
		h.ID = 1
		h.TaxNumber = "HT-000001"
	}).Return(nil)
	f.repo.On("GetByID", mock.Anything, int64(1)).
		Return(&models.HoldingTax{ID: 1, TaxNumber: "HT-000001", Status: models.HoldingTaxPending}, nil)

	// Act
	h, err := f.svc.Create(context.Background(), fieldOfficer, createParams())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "HT-000001", h.TaxNumber)
	f.repo.AssertExpectations(t)
}

func TestHoldingTaxService_Create_ExplicitAmount(t *testing.T) {
	f := newLedgerFixture()
	f.properties.On("GetByID", mock.Anything, int64(9)).Return(approvedProperty(), nil)
	f.periods.On("GetByID", mock.Anything, int64(3)).Return(&models.TaxPeriod{ID: 3, IsActive: true}, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(h *models.HoldingTax) bool {
		return h.TaxAmount.Equal(dec("1000.25"))
	})).Return(nil)
	f.repo.On("GetByID", mock.Anything, mock.Anything).Return(&models.HoldingTax{}, nil)

	params := createParams()
	amount := dec("1000.25")
	params.TaxAmount = &amount

	_, err := f.svc.Create(context.Background(), fieldOfficer, params)

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestHoldingTaxService_Create_AmountScale(t *testing.T) {
	tests := []struct {
		name    string
		tax     string
		penalty string
		field   string
		message string
	}{
		{name: "tax with three decimals", tax: "1000.005", penalty: "0", field: "tax_amount", message: "must have at most 2 decimal places"},
		{name: "penalty with three decimals", tax: "1000", penalty: "0.125", field: "penalty_amount", message: "must have at most 2 decimal places"},
		{name: "tax too large for column", tax: "10000000000000", penalty: "0", field: "tax_amount", message: "must be less than 10000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			params := createParams()
			amount := dec(tt.tax)
			params.TaxAmount = &amount
			params.PenaltyAmount = dec(tt.penalty)

			_, err := f.svc.Create(context.Background(), fieldOfficer, params)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.message, verr.Fields[tt.field])
			f.properties.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestHoldingTaxService_Create_Rules(t *testing.T) {
	tests := []struct {
		name     string
		property *models.Property
		period   *models.TaxPeriod
		repoErr  error
		params   func(p *CreateHoldingTaxParams)
		field    string
	}{
		{
			name:     "property not approved",
			property: &models.Property{ID: 9, Status: models.PropertyPendingApproval},
			field:    "property_id",
		},
		{
			name:     "inactive period",
			property: approvedProperty(),
			period:   &models.TaxPeriod{ID: 3, IsActive: false},
			field:    "tax_period_id",
		},
		{
			name:     "zero annual tax",
			property: &models.Property{ID: 9, Status: models.PropertyApproved, AssessedValue: dec("0"), TaxRate: dec("1")},
			period:   &models.TaxPeriod{ID: 3, IsActive: true},
			field:    "tax_amount",
		},
		{
			name:     "already assessed",
			property: approvedProperty(),
			period:   &models.TaxPeriod{ID: 3, IsActive: true},
			repoErr:  fmt.Errorf("%w: holding_taxes_property_id_tax_period_id_key", repository.ErrDuplicate),
			field:    "tax_period_id",
		},
		{
			name:   "missing due date",
			params: func(p *CreateHoldingTaxParams) { p.DueDate = time.Time{} },
			field:  "due_date",
		},
		{
			name:   "negative penalty",
			params: func(p *CreateHoldingTaxParams) { p.PenaltyAmount = dec("-5") },
			field:  "penalty_amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			if tt.property != nil {
				f.properties.On("GetByID", mock.Anything, int64(9)).Return(tt.property, nil)
			}
			if tt.period != nil {
				f.periods.On("GetByID", mock.Anything, int64(3)).Return(tt.period, nil)
			}
			f.repo.On("Create", mock.Anything, mock.Anything).Return(tt.repoErr).Maybe()

			params := createParams()
			if tt.params != nil {
				tt.params(&params)
			}

			_, err := f.svc.Create(context.Background(), fieldOfficer, params)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestHoldingTaxService_Get(t *testing.T) {
	f := newLedgerFixture()
	entry := openEntry(models.HoldingTaxPartial, "400")
	entry.DueDate = fixedNow.AddDate(0, 0, -1)
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(entry, nil)
	f.repo.On("ListPayments", mock.Anything, int64(5)).Return([]models.TaxPayment{{ID: 1, Amount: dec("400")}}, nil)

	d, err := f.svc.Get(context.Background(), officer, 5)

	require.NoError(t, err)
	assert.True(t, d.Balance.Equal(dec("650")))
	assert.True(t, d.IsOverdue)
	assert.Len(t, d.Payments, 1)
}

func TestHoldingTaxService_List(t *testing.T) {
	f := newLedgerFixture()
	summary := repository.HoldingTaxSummary{TotalTax: dec("1050"), PendingCount: 1}
	f.repo.On("List", mock.Anything, mock.MatchedBy(func(hf repository.HoldingTaxFilter) bool {
		return hf.AsOf.Equal(fixedNow) && hf.Overdue && hf.Page == 1
	})).Return([]models.HoldingTax{*openEntry(models.HoldingTaxPending, "0")}, 1, nil)
	f.repo.On("Summary", mock.Anything, mock.Anything).Return(summary, nil)

	list, err := f.svc.List(context.Background(), fieldOfficer, repository.HoldingTaxFilter{Overdue: true})

	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.Summary.PendingCount)
	assert.True(t, list.Summary.TotalTax.Equal(dec("1050")))
}

func TestHoldingTaxService_RecordPayment(t *testing.T) {
	// Arrange
	f := newLedgerFixture()
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxPending, "0"), nil)
	f.repo.On("RecordPayment", mock.Anything, int64(5), mock.MatchedBy(func(p *models.TaxPayment) bool {
		return p.Amount.Equal(dec("400")) &&
			p.ReceivedBy == fieldOfficer.UserID &&
			p.PaymentDate.Equal(models.DateOf(fixedNow))
	})).Run(func(args mock.Arguments) {
		args.Get(2).(*models.TaxPayment).PaymentNumber = "PAY-000001"
	}).Return(openEntry(models.HoldingTaxPartial, "400"), nil)

	// Act
	entry, payment, err := f.svc.RecordPayment(context.Background(), fieldOfficer, 5, PaymentParams{
		Amount: dec("400"),
		Method: models.PaymentCash,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, models.HoldingTaxPartial, entry.Status)
	assert.Equal(t, "PAY-000001", payment.PaymentNumber)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PaymentsRecorded.WithLabelValues("CASH")))
	assert.Equal(t, 400.0, testutil.ToFloat64(f.metrics.PaymentAmount))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WorkflowTransitions.WithLabelValues("holding_tax", "pay_partial")))
}

func TestHoldingTaxService_RecordPayment_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		target  error
		field   string
	}{
		{
			name:    "overpayment",
			repoErr: fmt.Errorf("%w: balance is 650.00", models.ErrOverpayment),
			target:  ErrValidation,
			field:   "amount",
		},
		{
			name:    "settled entry",
			repoErr: fmt.Errorf("%w: PAID entries accept no payments", models.ErrInvalidTransition),
			target:  ErrInvalidTransition,
		},
		{
			name:    "entry removed",
			repoErr: fmt.Errorf("holding tax 5: %w", repository.ErrNotFound),
			target:  ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxPartial, "400"), nil)
			f.repo.On("RecordPayment", mock.Anything, int64(5), mock.Anything).Return(nil, tt.repoErr)

			_, _, err := f.svc.RecordPayment(context.Background(), officer, 5, PaymentParams{
				Amount: dec("700"),
				Method: models.PaymentOnline,
			})

			assert.ErrorIs(t, err, tt.target)
			if tt.field != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, tt.field)
			}
			assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.PaymentsRecorded.WithLabelValues("ONLINE")))
		})
	}
}

func TestHoldingTaxService_RecordPayment_Validation(t *testing.T) {
	tomorrow := fixedNow.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		params PaymentParams
		field  string
	}{
		{name: "zero amount", params: PaymentParams{Amount: dec("0"), Method: models.PaymentCash}, field: "amount"},
		{name: "missing method", params: PaymentParams{Amount: dec("10")}, field: "payment_method"},
		{name: "unknown method", params: PaymentParams{Amount: dec("10"), Method: "BARTER"}, field: "payment_method"},
		{name: "cheque without number", params: PaymentParams{Amount: dec("10"), Method: models.PaymentCheque}, field: "cheque_number"},
		{name: "future date", params: PaymentParams{Amount: dec("10"), Method: models.PaymentCash, PaymentDate: &tomorrow}, field: "payment_date"},
		{name: "amount with three decimals", params: PaymentParams{Amount: dec("100.005"), Method: models.PaymentCash}, field: "amount"},
		{name: "amount too large", params: PaymentParams{Amount: dec("99999999999999999999"), Method: models.PaymentCash}, field: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()

			_, _, err := f.svc.RecordPayment(context.Background(), fieldOfficer, 5, tt.params)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			f.repo.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHoldingTaxService_RecordPayment_CitizenForbidden(t *testing.T) {
	f := newLedgerFixture()

	_, _, err := f.svc.RecordPayment(context.Background(), citizenUser, 5, PaymentParams{
		Amount: dec("10"),
		Method: models.PaymentCash,
	})

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHoldingTaxService_Update(t *testing.T) {
	t.Run("refused once paid", func(t *testing.T) {
		f := newLedgerFixture()
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxPaid, "1050"), nil)
		notes := "late"

		_, err := f.svc.Update(context.Background(), fieldOfficer, 5, UpdateHoldingTaxParams{Notes: &notes})

		assert.ErrorIs(t, err, ErrInvalidTransition)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("penalty waived down settles the entry", func(t *testing.T) {
		f := newLedgerFixture()
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxPartial, "1000"), nil).Once()
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(h *models.HoldingTax) bool {
			return h.Status == models.HoldingTaxPaid && h.PenaltyAmount.IsZero()
		}), models.HoldingTaxPartial).Return(nil)
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxPaid, "1000"), nil)
		zero := dec("0")

		h, err := f.svc.Update(context.Background(), fieldOfficer, 5, UpdateHoldingTaxParams{PenaltyAmount: &zero})

		require.NoError(t, err)
		assert.Equal(t, models.HoldingTaxPaid, h.Status)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WorkflowTransitions.WithLabelValues("holding_tax", "pay_full")))
	})

	t.Run("notes edit keeps overdue status", func(t *testing.T) {
		f := newLedgerFixture()
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxOverdue, "400"), nil)
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(h *models.HoldingTax) bool {
			return h.Status == models.HoldingTaxOverdue && h.Notes == "called owner"
		}), models.HoldingTaxOverdue).Return(nil)
		notes := " called owner "

		_, err := f.svc.Update(context.Background(), fieldOfficer, 5, UpdateHoldingTaxParams{Notes: &notes})

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("penalty raised on overdue stays overdue", func(t *testing.T) {
		f := newLedgerFixture()
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxOverdue, "400"), nil)
		f.repo.On("Update", mock.Anything, mock.MatchedBy(func(h *models.HoldingTax) bool {
			return h.Status == models.HoldingTaxOverdue && h.PenaltyAmount.Equal(dec("100"))
		}), models.HoldingTaxOverdue).Return(nil)
		penalty := dec("100")

		_, err := f.svc.Update(context.Background(), fieldOfficer, 5, UpdateHoldingTaxParams{PenaltyAmount: &penalty})

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
		assert.Zero(t, testutil.CollectAndCount(f.metrics.WorkflowTransitions))
	})

	t.Run("penalty with three decimals", func(t *testing.T) {
		f := newLedgerFixture()
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxPending, "0"), nil)
		penalty := dec("12.345")

		_, err := f.svc.Update(context.Background(), fieldOfficer, 5, UpdateHoldingTaxParams{PenaltyAmount: &penalty})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "must have at most 2 decimal places", verr.Fields["penalty_amount"])
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("total due below paid", func(t *testing.T) {
		f := newLedgerFixture()
		entry := openEntry(models.HoldingTaxPartial, "1020")
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(entry, nil)
		penalty := dec("10")

		_, err := f.svc.Update(context.Background(), fieldOfficer, 5, UpdateHoldingTaxParams{PenaltyAmount: &penalty})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "penalty_amount")
	})

	t.Run("paid concurrently", func(t *testing.T) {
		f := newLedgerFixture()
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(models.HoldingTaxPending, "0"), nil)
		f.repo.On("Update", mock.Anything, mock.Anything, models.HoldingTaxPending).
			Return(fmt.Errorf("holding tax 5: %w", repository.ErrStaleState))
		notes := "x"

		_, err := f.svc.Update(context.Background(), fieldOfficer, 5, UpdateHoldingTaxParams{Notes: &notes})

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestHoldingTaxService_Review(t *testing.T) {
	tests := []struct {
		name   string
		status models.HoldingTaxStatus
		reject bool
		want   models.HoldingTaxStatus
		err    error
	}{
		{name: "waive pending", status: models.HoldingTaxPending, want: models.HoldingTaxWaived},
		{name: "waive overdue", status: models.HoldingTaxOverdue, want: models.HoldingTaxWaived},
		{name: "waive paid", status: models.HoldingTaxPaid, err: ErrInvalidTransition},
		{name: "reject pending", status: models.HoldingTaxPending, reject: true, want: models.HoldingTaxOverdue},
		{name: "reject partial", status: models.HoldingTaxPartial, reject: true, want: models.HoldingTaxOverdue},
		{name: "reject waived", status: models.HoldingTaxWaived, reject: true, err: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			f.repo.On("GetByID", mock.Anything, int64(5)).Return(openEntry(tt.status, "0"), nil)
			f.repo.On("Transition", mock.Anything, mock.MatchedBy(func(tr repository.HoldingTaxTransition) bool {
				return tr.From == tt.status && tr.To == tt.want && tr.Actor == officer.UserID && tr.At.Equal(fixedNow)
			})).Return(openEntry(tt.want, "0"), nil).Maybe()

			var (
				h   *models.HoldingTax
				err error
			)
			if tt.reject {
				h, err = f.svc.Reject(context.Background(), officer, 5, "owner unreachable")
			} else {
				h, err = f.svc.Approve(context.Background(), officer, 5, "")
			}

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				f.repo.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Status)
		})
	}
}

func TestHoldingTaxService_Reject_RequiresReason(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.svc.Reject(context.Background(), officer, 5, "")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "reason")
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestHoldingTaxService_Review_RequiresOfficer(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.svc.Approve(context.Background(), fieldOfficer, 5, "")

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHoldingTaxService_Delete_WithPayments(t *testing.T) {
	f := newLedgerFixture()
	f.repo.On("Delete", mock.Anything, int64(5)).
		Return(fmt.Errorf("%w: tax_payments_holding_tax_id_fkey", repository.ErrReferenced))

	err := f.svc.Delete(context.Background(), fieldOfficer, 5)

	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestHoldingTaxService_CitizenLedger(t *testing.T) {
	f := newLedgerFixture()
	f.repo.On("List", mock.Anything, mock.MatchedBy(func(hf repository.HoldingTaxFilter) bool {
		return hf.OwnerUserID == citizenUser.UserID
	})).Return([]models.HoldingTax{}, 0, nil)
	f.repo.On("Summary", mock.Anything, mock.Anything).Return(repository.HoldingTaxSummary{}, nil)

	list, err := f.svc.ListForCitizen(context.Background(), citizenUser, 1)

	require.NoError(t, err)
	assert.Zero(t, list.Total)

	_, err = f.svc.ListForCitizen(context.Background(), fieldOfficer, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
