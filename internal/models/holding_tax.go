package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment acceptance errors.
var (
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	ErrOverpayment       = errors.New("amount exceeds the outstanding balance")
)

// HoldingTaxStatus is the settlement state of a ledger entry.
type HoldingTaxStatus string

const (
	HoldingTaxPending HoldingTaxStatus = "PENDING"
	HoldingTaxPaid    HoldingTaxStatus = "PAID"
	HoldingTaxPartial HoldingTaxStatus = "PARTIAL"
	HoldingTaxOverdue HoldingTaxStatus = "OVERDUE"
	HoldingTaxWaived  HoldingTaxStatus = "WAIVED"
)

// Valid reports whether s is a known ledger status.
func (s HoldingTaxStatus) Valid() bool {
	switch s {
	case HoldingTaxPending, HoldingTaxPaid, HoldingTaxPartial, HoldingTaxOverdue, HoldingTaxWaived:
		return true
	}
	return false
}

// HoldingTaxTransitions covers both payment-derived moves and the officer's
// administrative overrides. Approve grants a waiver, Reject flags the entry
// overdue. PAID and WAIVED are terminal.
var HoldingTaxTransitions = TransitionTable[HoldingTaxStatus]{
	HoldingTaxPending: {
		ActionPayPartial: HoldingTaxPartial,
		ActionPayFull:    HoldingTaxPaid,
		ActionApprove:    HoldingTaxWaived,
		ActionReject:     HoldingTaxOverdue,
	},
	HoldingTaxPartial: {
		ActionPayPartial: HoldingTaxPartial,
		ActionPayFull:    HoldingTaxPaid,
		ActionApprove:    HoldingTaxWaived,
		ActionReject:     HoldingTaxOverdue,
	},
	HoldingTaxOverdue: {
		ActionPayPartial: HoldingTaxPartial,
		ActionPayFull:    HoldingTaxPaid,
		ActionApprove:    HoldingTaxWaived,
	},
}

// HoldingTax is one assessment of a property for a tax period.
// PaidAmount is maintained by the server as the sum of the entry's payments.
type HoldingTax struct {
	DueDate        time.Time        `json:"due_date"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	ReviewedBy     *string          `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	TaxAmount      decimal.Decimal  `json:"tax_amount"`
	PenaltyAmount  decimal.Decimal  `json:"penalty_amount"`
	PaidAmount     decimal.Decimal  `json:"paid_amount"`
	TaxNumber      string           `json:"tax_number"`
	PropertyNumber string           `json:"property_number,omitempty"`
	OwnerName      string           `json:"owner_name,omitempty"`
	TaxPeriodName  string           `json:"tax_period_name,omitempty"`
	Status         HoldingTaxStatus `json:"status"`
	Notes          string           `json:"notes"`
	ReviewReason   string           `json:"review_reason,omitempty"`
	CreatedBy      string           `json:"created_by"`
	ID             int64            `json:"id"`
	PropertyID     int64            `json:"property_id"`
	TaxPeriodID    int64            `json:"tax_period_id"`
}

// TotalDue is the assessed amount plus penalty.
func (h *HoldingTax) TotalDue() decimal.Decimal {
	return h.TaxAmount.Add(h.PenaltyAmount)
}

// Balance is tax + penalty − paid. It is only negative if the ledger was
// loaded with an overpayment written before overpayments were rejected.
func (h *HoldingTax) Balance() decimal.Decimal {
	return h.TotalDue().Sub(h.PaidAmount)
}

// IsOverdue reports whether the due date is before asOf's calendar day and
// the entry is not settled. It is a read-time check and never persisted.
func (h *HoldingTax) IsOverdue(asOf time.Time) bool {
	return DateOf(h.DueDate).Before(DateOf(asOf)) && h.Status != HoldingTaxPaid
}

// AcceptsPayments reports whether the current status allows a payment.
func (h *HoldingTax) AcceptsPayments() bool {
	return HoldingTaxTransitions.Allows(h.Status, ActionPayPartial)
}

// AcceptPayment checks whether a payment of amount may be recorded now.
func (h *HoldingTax) AcceptPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !h.AcceptsPayments() {
		return fmt.Errorf("%w: %s entries do not accept payments", ErrInvalidTransition, h.Status)
	}
	if amount.GreaterThan(h.Balance()) {
		return fmt.Errorf("%w: balance is %s", ErrOverpayment, h.Balance().StringFixed(2))
	}
	return nil
}

// Reconcile sets PaidAmount to paidTotal, the freshly summed payments, and
// derives the status: PAID once the total due is covered, PARTIAL while
// something but not everything is paid, otherwise unchanged.
func (h *HoldingTax) Reconcile(paidTotal decimal.Decimal) error {
	h.PaidAmount = paidTotal

	var action Action
	switch {
	case !paidTotal.LessThan(h.TotalDue()):
		action = ActionPayFull
	case paidTotal.IsPositive():
		action = ActionPayPartial
	default:
		return nil
	}

	if h.Status == HoldingTaxPaid && action == ActionPayFull {
		return nil
	}

	next, err := HoldingTaxTransitions.Next(h.Status, action)
	if err != nil {
		return err
	}
	h.Status = next
	return nil
}
