package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PropertyStatus is the workflow state of a holding.
type PropertyStatus string

const (
	PropertyDraft           PropertyStatus = "DRAFT"
	PropertyPendingApproval PropertyStatus = "PENDING_APPROVAL"
	PropertyApproved        PropertyStatus = "APPROVED"
	PropertyRejected        PropertyStatus = "REJECTED"
)

// Valid reports whether s is a known property status.
func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyDraft, PropertyPendingApproval, PropertyApproved, PropertyRejected:
		return true
	}
	return false
}

// PropertyTransitions is the complete set of legal property moves.
// REJECTED and APPROVED are terminal; a rejected holding is re-entered as a
// new record.
var PropertyTransitions = TransitionTable[PropertyStatus]{
	PropertyDraft: {
		ActionSubmit: PropertyPendingApproval,
	},
	PropertyPendingApproval: {
		ActionApprove: PropertyApproved,
		ActionReject:  PropertyRejected,
	},
}

// Property is a citizen-owned taxable holding.
// OwnerName and OwnerNationalID are read-only projections joined from the
// citizens table.
type Property struct {
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	SubmittedBy     *string         `json:"submitted_by,omitempty"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectedBy      *string         `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time      `json:"rejected_at,omitempty"`
	AreaSqft        decimal.Decimal `json:"area_sqft"`
	AssessedValue   decimal.Decimal `json:"assessed_value"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	PropertyNumber  string          `json:"property_number"`
	OwnerName       string          `json:"owner_name,omitempty"`
	OwnerNationalID string          `json:"owner_national_id,omitempty"`
	PropertyType    string          `json:"property_type"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	PostalCode      string          `json:"postal_code"`
	Status          PropertyStatus  `json:"status"`
	Notes           string          `json:"notes"`
	CreatedBy       string          `json:"created_by"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	ID              int64           `json:"id"`
	OwnerID         int64           `json:"owner_id"`
	IsActive        bool            `json:"is_active"`
}

// AnnualTax is assessed_value × tax_rate / 100, rounded to cents.
func (p *Property) AnnualTax() decimal.Decimal {
	if p.AssessedValue.IsZero() || p.TaxRate.IsZero() {
		return decimal.Zero
	}
	return RoundMoney(p.AssessedValue.Mul(p.TaxRate).Div(hundred))
}

// IsEditableBy reports whether userID may edit or submit the holding: only
// its creator, and only while it is still a draft.
func (p *Property) IsEditableBy(userID string) bool {
	return p.Status == PropertyDraft && userID != "" && p.CreatedBy == userID
}
