package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a payment was tendered.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCheque       PaymentMethod = "CHEQUE"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentOnline       PaymentMethod = "ONLINE"
	PaymentOther        PaymentMethod = "OTHER"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheque, PaymentBankTransfer, PaymentOnline, PaymentOther:
		return true
	}
	return false
}

// TaxPayment is an append-only payment against one ledger entry.
type TaxPayment struct {
	PaymentDate     time.Time       `json:"payment_date"`
	CreatedAt       time.Time       `json:"created_at"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentNumber   string          `json:"payment_number"`
	Method          PaymentMethod   `json:"payment_method"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	ChequeNumber    string          `json:"cheque_number,omitempty"`
	BankName        string          `json:"bank_name,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ReceivedBy      string          `json:"received_by"`
	ID              int64           `json:"id"`
	HoldingTaxID    int64           `json:"holding_tax_id"`
}

// SumPayments adds up payment amounts.
func SumPayments(payments []TaxPayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
