package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/cityhall/internal/database"
	"github.com/stwalsh4118/cityhall/internal/models"
)

// HoldingTaxFilter narrows a ledger listing. Zero values match everything.
type HoldingTaxFilter struct {
	// AsOf is the reference day for Overdue.
	AsOf   time.Time
	Search string
	Status models.HoldingTaxStatus
	// OwnerUserID limits results to entries of the citizen linked to a user.
	OwnerUserID string
	// Overdue keeps entries past due and not paid, regardless of status.
	Overdue bool
	Page    int
}

// HoldingTaxSummary aggregates a filtered ledger.
type HoldingTaxSummary struct {
	TotalTax     decimal.Decimal `json:"total_tax"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	PendingCount int             `json:"pending_count"`
	OverdueCount int             `json:"overdue_count"`
}

// HoldingTaxTransition is a compare-and-set review of a ledger entry.
type HoldingTaxTransition struct {
	At     time.Time
	From   models.HoldingTaxStatus
	To     models.HoldingTaxStatus
	Actor  string
	Reason string
	ID     int64
}

// HoldingTaxRepository defines data access for the holding tax ledger and
// its payments.
type HoldingTaxRepository interface {
	// Create inserts h and fills id, generated tax number and timestamps.
	// A second entry for the same property and period returns ErrDuplicate.
	Create(ctx context.Context, h *models.HoldingTax) error
	GetByID(ctx context.Context, id int64) (*models.HoldingTax, error)
	List(ctx context.Context, f HoldingTaxFilter) ([]models.HoldingTax, int, error)
	Summary(ctx context.Context, f HoldingTaxFilter) (HoldingTaxSummary, error)
	// Update writes due date, penalty, notes and status if the row is still
	// in expected. A lost race returns ErrStaleState.
	Update(ctx context.Context, h *models.HoldingTax, expected models.HoldingTaxStatus) error
	// Transition applies an officer review if the row is still in t.From.
	Transition(ctx context.Context, t HoldingTaxTransition) (*models.HoldingTax, error)
	// Delete returns ErrReferenced while payments exist.
	Delete(ctx context.Context, id int64) error
	// RecordPayment inserts p against entry id and reconciles the entry in a
	// single transaction. The entry row is locked for the duration, so
	// concurrent payments serialize and each sees the previous one's total.
	RecordPayment(ctx context.Context, id int64, p *models.TaxPayment) (*models.HoldingTax, error)
	ListPayments(ctx context.Context, id int64) ([]models.TaxPayment, error)
	// Count counts entries in status, or every entry when status is empty.
	Count(ctx context.Context, status models.HoldingTaxStatus) (int, error)
	Recent(ctx context.Context, status models.HoldingTaxStatus, limit int) ([]models.HoldingTax, error)
	// OutstandingForOwner sums unpaid balances of non-waived entries owned by
	// the citizen linked to userID.
	OutstandingForOwner(ctx context.Context, userID string) (decimal.Decimal, error)
}

type holdingTaxRepository struct {
	db *database.Database
}

// NewHoldingTaxRepository creates a new instance of HoldingTaxRepository.
func NewHoldingTaxRepository(db *database.Database) HoldingTaxRepository {
	return &holdingTaxRepository{db: db}
}

const holdingTaxFrom = `
	FROM holding_taxes h
	JOIN properties p ON p.id = h.property_id
	JOIN citizens c ON c.id = p.owner_id
	JOIN tax_periods tp ON tp.id = h.tax_period_id`

const holdingTaxSelect = `
	SELECT
		h.id, h.tax_number, h.property_id, p.property_number,
		c.first_name || ' ' || c.last_name, h.tax_period_id, tp.name,
		h.tax_amount, h.penalty_amount, h.paid_amount, h.due_date,
		h.status, h.notes, h.review_reason, h.reviewed_by, h.reviewed_at,
		h.created_by, h.created_at, h.updated_at` + holdingTaxFrom

func scanHoldingTax(row scanner, h *models.HoldingTax) error {
	return row.Scan(
		&h.ID,
		&h.TaxNumber,
		&h.PropertyID,
		&h.PropertyNumber,
		&h.OwnerName,
		&h.TaxPeriodID,
		&h.TaxPeriodName,
		&h.TaxAmount,
		&h.PenaltyAmount,
		&h.PaidAmount,
		&h.DueDate,
		&h.Status,
		&h.Notes,
		&h.ReviewReason,
		&h.ReviewedBy,
		&h.ReviewedAt,
		&h.CreatedBy,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
}

const paymentColumns = `
	id, payment_number, holding_tax_id, payment_date, amount, payment_method,
	reference_number, cheque_number, bank_name, notes, received_by, created_at`

func scanPayment(row scanner, p *models.TaxPayment) error {
	return row.Scan(
		&p.ID,
		&p.PaymentNumber,
		&p.HoldingTaxID,
		&p.PaymentDate,
		&p.Amount,
		&p.Method,
		&p.ReferenceNumber,
		&p.ChequeNumber,
		&p.BankName,
		&p.Notes,
		&p.ReceivedBy,
		&p.CreatedAt,
	)
}

func (r *holdingTaxRepository) Create(ctx context.Context, h *models.HoldingTax) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO holding_taxes (
			property_id, tax_period_id, tax_amount, penalty_amount, paid_amount,
			due_date, status, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, tax_number, created_at, updated_at`,
		h.PropertyID, h.TaxPeriodID, h.TaxAmount, h.PenaltyAmount, h.PaidAmount,
		h.DueDate, h.Status, h.Notes, h.CreatedBy,
	).Scan(&h.ID, &h.TaxNumber, &h.CreatedAt, &h.UpdatedAt)
	return translate(err, "create holding tax")
}

func (r *holdingTaxRepository) GetByID(ctx context.Context, id int64) (*models.HoldingTax, error) {
	var h models.HoldingTax
	if err := scanHoldingTax(r.db.Pool.QueryRow(ctx, holdingTaxSelect+` WHERE h.id = $1`, id), &h); err != nil {
		return nil, translate(err, "get holding tax")
	}
	return &h, nil
}

func (f HoldingTaxFilter) conditions() *conditions {
	conds := &conditions{}
	conds.search(f.Search, "h.tax_number", "p.property_number", "c.first_name", "c.last_name", "c.national_id")
	if f.Status != "" {
		conds.add("h.status = " + conds.arg(f.Status))
	}
	if f.OwnerUserID != "" {
		conds.add("c.user_id = " + conds.arg(f.OwnerUserID))
	}
	if f.Overdue {
		conds.add(fmt.Sprintf("h.due_date < %s AND h.status <> 'PAID'", conds.arg(models.DateOf(f.AsOf))))
	}
	return conds
}

func (r *holdingTaxRepository) List(ctx context.Context, f HoldingTaxFilter) ([]models.HoldingTax, int, error) {
	conds := f.conditions()

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*)`+holdingTaxFrom+conds.where(), conds.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "count holding taxes")
	}

	query := holdingTaxSelect + conds.where() +
		` ORDER BY h.due_date DESC, h.id DESC` + conds.page(models.PageSize, models.PageOffset(f.Page))
	entries, err := r.query(ctx, query, conds.args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *holdingTaxRepository) Summary(ctx context.Context, f HoldingTaxFilter) (HoldingTaxSummary, error) {
	conds := f.conditions()
	asOf := conds.arg(models.DateOf(f.AsOf))

	var s HoldingTaxSummary
	err := r.db.Pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(h.tax_amount), 0),
			COALESCE(SUM(h.paid_amount), 0),
			COUNT(*) FILTER (WHERE h.status = 'PENDING'),
			COUNT(*) FILTER (WHERE h.due_date < `+asOf+` AND h.status <> 'PAID')`+
		holdingTaxFrom+conds.where(), conds.args...,
	).Scan(&s.TotalTax, &s.TotalPaid, &s.PendingCount, &s.OverdueCount)
	if err != nil {
		return HoldingTaxSummary{}, translate(err, "summarize holding taxes")
	}
	return s, nil
}

func (r *holdingTaxRepository) Update(ctx context.Context, h *models.HoldingTax, expected models.HoldingTaxStatus) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE holding_taxes SET
			due_date = $2, penalty_amount = $3, notes = $4, status = $5, updated_at = NOW()
		WHERE id = $1 AND status = $6`,
		h.ID, h.DueDate, h.PenaltyAmount, h.Notes, h.Status, expected)
	if err != nil {
		return translate(err, "update holding tax")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update holding tax %d: %w", h.ID, ErrStaleState)
	}
	return nil
}

func (r *holdingTaxRepository) Transition(ctx context.Context, t HoldingTaxTransition) (*models.HoldingTax, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE holding_taxes SET
			status = $3, reviewed_by = $4, reviewed_at = $5, review_reason = $6, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		t.ID, t.From, t.To, t.Actor, t.At, t.Reason)
	if err != nil {
		return nil, translate(err, "transition holding tax")
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("transition holding tax %d from %s: %w", t.ID, t.From, ErrStaleState)
	}
	return r.GetByID(ctx, t.ID)
}

func (r *holdingTaxRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM holding_taxes WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete holding tax")
	}
	if tag.RowsAffected() == 0 {
		return notFound("delete holding tax")
	}
	return nil
}

func (r *holdingTaxRepository) RecordPayment(ctx context.Context, id int64, p *models.TaxPayment) (*models.HoldingTax, error) {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var entry models.HoldingTax
		err := tx.QueryRow(ctx, `
			SELECT status, tax_amount, penalty_amount, paid_amount
			FROM holding_taxes WHERE id = $1
			FOR UPDATE`, id,
		).Scan(&entry.Status, &entry.TaxAmount, &entry.PenaltyAmount, &entry.PaidAmount)
		if err != nil {
			return translate(err, "lock holding tax")
		}

		if err := entry.AcceptPayment(p.Amount); err != nil {
			return err
		}

		p.HoldingTaxID = id
		err = tx.QueryRow(ctx, `
			INSERT INTO tax_payments (
				holding_tax_id, payment_date, amount, payment_method,
				reference_number, cheque_number, bank_name, notes, received_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, payment_number, created_at`,
			id, p.PaymentDate, p.Amount, p.Method,
			p.ReferenceNumber, p.ChequeNumber, p.BankName, p.Notes, p.ReceivedBy,
		).Scan(&p.ID, &p.PaymentNumber, &p.CreatedAt)
		if err != nil {
			return translate(err, "insert payment")
		}

		// Recompute from the payments themselves rather than incrementing.
		var paid decimal.Decimal
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM tax_payments WHERE holding_tax_id = $1`, id,
		).Scan(&paid); err != nil {
			return translate(err, "sum payments")
		}

		if err := entry.Reconcile(paid); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE holding_taxes SET paid_amount = $2, status = $3, updated_at = NOW()
			WHERE id = $1`,
			id, entry.PaidAmount, entry.Status)
		return translate(err, "reconcile holding tax")
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *holdingTaxRepository) ListPayments(ctx context.Context, id int64) ([]models.TaxPayment, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM tax_payments WHERE holding_tax_id = $1 ORDER BY payment_date DESC, id DESC`, id)
	if err != nil {
		return nil, translate(err, "list payments")
	}
	defer rows.Close()

	payments := []models.TaxPayment{}
	for rows.Next() {
		var p models.TaxPayment
		if err := scanPayment(rows, &p); err != nil {
			return nil, translate(err, "scan payment row")
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate payment rows")
	}
	return payments, nil
}

func (r *holdingTaxRepository) Count(ctx context.Context, status models.HoldingTaxStatus) (int, error) {
	var conds conditions
	if status != "" {
		conds.add("status = " + conds.arg(status))
	}
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM holding_taxes`+conds.where(), conds.args...).Scan(&n)
	return n, translate(err, "count holding taxes")
}

func (r *holdingTaxRepository) Recent(ctx context.Context, status models.HoldingTaxStatus, limit int) ([]models.HoldingTax, error) {
	var conds conditions
	if status != "" {
		conds.add("h.status = " + conds.arg(status))
	}
	query := holdingTaxSelect + conds.where() + ` ORDER BY h.created_at DESC, h.id DESC LIMIT ` + conds.arg(limit)
	return r.query(ctx, query, conds.args...)
}

func (r *holdingTaxRepository) OutstandingForOwner(ctx context.Context, userID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(h.tax_amount + h.penalty_amount - h.paid_amount), 0)`+holdingTaxFrom+`
		WHERE c.user_id = $1 AND h.status NOT IN ('PAID', 'WAIVED')`, userID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, translate(err, "sum outstanding balance")
	}
	return total, nil
}

func (r *holdingTaxRepository) query(ctx context.Context, query string, args ...any) ([]models.HoldingTax, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query holding taxes")
	}
	defer rows.Close()

	entries := []models.HoldingTax{}
	for rows.Next() {
		var h models.HoldingTax
		if err := scanHoldingTax(rows, &h); err != nil {
			return nil, translate(err, "scan holding tax row")
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate holding tax rows")
	}
	return entries, nil
}
