package repository

import (
	"context"

	"github.com/stwalsh4118/cityhall/internal/database"
	"github.com/stwalsh4118/cityhall/internal/models"
)

// TaxPeriodRepository defines data access for the tax period catalog.
type TaxPeriodRepository interface {
	Create(ctx context.Context, p *models.TaxPeriod) error
	GetByID(ctx context.Context, id int64) (*models.TaxPeriod, error)
	// List orders periods newest first; a nil active returns every period.
	List(ctx context.Context, active *bool) ([]models.TaxPeriod, error)
	Update(ctx context.Context, p *models.TaxPeriod) error
	// Delete returns ErrReferenced while ledger entries use the period.
	Delete(ctx context.Context, id int64) error
}

type taxPeriodRepository struct {
	db *database.Database
}

// NewTaxPeriodRepository creates a new instance of TaxPeriodRepository.
func NewTaxPeriodRepository(db *database.Database) TaxPeriodRepository {
	return &taxPeriodRepository{db: db}
}

const taxPeriodColumns = `id, name, start_date, end_date, is_active, created_at`

func scanTaxPeriod(row scanner, p *models.TaxPeriod) error {
	return row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt)
}

func (r *taxPeriodRepository) Create(ctx context.Context, p *models.TaxPeriod) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO tax_periods (name, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		p.Name, p.StartDate, p.EndDate, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt)
	return translate(err, "create tax period")
}

func (r *taxPeriodRepository) GetByID(ctx context.Context, id int64) (*models.TaxPeriod, error) {
	var p models.TaxPeriod
	row := r.db.Pool.QueryRow(ctx, `SELECT `+taxPeriodColumns+` FROM tax_periods WHERE id = $1`, id)
	if err := scanTaxPeriod(row, &p); err != nil {
		return nil, translate(err, "get tax period")
	}
	return &p, nil
}

func (r *taxPeriodRepository) List(ctx context.Context, active *bool) ([]models.TaxPeriod, error) {
	var conds conditions
	if active != nil {
		conds.add("is_active = " + conds.arg(*active))
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+taxPeriodColumns+` FROM tax_periods`+conds.where()+` ORDER BY start_date DESC, id DESC`,
		conds.args...)
	if err != nil {
		return nil, translate(err, "list tax periods")
	}
	defer rows.Close()

	periods := []models.TaxPeriod{}
	for rows.Next() {
		var p models.TaxPeriod
		if err := scanTaxPeriod(rows, &p); err != nil {
			return nil, translate(err, "scan tax period row")
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate tax period rows")
	}
	return periods, nil
}

func (r *taxPeriodRepository) Update(ctx context.Context, p *models.TaxPeriod) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE tax_periods SET name = $2, start_date = $3, end_date = $4, is_active = $5
		WHERE id = $1`,
		p.ID, p.Name, p.StartDate, p.EndDate, p.IsActive)
	if err != nil {
		return translate(err, "update tax period")
	}
	if tag.RowsAffected() == 0 {
		return notFound("update tax period")
	}
	return nil
}

func (r *taxPeriodRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM tax_periods WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete tax period")
	}
	if tag.RowsAffected() == 0 {
		return notFound("delete tax period")
	}
	return nil
}
