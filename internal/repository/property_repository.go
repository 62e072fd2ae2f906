package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/stwalsh4118/cityhall/internal/database"
	"github.com/stwalsh4118/cityhall/internal/models"
)

// PropertyFilter narrows a property listing. Zero values match everything.
type PropertyFilter struct {
	Search string
	Status models.PropertyStatus
	// OwnerUserID limits results to holdings of the citizen linked to a user.
	OwnerUserID string
	Page        int
}

// PropertyTransition is a compare-and-set status change.
type PropertyTransition struct {
	At     time.Time
	From   models.PropertyStatus
	To     models.PropertyStatus
	Actor  string
	Reason string
	ID     int64
}

// PropertyRepository defines data access for the property registry.
type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	GetByID(ctx context.Context, id int64) (*models.Property, error)
	List(ctx context.Context, f PropertyFilter) ([]models.Property, int, error)
	// Update writes the editable fields of a draft. It returns ErrStaleState
	// when the row is no longer a draft.
	Update(ctx context.Context, p *models.Property) error
	// Transition applies t only if the row is still in t.From, stamping the
	// actor for the target status. A lost race returns ErrStaleState.
	Transition(ctx context.Context, t PropertyTransition) (*models.Property, error)
	// Delete returns ErrReferenced while ledger entries exist.
	Delete(ctx context.Context, id int64) error
	// Count counts properties in status, or all properties when status is empty.
	Count(ctx context.Context, status models.PropertyStatus) (int, error)
	// Recent lists the newest properties in status, or of any status when empty.
	Recent(ctx context.Context, status models.PropertyStatus, limit int) ([]models.Property, error)
}

type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{db: db}
}

const propertySelect = `
	SELECT
		p.id, p.property_number, p.owner_id,
		c.first_name || ' ' || c.last_name, c.national_id,
		p.property_type, p.address, p.city, p.postal_code,
		p.area_sqft, p.assessed_value, p.tax_rate,
		p.status, p.notes, p.is_active, p.created_by,
		p.submitted_by, p.submitted_at, p.approved_by, p.approved_at,
		p.rejected_by, p.rejected_at, p.rejection_reason,
		p.created_at, p.updated_at
	FROM properties p
	JOIN citizens c ON c.id = p.owner_id`

func scanProperty(row scanner, p *models.Property) error {
	return row.Scan(
		&p.ID,
		&p.PropertyNumber,
		&p.OwnerID,
		&p.OwnerName,
		&p.OwnerNationalID,
		&p.PropertyType,
		&p.Address,
		&p.City,
		&p.PostalCode,
		&p.AreaSqft,
		&p.AssessedValue,
		&p.TaxRate,
		&p.Status,
		&p.Notes,
		&p.IsActive,
		&p.CreatedBy,
		&p.SubmittedBy,
		&p.SubmittedAt,
		&p.ApprovedBy,
		&p.ApprovedAt,
		&p.RejectedBy,
		&p.RejectedAt,
		&p.RejectionReason,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *propertyRepository) Create(ctx context.Context, p *models.Property) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO properties (
			property_number, owner_id, property_type, address, city, postal_code,
			area_sqft, assessed_value, tax_rate, status, notes, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		p.PropertyNumber, p.OwnerID, p.PropertyType, p.Address, p.City, p.PostalCode,
		p.AreaSqft, p.AssessedValue, p.TaxRate, p.Status, p.Notes, p.IsActive, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate(err, "create property")
}

func (r *propertyRepository) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	if err := scanProperty(r.db.Pool.QueryRow(ctx, propertySelect+` WHERE p.id = $1`, id), &p); err != nil {
		return nil, translate(err, "get property")
	}
	return &p, nil
}

func (r *propertyRepository) List(ctx context.Context, f PropertyFilter) ([]models.Property, int, error) {
	var conds conditions
	conds.search(f.Search, "p.property_number", "c.first_name", "c.last_name", "c.national_id", "p.address")
	if f.Status != "" {
		conds.add("p.status = " + conds.arg(f.Status))
	}
	if f.OwnerUserID != "" {
		conds.add("c.user_id = " + conds.arg(f.OwnerUserID))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM properties p JOIN citizens c ON c.id = p.owner_id` + conds.where()
	if err := r.db.Pool.QueryRow(ctx, countQuery, conds.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "count properties")
	}

	query := propertySelect + conds.where() +
		` ORDER BY p.created_at DESC, p.id DESC` + conds.page(models.PageSize, models.PageOffset(f.Page))
	props, err := r.query(ctx, query, conds.args...)
	if err != nil {
		return nil, 0, err
	}
	return props, total, nil
}

func (r *propertyRepository) Update(ctx context.Context, p *models.Property) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE properties SET
			property_number = $2, owner_id = $3, property_type = $4, address = $5,
			city = $6, postal_code = $7, area_sqft = $8, assessed_value = $9,
			tax_rate = $10, notes = $11, updated_at = NOW()
		WHERE id = $1 AND status = $12`,
		p.ID, p.PropertyNumber, p.OwnerID, p.PropertyType, p.Address,
		p.City, p.PostalCode, p.AreaSqft, p.AssessedValue,
		p.TaxRate, p.Notes, models.PropertyDraft)
	if err != nil {
		return translate(err, "update property")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update property %d: %w", p.ID, ErrStaleState)
	}
	return nil
}

func (r *propertyRepository) Transition(ctx context.Context, t PropertyTransition) (*models.Property, error) {
	var stamp string
	switch t.To {
	case models.PropertyPendingApproval:
		stamp = "submitted_by = $4, submitted_at = $5"
	case models.PropertyApproved:
		stamp = "approved_by = $4, approved_at = $5"
	case models.PropertyRejected:
		stamp = "rejected_by = $4, rejected_at = $5, rejection_reason = $6"
	default:
		return nil, fmt.Errorf("transition property %d: unsupported target status %s", t.ID, t.To)
	}

	args := []any{t.ID, t.From, t.To, t.Actor, t.At}
	if t.To == models.PropertyRejected {
		args = append(args, t.Reason)
	}

	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE properties SET status = $3, `+stamp+`, updated_at = NOW() WHERE id = $1 AND status = $2`,
		args...)
	if err != nil {
		return nil, translate(err, "transition property")
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("transition property %d from %s: %w", t.ID, t.From, ErrStaleState)
	}
	return r.GetByID(ctx, t.ID)
}

func (r *propertyRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete property")
	}
	if tag.RowsAffected() == 0 {
		return notFound("delete property")
	}
	return nil
}

func (r *propertyRepository) Count(ctx context.Context, status models.PropertyStatus) (int, error) {
	var conds conditions
	if status != "" {
		conds.add("status = " + conds.arg(status))
	}
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`+conds.where(), conds.args...).Scan(&n)
	return n, translate(err, "count properties")
}

func (r *propertyRepository) Recent(ctx context.Context, status models.PropertyStatus, limit int) ([]models.Property, error) {
	var conds conditions
	if status != "" {
		conds.add("p.status = " + conds.arg(status))
	}
	query := propertySelect + conds.where() + ` ORDER BY p.created_at DESC, p.id DESC LIMIT ` + conds.arg(limit)
	return r.query(ctx, query, conds.args...)
}

func (r *propertyRepository) query(ctx context.Context, query string, args ...any) ([]models.Property, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query properties")
	}
	defer rows.Close()

	props := []models.Property{}
	for rows.Next() {
		var p models.Property
		if err := scanProperty(rows, &p); err != nil {
			return nil, translate(err, "scan property row")
		}
		props = append(props, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate property rows")
	}
	return props, nil
}
