package repository

import (
	"context"

	"github.com/stwalsh4118/cityhall/internal/database"
	"github.com/stwalsh4118/cityhall/internal/models"
)

// CitizenFilter narrows a citizen listing.
type CitizenFilter struct {
	Active *bool
	Search string
	Page   int
}

// CitizenRepository defines data access for the citizen registry.
type CitizenRepository interface {
	// Create inserts c and fills its id and timestamps.
	Create(ctx context.Context, c *models.Citizen) error
	// GetByID returns ErrNotFound when no citizen has the id.
	GetByID(ctx context.Context, id int64) (*models.Citizen, error)
	// GetByUserID resolves the citizen linked to an authenticated user.
	GetByUserID(ctx context.Context, userID string) (*models.Citizen, error)
	// List returns one page of matches and the total match count.
	List(ctx context.Context, f CitizenFilter) ([]models.Citizen, int, error)
	UpdateContact(ctx context.Context, id int64, email, phone, address string) (*models.Citizen, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.Citizen, error)
	// Delete returns ErrReferenced while properties still point at the row.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	Recent(ctx context.Context, limit int) ([]models.Citizen, error)
}

type citizenRepository struct {
	db *database.Database
}

// NewCitizenRepository creates a new instance of CitizenRepository.
func NewCitizenRepository(db *database.Database) CitizenRepository {
	return &citizenRepository{db: db}
}

const citizenColumns = `
	id, national_id, first_name, last_name, email, phone, address,
	date_of_birth, user_id, is_active, created_by, created_at, updated_at`

func scanCitizen(row scanner, c *models.Citizen) error {
	return row.Scan(
		&c.ID,
		&c.NationalID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.Address,
		&c.DateOfBirth,
		&c.UserID,
		&c.IsActive,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (r *citizenRepository) Create(ctx context.Context, c *models.Citizen) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO citizens (
			national_id, first_name, last_name, email, phone, address,
			date_of_birth, user_id, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		c.NationalID, c.FirstName, c.LastName, c.Email, c.Phone, c.Address,
		c.DateOfBirth, c.UserID, c.IsActive, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err, "create citizen")
}

func (r *citizenRepository) GetByID(ctx context.Context, id int64) (*models.Citizen, error) {
	var c models.Citizen
	row := r.db.Pool.QueryRow(ctx, `SELECT `+citizenColumns+` FROM citizens WHERE id = $1`, id)
	if err := scanCitizen(row, &c); err != nil {
		return nil, translate(err, "get citizen")
	}
	return &c, nil
}

func (r *citizenRepository) GetByUserID(ctx context.Context, userID string) (*models.Citizen, error) {
	var c models.Citizen
	row := r.db.Pool.QueryRow(ctx, `SELECT `+citizenColumns+` FROM citizens WHERE user_id = $1`, userID)
	if err := scanCitizen(row, &c); err != nil {
		return nil, translate(err, "get citizen by user")
	}
	return &c, nil
}

func (r *citizenRepository) List(ctx context.Context, f CitizenFilter) ([]models.Citizen, int, error) {
	var conds conditions
	conds.search(f.Search, "first_name", "last_name", "national_id", "phone")
	if f.Active != nil {
		conds.add("is_active = " + conds.arg(*f.Active))
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM citizens`+conds.where(), conds.args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "count citizens")
	}

	query := `SELECT ` + citizenColumns + ` FROM citizens` + conds.where() +
		` ORDER BY last_name, first_name, id` + conds.page(models.PageSize, models.PageOffset(f.Page))

	citizens, err := r.query(ctx, query, conds.args...)
	if err != nil {
		return nil, 0, err
	}
	return citizens, total, nil
}

func (r *citizenRepository) UpdateContact(ctx context.Context, id int64, email, phone, address string) (*models.Citizen, error) {
	var c models.Citizen
	row := r.db.Pool.QueryRow(ctx, `
		UPDATE citizens
		SET email = $2, phone = $3, address = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+citizenColumns, id, email, phone, address)
	if err := scanCitizen(row, &c); err != nil {
		return nil, translate(err, "update citizen contact")
	}
	return &c, nil
}

func (r *citizenRepository) SetActive(ctx context.Context, id int64, active bool) (*models.Citizen, error) {
	var c models.Citizen
	row := r.db.Pool.QueryRow(ctx, `
		UPDATE citizens SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+citizenColumns, id, active)
	if err := scanCitizen(row, &c); err != nil {
		return nil, translate(err, "set citizen active")
	}
	return &c, nil
}

func (r *citizenRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM citizens WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete citizen")
	}
	if tag.RowsAffected() == 0 {
		return notFound("delete citizen")
	}
	return nil
}

func (r *citizenRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM citizens`).Scan(&n)
	return n, translate(err, "count citizens")
}

func (r *citizenRepository) Recent(ctx context.Context, limit int) ([]models.Citizen, error) {
	return r.query(ctx, `SELECT `+citizenColumns+` FROM citizens ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
}

func (r *citizenRepository) query(ctx context.Context, query string, args ...any) ([]models.Citizen, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "query citizens")
	}
	defer rows.Close()

	citizens := []models.Citizen{}
	for rows.Next() {
		var c models.Citizen
		if err := scanCitizen(rows, &c); err != nil {
			return nil, translate(err, "scan citizen row")
		}
		citizens = append(citizens, c)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate citizen rows")
	}
	return citizens, nil
}
