package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/novalab-io/labms-api/internal/models"
)

// ChemicalRepository provides database access for the chemical inventory.
type ChemicalRepository struct {
	db *sqlx.DB
}

// NewChemicalRepository constructs the repository.
func NewChemicalRepository(db *sqlx.DB) *ChemicalRepository {
	return &ChemicalRepository{db: db}
}

const chemicalColumns = `id, name, cas_number, quantity, unit, hazard, room_id, created_at, updated_at`

// Create inserts a chemical row.
func (r *ChemicalRepository) Create(ctx context.Context, chem *models.Chemical) error {
	if chem.ID == "" {
		chem.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if chem.CreatedAt.IsZero() {
		chem.CreatedAt = now
	}
	chem.UpdatedAt = now
	if chem.Hazard == "" {
		chem.Hazard = models.HazardNone
	}

	const query = `INSERT INTO chemicals (id, name, cas_number, quantity, unit, hazard, room_id, created_at, updated_at)
	VALUES (:id, :name, :cas_number, :quantity, :unit, :hazard, :room_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, chem); err != nil {
		return fmt.Errorf("create chemical: %w", err)
	}
	return nil
}

// GetByID fetches one chemical.
func (r *ChemicalRepository) GetByID(ctx context.Context, id string) (*models.Chemical, error) {
	query := fmt.Sprintf(`SELECT %s FROM chemicals WHERE id = $1 LIMIT 1`, chemicalColumns)
	var chem models.Chemical
	if err := r.db.GetContext(ctx, &chem, query, id); err != nil {
		return nil, err
	}
	return &chem, nil
}

// List returns chemicals matching the filter with a total count.
func (r *ChemicalRepository) List(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, int, error) {
	baseQuery := `FROM chemicals WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Hazard != "" {
		conditions = append(conditions, fmt.Sprintf("hazard = $%d", len(args)+1))
		args = append(args, filter.Hazard)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR cas_number = $%d)", len(args)+1, len(args)+2))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%", filter.Search)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", chemicalColumns, baseQuery, pageSize, offset)
	var items []models.Chemical
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list chemicals: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count chemicals: %w", err)
	}

	return items, total, nil
}

// Update persists mutable chemical fields.
func (r *ChemicalRepository) Update(ctx context.Context, chem *models.Chemical) error {
	chem.UpdatedAt = time.Now().UTC()
	const query = `UPDATE chemicals SET name = :name, cas_number = :cas_number, quantity = :quantity,
	unit = :unit, hazard = :hazard, room_id = :room_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, chem); err != nil {
		return fmt.Errorf("update chemical: %w", err)
	}
	return nil
}

// AdjustQuantity applies a stock delta, refusing to go below zero.
func (r *ChemicalRepository) AdjustQuantity(ctx context.Context, id string, delta float64, at time.Time) error {
	const query = `UPDATE chemicals SET quantity = quantity + $2, updated_at = $3
	WHERE id = $1 AND quantity + $2 >= 0`
	result, err := r.db.ExecContext(ctx, query, id, delta, at)
	if err != nil {
		return fmt.Errorf("adjust chemical quantity: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check chemical adjust rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
