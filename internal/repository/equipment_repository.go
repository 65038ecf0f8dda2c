package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/novalab-io/labms-api/internal/models"
)

// EquipmentRepository provides database access for the equipment inventory.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository constructs the repository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

const equipmentColumns = `id, name, serial_number, room_id, status, notes, created_at, updated_at`

// Create inserts an equipment row.
func (r *EquipmentRepository) Create(ctx context.Context, eq *models.Equipment) error {
	if eq.ID == "" {
		eq.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if eq.CreatedAt.IsZero() {
		eq.CreatedAt = now
	}
	eq.UpdatedAt = now
	if eq.Status == "" {
		eq.Status = models.EquipmentAvailable
	}

	const query = `INSERT INTO equipment (id, name, serial_number, room_id, status, notes, created_at, updated_at)
	VALUES (:id, :name, :serial_number, :room_id, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, eq); err != nil {
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

// GetByID fetches one equipment row.
func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*models.Equipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment WHERE id = $1 LIMIT 1`, equipmentColumns)
	var eq models.Equipment
	if err := r.db.GetContext(ctx, &eq, query, id); err != nil {
		return nil, err
	}
	return &eq, nil
}

// List returns equipment matching the filter with a total count.
func (r *EquipmentRepository) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error) {
	baseQuery := `FROM equipment WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", equipmentColumns, baseQuery, pageSize, offset)
	var items []models.Equipment
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list equipment: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count equipment: %w", err)
	}

	return items, total, nil
}

// Update persists mutable equipment fields.
func (r *EquipmentRepository) Update(ctx context.Context, eq *models.Equipment) error {
	eq.UpdatedAt = time.Now().UTC()
	const query = `UPDATE equipment SET name = :name, serial_number = :serial_number, room_id = :room_id,
	status = :status, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, eq); err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	return nil
}

// Delete removes an equipment row.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM equipment WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return nil
}
