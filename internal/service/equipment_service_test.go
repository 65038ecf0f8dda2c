package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/models"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

type equipmentRepoStub struct {
	items map[string]*models.Equipment
}

func newEquipmentRepoStub() *equipmentRepoStub {
	return &equipmentRepoStub{items: make(map[string]*models.Equipment)}
}

func (m *equipmentRepoStub) Create(ctx context.Context, eq *models.Equipment) error {
	if eq.ID == "" {
		eq.ID = "eq-generated"
	}
	copy := *eq
	m.items[eq.ID] = &copy
	return nil
}

func (m *equipmentRepoStub) GetByID(ctx context.Context, id string) (*models.Equipment, error) {
	if eq, ok := m.items[id]; ok {
		copy := *eq
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *equipmentRepoStub) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error) {
	result := make([]models.Equipment, 0, len(m.items))
	for _, eq := range m.items {
		result = append(result, *eq)
	}
	return result, len(result), nil
}

func (m *equipmentRepoStub) Update(ctx context.Context, eq *models.Equipment) error {
	if _, ok := m.items[eq.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *eq
	m.items[eq.ID] = &copy
	return nil
}

func (m *equipmentRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func TestEquipmentServiceCreateDefaultsStatus(t *testing.T) {
	repo := newEquipmentRepoStub()
	audit := &auditStub{}
	svc := NewEquipmentService(repo, audit, nil)

	eq, err := svc.Create(context.Background(), dto.CreateEquipmentRequest{Name: "centrifuge"}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.EquipmentAvailable, eq.Status)
	require.Len(t, audit.logs, 1)
	require.Equal(t, models.AuditActionInventoryWrite, audit.logs[0].Action)
}

func TestEquipmentServiceCreateRejectsBadStatus(t *testing.T) {
	svc := NewEquipmentService(newEquipmentRepoStub(), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateEquipmentRequest{Name: "x", Status: "BROKEN"}, "admin-1")
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEquipmentServiceUpdatePartial(t *testing.T) {
	repo := newEquipmentRepoStub()
	svc := NewEquipmentService(repo, nil, nil)
	seed, err := svc.Create(context.Background(), dto.CreateEquipmentRequest{Name: "oscilloscope"}, "admin-1")
	require.NoError(t, err)

	status := "maintenance"
	updated, err := svc.Update(context.Background(), seed.ID, dto.UpdateEquipmentRequest{Status: &status}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.EquipmentMaintenance, updated.Status)
	require.Equal(t, "oscilloscope", updated.Name)
}

func TestEquipmentServiceDeleteUnknown(t *testing.T) {
	svc := NewEquipmentService(newEquipmentRepoStub(), nil, nil)

	err := svc.Delete(context.Background(), "missing", "admin-1")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
