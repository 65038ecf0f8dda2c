package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/novalab-io/labms-api/internal/dto"
	"github.com/novalab-io/labms-api/internal/models"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

type chemicalRepoStub struct {
	items map[string]*models.Chemical
}

func newChemicalRepoStub() *chemicalRepoStub {
	return &chemicalRepoStub{items: make(map[string]*models.Chemical)}
}

func (m *chemicalRepoStub) Create(ctx context.Context, chem *models.Chemical) error {
	if chem.ID == "" {
		chem.ID = "chem-generated"
	}
	copy := *chem
	m.items[chem.ID] = &copy
	return nil
}

func (m *chemicalRepoStub) GetByID(ctx context.Context, id string) (*models.Chemical, error) {
	if chem, ok := m.items[id]; ok {
		copy := *chem
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *chemicalRepoStub) List(ctx context.Context, filter models.ChemicalFilter) ([]models.Chemical, int, error) {
	result := make([]models.Chemical, 0, len(m.items))
	for _, chem := range m.items {
		result = append(result, *chem)
	}
	return result, len(result), nil
}

func (m *chemicalRepoStub) Update(ctx context.Context, chem *models.Chemical) error {
	if _, ok := m.items[chem.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *chem
	m.items[chem.ID] = &copy
	return nil
}

func (m *chemicalRepoStub) AdjustQuantity(ctx context.Context, id string, delta float64, at time.Time) error {
	chem, ok := m.items[id]
	if !ok || chem.Quantity+delta < 0 {
		return sql.ErrNoRows
	}
	chem.Quantity += delta
	return nil
}

func TestChemicalServiceCreateDefaultsHazard(t *testing.T) {
	svc := NewChemicalService(newChemicalRepoStub(), nil, nil)

	chem, err := svc.Create(context.Background(), dto.CreateChemicalRequest{
		Name:     "ethanol",
		Quantity: 2.5,
		Unit:     "L",
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, models.HazardNone, chem.Hazard)
}

func TestChemicalServiceAdjustStock(t *testing.T) {
	repo := newChemicalRepoStub()
	svc := NewChemicalService(repo, nil, nil)
	seed, err := svc.Create(context.Background(), dto.CreateChemicalRequest{
		Name:     "acetone",
		Quantity: 1,
		Unit:     "L",
		Hazard:   "flammable",
	}, "admin-1")
	require.NoError(t, err)

	chem, err := svc.AdjustStock(context.Background(), seed.ID, dto.AdjustStockRequest{Delta: 0.5}, "admin-1")
	require.NoError(t, err)
	require.InDelta(t, 1.5, chem.Quantity, 1e-9)
}

func TestChemicalServiceAdjustStockCannotGoNegative(t *testing.T) {
	repo := newChemicalRepoStub()
	svc := NewChemicalService(repo, nil, nil)
	seed, err := svc.Create(context.Background(), dto.CreateChemicalRequest{
		Name:     "acetone",
		Quantity: 1,
		Unit:     "L",
	}, "admin-1")
	require.NoError(t, err)

	_, err = svc.AdjustStock(context.Background(), seed.ID, dto.AdjustStockRequest{Delta: -2}, "admin-1")
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	stored, err := svc.Get(context.Background(), seed.ID)
	require.NoError(t, err)
	require.InDelta(t, 1, stored.Quantity, 1e-9)
}
