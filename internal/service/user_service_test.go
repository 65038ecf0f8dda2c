package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novalab-io/labms-api/internal/models"
	appErrors "github.com/novalab-io/labms-api/pkg/errors"
)

// mockUserRepo keeps users in a map and records audit writes.
type mockUserRepo struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func newMockUserRepo(seed ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*models.User)}
	for _, u := range seed {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = false
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceList(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "1", Email: "a@example.com"})
	svc := newUserService(repo)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestUserServiceCreateNormalizesEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := newUserService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "USER@EXAMPLE.COM",
		FullName: "User",
		Password: "secret1",
		Role:     models.RoleAdmin,
		Active:   true,
	}, "actor", models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", user.Email)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "1", Email: "user@example.com"})
	svc := newUserService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "user@example.com",
		FullName: "User",
		Password: "secret1",
		Role:     models.RoleUser,
		Active:   true,
	}, "actor", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "1", Email: "a@example.com", FullName: "Old", Role: models.RoleOperator, Active: true})
	svc := newUserService(repo)

	active := false
	user, err := svc.Update(context.Background(), "1", UpdateUserRequest{
		FullName: "New",
		Role:     models.RoleAdmin,
		Active:   &active,
	}, "actor", models.LoginRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.False(t, user.Active)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserUpdate, repo.auditLogs[0].Action)
}

func TestUserServiceDeleteSelfRejected(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "1", Email: "a@example.com", Active: true})
	svc := newUserService(repo)

	err := svc.Delete(context.Background(), "1", "1", models.LoginRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.True(t, repo.users["1"].Active, "self-delete must not deactivate the account")
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "1", Email: "a@example.com", Role: models.RoleOperator, Active: true})
	svc := newUserService(repo)

	err := svc.Delete(context.Background(), "1", "actor", models.LoginRequest{})
	require.NoError(t, err)

	assert.False(t, repo.users["1"].Active)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDelete, repo.auditLogs[0].Action)
}
