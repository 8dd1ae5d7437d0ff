package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

type AdminRepository struct {
	mock.Mock
}

func (m *AdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	return m.Called(ctx, admin).Error(0)
}

func (m *AdminRepository) Get(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Admin)
	return a, args.Error(1)
}

func (m *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	args := m.Called(ctx, email)
	a, _ := args.Get(0).(*model.Admin)
	return a, args.Error(1)
}

func (m *AdminRepository) Update(ctx context.Context, admin *model.Admin) error {
	return m.Called(ctx, admin).Error(0)
}

func (m *AdminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *AdminRepository) List(ctx context.Context) ([]*model.Admin, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*model.Admin)
	return out, args.Error(1)
}

func (m *AdminRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
