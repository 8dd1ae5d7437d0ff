package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
)

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, svc *model.Service) error {
	return m.Called(ctx, svc).Error(0)
}

func (m *MockServiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	args := m.Called(ctx, id)
	svc, _ := args.Get(0).(*model.Service)
	return svc, args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, svc *model.Service) error {
	return m.Called(ctx, svc).Error(0)
}

func (m *MockServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockServiceRepository) ListActive(ctx context.Context) ([]*model.Service, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*model.Service)
	return out, args.Error(1)
}

func (m *MockServiceRepository) ListWithCounts(ctx context.Context) ([]*model.ServiceWithCount, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]*model.ServiceWithCount)
	return out, args.Error(1)
}

func newService(repo *MockServiceRepository) *Service {
	return NewService(repo, time.Minute, nil)
}

func TestListActive_IsCachedUntilMutation(t *testing.T) {
	repo := new(MockServiceRepository)
	svc := newService(repo)
	ctx := context.Background()

	active := []*model.Service{{Name: "Massage", Duration: 30, Active: true}}
	repo.On("ListActive", ctx).Return(active, nil)

	for i := 0; i < 3; i++ {
		got, err := svc.ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	repo.AssertNumberOfCalls(t, "ListActive", 1)

	repo.On("Create", ctx, mock.Anything).Return(nil)
	_, err := svc.Create(ctx, &model.CreateServiceRequest{Name: "Facial", Duration: 45})
	require.NoError(t, err)

	_, err = svc.ListActive(ctx)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ListActive", 2)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(new(MockServiceRepository))
	negative := -5.0

	_, err := svc.Create(context.Background(), &model.CreateServiceRequest{Name: "", Duration: 0, Price: &negative})
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "duration")
	assert.Contains(t, appErr.Fields, "price")
}

func TestCreate_DefaultsToActive(t *testing.T) {
	repo := new(MockServiceRepository)
	svc := newService(repo)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Service) bool {
		return s.Active && s.Name == "Facial"
	})).Return(nil)

	created, err := svc.Create(context.Background(), &model.CreateServiceRequest{Name: " Facial ", Duration: 45})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	repo.AssertExpectations(t)
}

func TestGet_HidesInactive(t *testing.T) {
	repo := new(MockServiceRepository)
	svc := newService(repo)
	inactive := &model.Service{Base: model.NewBase(time.Now()), Name: "Old", Duration: 30}
	repo.On("Get", mock.Anything, inactive.ID).Return(inactive, nil)
	missing := uuid.New()
	repo.On("Get", mock.Anything, missing).Return(nil, repository.ErrNotFound)

	_, err := svc.Get(context.Background(), inactive.ID)
	assert.Equal(t, errors.KindServiceNotFound, errors.KindOf(err))

	_, err = svc.Get(context.Background(), missing)
	assert.Equal(t, errors.KindServiceNotFound, errors.KindOf(err))
}

func TestUpdate_Partial(t *testing.T) {
	repo := new(MockServiceRepository)
	svc := newService(repo)
	price := 80.0
	existing := &model.Service{Base: model.NewBase(time.Now()), Name: "Massage", Duration: 30, Price: &price, Active: true}
	repo.On("Get", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	duration := 60
	updated, err := svc.Update(context.Background(), existing.ID, &model.UpdateServiceRequest{Duration: &duration})
	require.NoError(t, err)
	assert.Equal(t, 60, updated.Duration)
	assert.Equal(t, "Massage", updated.Name)
	assert.Equal(t, 80.0, *updated.Price)
}

func TestDelete_WithBookings(t *testing.T) {
	repo := new(MockServiceRepository)
	svc := newService(repo)
	id := uuid.New()
	repo.On("Delete", mock.Anything, id).Return(repository.ErrReferenced)

	err := svc.Delete(context.Background(), id)
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
}
