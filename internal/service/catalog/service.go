package catalog

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

const activeServicesKey = "services:active"

// Service manages the clinic's service catalog. The public list of active
// services is cached and flushed on every change. Slot availability is never
// cached here.
type Service struct {
	repo     repository.ServiceRepository
	cache    *cache.Cache
	validate *validator.Validator
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.ServiceRepository, ttl time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		cache:    cache.New(ttl, 2*ttl),
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) ListActive(ctx context.Context) ([]*model.Service, error) {
	if cached, ok := s.cache.Get(activeServicesKey); ok {
		return cached.([]*model.Service), nil
	}

	services, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if services == nil {
		services = []*model.Service{}
	}
	s.cache.SetDefault(activeServicesKey, services)
	return services, nil
}

// Get returns an active service. Inactive services are hidden from the public.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.ServiceNotFound(err)
		}
		return nil, errors.StoreUnavailable(err)
	}
	if !svc.Active {
		return nil, errors.ServiceNotFound(nil)
	}
	return svc, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*model.ServiceWithCount, error) {
	services, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if services == nil {
		services = []*model.ServiceWithCount{}
	}
	return services, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateServiceRequest) (*model.Service, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	svc := &model.Service{
		Base:        model.NewBase(s.now()),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Duration:    req.Duration,
		Price:       req.Price,
		Active:      true,
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}

	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	s.invalidate()
	s.log.Info("Service created", "service_id", svc.ID, "name", svc.Name)
	return svc, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateServiceRequest) (*model.Service, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	svc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrap(err)
	}

	if req.Name != nil {
		svc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		svc.Description = req.Description
	}
	if req.Duration != nil {
		svc.Duration = *req.Duration
	}
	if req.Price != nil {
		svc.Price = req.Price
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	svc.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, wrap(err)
	}
	s.invalidate()
	return svc, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap(err)
	}
	s.invalidate()
	s.log.Info("Service deleted", "service_id", id)
	return nil
}

func (s *Service) invalidate() {
	s.cache.Delete(activeServicesKey)
}

func wrap(err error) error {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound("service", err)
	case stderrors.Is(err, repository.ErrReferenced):
		return errors.Conflict("service has bookings, deactivate it instead", err)
	default:
		return errors.StoreUnavailable(err)
	}
}
