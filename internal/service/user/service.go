package user

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/security"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

// Service manages staff accounts for the dashboard.
type Service struct {
	repo     repository.AdminRepository
	hasher   security.PasswordHasher
	validate *validator.Validator
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.AdminRepository, hasher security.PasswordHasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		hasher:   hasher,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]*model.Admin, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if admins == nil {
		admins = []*model.Admin{}
	}
	return admins, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrap(err)
	}
	return a, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateAdminRequest) (*model.Admin, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.BadRequest("invalid password", err)
	}

	now := s.now()
	a := &model.Admin{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, wrap(err)
	}

	s.log.Info("Admin account created", "admin_id", a.ID, "role", a.Role)
	return a, nil
}

// Update applies the provided fields. An account cannot demote or
// deactivate itself.
func (s *Service) Update(ctx context.Context, actorID, id uuid.UUID, req *model.UpdateAdminRequest) (*model.Admin, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrap(err)
	}

	if actorID == id {
		if req.Active != nil && !*req.Active {
			return nil, errors.Forbidden("cannot deactivate your own account")
		}
		if req.Role != nil && *req.Role != a.Role {
			return nil, errors.Forbidden("cannot change your own role")
		}
	}

	if req.Name != nil {
		a.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		a.Role = *req.Role
	}
	if req.Active != nil {
		a.Active = *req.Active
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, errors.BadRequest("invalid password", err)
		}
		a.PasswordHash = hash
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, wrap(err)
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return errors.Forbidden("cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap(err)
	}
	s.log.Info("Admin account deleted", "admin_id", id, "actor_id", actorID)
	return nil
}

func wrap(err error) error {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound("admin", err)
	case stderrors.Is(err, repository.ErrDuplicate):
		return errors.Conflict("email already in use", err)
	default:
		return errors.StoreUnavailable(err)
	}
}
