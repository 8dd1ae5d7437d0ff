package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/auth"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/security"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

var ErrInvalidCredentials = stderrors.New("invalid credentials")

type Service struct {
	admins   repository.AdminRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	validate *validator.Validator
	log      *logger.Logger
	now      func() time.Time
}

func NewService(admins repository.AdminRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		admins:   admins,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// Login checks credentials and issues an access token. Unknown emails, wrong
// passwords and deactivated accounts all fail the same way.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	admin, err := s.admins.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, errors.StoreUnavailable(err)
	}
	if !admin.Active {
		return nil, errors.Unauthorized(ErrInvalidCredentials)
	}
	if err := s.hasher.Compare(admin.PasswordHash, req.Password); err != nil {
		s.log.Warn("Failed login attempt", "admin_id", admin.ID)
		return nil, errors.Unauthorized(ErrInvalidCredentials)
	}

	token, expiresAt, err := s.jwtSvc.GenerateAccessToken(admin.ID, admin.Email, string(admin.Role))
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	s.log.Info("Admin logged in", "admin_id", admin.ID)
	return &model.LoginResponse{AccessToken: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// CurrentAdmin loads the account behind a validated token.
func (s *Service) CurrentAdmin(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	admin, err := s.admins.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized(err)
		}
		return nil, errors.StoreUnavailable(err)
	}
	if !admin.Active {
		return nil, errors.Unauthorized(fmt.Errorf("account %s is deactivated", id))
	}
	return admin, nil
}

// SeedAdmin creates the first ADMIN account when none exist. It does nothing
// when accounts are present or no seed credentials are configured.
func (s *Service) SeedAdmin(ctx context.Context, seed config.AdminSeedConfig) error {
	if seed.Email == "" || seed.Password == "" {
		return nil
	}

	n, err := s.admins.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if len(seed.Password) < security.MinPasswordLen {
		return security.ErrPasswordTooShort
	}
	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return err
	}

	now := s.now()
	admin := &model.Admin{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(seed.Email)),
		Name:         seed.Name,
		PasswordHash: hash,
		Role:         model.AdminRoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	s.log.Info("Seeded initial admin account", "email", admin.Email)
	return nil
}
