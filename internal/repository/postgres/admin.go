package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type adminRepository struct {
	BaseRepository
}

func NewAdminRepository(base BaseRepository) repository.AdminRepository {
	return &adminRepository{base}
}

const adminColumns = `id, email, name, password, role, active, created_at, updated_at`

func (r *adminRepository) Create(ctx context.Context, a *model.Admin) error {
	query := `INSERT INTO admins (` + adminColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.Name, a.PasswordHash, a.Role, a.Active, a.CreatedAt, a.UpdatedAt)
	return r.observe("create_admin", mapError(err))
}

func (r *adminRepository) Get(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	var a model.Admin
	if err := r.db.GetContext(ctx, &a, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	query := `SELECT ` + adminColumns + ` FROM admins WHERE lower(email) = lower($1)`
	if err := r.db.GetContext(ctx, &a, query, email); err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

func (r *adminRepository) Update(ctx context.Context, a *model.Admin) error {
	query := `
		UPDATE admins
		SET name = $1, password = $2, role = $3, active = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := r.db.ExecContext(ctx, query, a.Name, a.PasswordHash, a.Role, a.Active, a.UpdatedAt, a.ID)
	if err != nil {
		return r.observe("update_admin", mapError(err))
	}
	return r.observe("update_admin", requireAffected(res))
}

func (r *adminRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return r.observe("delete_admin", mapDeleteError(err))
	}
	return r.observe("delete_admin", requireAffected(res))
}

func (r *adminRepository) List(ctx context.Context) ([]*model.Admin, error) {
	var admins []*model.Admin
	if err := r.db.SelectContext(ctx, &admins, `SELECT `+adminColumns+` FROM admins ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

func (r *adminRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admins`); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}
