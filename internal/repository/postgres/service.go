package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type serviceRepository struct {
	BaseRepository
}

func NewServiceRepository(base BaseRepository) repository.ServiceRepository {
	return &serviceRepository{base}
}

func (r *serviceRepository) Create(ctx context.Context, svc *model.Service) error {
	query := `
		INSERT INTO services (id, name, description, duration, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		svc.ID, svc.Name, svc.Description, svc.Duration, svc.Price, svc.Active, svc.CreatedAt, svc.UpdatedAt)
	return r.observe("create_service", mapError(err))
}

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var svc model.Service
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	if err := r.db.GetContext(ctx, &svc, query, id); err != nil {
		return nil, mapError(err)
	}
	return &svc, nil
}

func (r *serviceRepository) Update(ctx context.Context, svc *model.Service) error {
	query := `
		UPDATE services
		SET name = $1, description = $2, duration = $3, price = $4, active = $5, updated_at = $6
		WHERE id = $7
	`
	res, err := r.db.ExecContext(ctx, query,
		svc.Name, svc.Description, svc.Duration, svc.Price, svc.Active, svc.UpdatedAt, svc.ID)
	if err != nil {
		return r.observe("update_service", mapError(err))
	}
	return r.observe("update_service", requireAffected(res))
}

func (r *serviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return r.observe("delete_service", mapDeleteError(err))
	}
	return r.observe("delete_service", requireAffected(res))
}

func (r *serviceRepository) ListActive(ctx context.Context) ([]*model.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE active = true ORDER BY name`
	var services []*model.Service
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("failed to list active services: %w", err)
	}
	return services, nil
}

func (r *serviceRepository) ListWithCounts(ctx context.Context) ([]*model.ServiceWithCount, error) {
	query := `
		SELECT s.id, s.name, s.description, s.duration, s.price, s.active,
			s.created_at, s.updated_at, COUNT(b.id) AS booking_count
		FROM services s
		LEFT JOIN bookings b ON b.service_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`
	var services []*model.ServiceWithCount
	if err := r.db.SelectContext(ctx, &services, query); err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}
