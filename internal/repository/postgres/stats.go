package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type statsRepository struct {
	BaseRepository
}

func NewStatsRepository(base BaseRepository) repository.StatsRepository {
	return &statsRepository{base}
}

func (r *statsRepository) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM bookings) AS total_bookings,
			(SELECT COUNT(*) FROM bookings WHERE status = 'PENDING') AS pending_bookings,
			(SELECT COUNT(*) FROM bookings WHERE status = 'CONFIRMED') AS confirmed_bookings,
			(SELECT COUNT(*) FROM services WHERE active = true) AS total_services
	`
	var stats model.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return &stats, nil
}

func (r *statsRepository) BookingCreationTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	var times []time.Time
	query := `SELECT created_at FROM bookings WHERE created_at >= $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &times, query, since); err != nil {
		return nil, fmt.Errorf("failed to load booking creation times: %w", err)
	}
	return times, nil
}

func (r *statsRepository) ServiceUsage(ctx context.Context) ([]*model.ServiceUsage, error) {
	query := `
		SELECT s.name, COUNT(b.id) AS bookings, s.price
		FROM services s
		LEFT JOIN bookings b ON b.service_id = s.id
		GROUP BY s.id, s.name, s.price
		ORDER BY bookings DESC, s.name
	`
	var usage []*model.ServiceUsage
	if err := r.db.SelectContext(ctx, &usage, query); err != nil {
		return nil, fmt.Errorf("failed to load service usage: %w", err)
	}
	return usage, nil
}

func (r *statsRepository) StatusDistribution(ctx context.Context) ([]*model.StatusCount, error) {
	query := `SELECT status, COUNT(*) AS value FROM bookings GROUP BY status ORDER BY status`
	var counts []*model.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to load status distribution: %w", err)
	}
	return counts, nil
}

func (r *statsRepository) StartTimes(ctx context.Context) ([]time.Time, error) {
	var times []time.Time
	if err := r.db.SelectContext(ctx, &times, `SELECT start_time FROM bookings`); err != nil {
		return nil, fmt.Errorf("failed to load booking start times: %w", err)
	}
	return times, nil
}
