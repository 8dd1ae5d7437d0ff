package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(base BaseRepository) repository.BookingRepository {
	return &bookingRepository{base}
}

const serviceColumns = `id, name, description, duration, price, active, created_at, updated_at`

const bookingViewSelect = `
	SELECT b.id, b.service_id, b.patient_id, b.date, b.start_time, b.end_time,
		b.status, b.city, b.notes, b.created_at, b.updated_at,
		s.id AS "service.id", s.name AS "service.name",
		s.duration AS "service.duration", s.price AS "service.price",
		p.id AS "patient.id", p.first_name AS "patient.first_name",
		p.last_name AS "patient.last_name", p.email AS "patient.email",
		p.phone AS "patient.phone"
	FROM bookings b
	JOIN services s ON s.id = b.service_id
	JOIN patients p ON p.id = b.patient_id`

func (r *bookingRepository) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var svc model.Service
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	if err := r.db.GetContext(ctx, &svc, query, id); err != nil {
		return nil, r.observe("get_service", mapError(err))
	}
	return &svc, nil
}

func (r *bookingRepository) FindActiveBookings(ctx context.Context, serviceID uuid.UUID, date model.Date) ([]model.Interval, error) {
	query := `
		SELECT start_time, end_time
		FROM bookings
		WHERE service_id = $1 AND date = $2 AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY start_time
	`
	var intervals []model.Interval
	if err := r.db.SelectContext(ctx, &intervals, query, serviceID, date); err != nil {
		return nil, r.observe("find_active_bookings", fmt.Errorf("failed to find active bookings: %w", err))
	}
	return intervals, r.observe("find_active_bookings", nil)
}

// CommitBooking serialises commits for one service and day with a
// transaction scoped advisory lock, then checks for overlap and inserts.
// The bookings_no_overlap exclusion constraint rejects anything that slips
// past the lock.
func (r *bookingRepository) CommitBooking(ctx context.Context, commit *model.BookingCommit) error {
	b := commit.Booking
	lockKey := b.ServiceID.String() + "|" + b.Date.String()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return fmt.Errorf("failed to lock slot: %w", err)
		}

		var conflict bool
		conflictQuery := `
			SELECT EXISTS (
				SELECT 1 FROM bookings
				WHERE service_id = $1 AND date = $2
				AND status IN ('PENDING', 'CONFIRMED')
				AND start_time < $4 AND end_time > $3
			)
		`
		if err := tx.GetContext(ctx, &conflict, conflictQuery, b.ServiceID, b.Date, b.StartTime, b.EndTime); err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if conflict {
			return repository.ErrSlotConflict
		}

		if commit.Patient != nil {
			if err := insertPatient(ctx, tx, commit.Patient); err != nil {
				return err
			}
		}

		insert := `
			INSERT INTO bookings (
				id, service_id, patient_id, date, start_time, end_time,
				status, city, notes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, insert,
			b.ID, b.ServiceID, b.PatientID, b.Date, b.StartTime, b.EndTime,
			b.Status, b.City, b.Notes, b.CreatedAt, b.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		if commit.Event != nil {
			return insertOutboxEvent(ctx, tx, commit.Event)
		}
		return nil
	})
	return r.observe("commit_booking", mapError(err))
}

func (r *bookingRepository) GetView(ctx context.Context, id uuid.UUID) (*model.BookingView, error) {
	var view model.BookingView
	if err := r.db.GetContext(ctx, &view, bookingViewSelect+` WHERE b.id = $1`, id); err != nil {
		return nil, r.observe("get_booking", mapError(err))
	}
	return &view, nil
}

func (r *bookingRepository) List(ctx context.Context, filter *model.BookingFilter) ([]*model.BookingView, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Status != nil {
			args = append(args, *filter.Status)
			conds = append(conds, fmt.Sprintf("b.status = $%d", len(args)))
		}
		if filter.ServiceID != nil {
			args = append(args, *filter.ServiceID)
			conds = append(conds, fmt.Sprintf("b.service_id = $%d", len(args)))
		}
		if filter.Date != nil {
			args = append(args, *filter.Date)
			conds = append(conds, fmt.Sprintf("b.date = $%d", len(args)))
		}
	}

	query := bookingViewSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY b.created_at DESC`

	var views []*model.BookingView
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, r.observe("list_bookings", fmt.Errorf("failed to list bookings: %w", err))
	}
	return views, nil
}

func (r *bookingRepository) ListByEmail(ctx context.Context, email string) ([]*model.BookingView, error) {
	query := bookingViewSelect + `
		WHERE lower(p.email) = lower($1)
		ORDER BY b.date DESC, b.start_time DESC`

	var views []*model.BookingView
	if err := r.db.SelectContext(ctx, &views, query, email); err != nil {
		return nil, r.observe("list_bookings_by_email", fmt.Errorf("failed to list bookings by email: %w", err))
	}
	return views, nil
}

func (r *bookingRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.BookingView, error) {
	query := bookingViewSelect + `
		WHERE b.patient_id = $1
		ORDER BY b.date DESC, b.start_time DESC`

	var views []*model.BookingView
	if err := r.db.SelectContext(ctx, &views, query, patientID); err != nil {
		return nil, r.observe("list_bookings_by_patient", fmt.Errorf("failed to list patient bookings: %w", err))
	}
	return views, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus, event *model.OutboxEvent) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
			to, id, from)
		if err != nil {
			return fmt.Errorf("failed to update booking status: %w", err)
		}
		if err := requireAffected(res); err != nil {
			var exists bool
			if qerr := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id); qerr != nil {
				return qerr
			}
			if exists {
				return repository.ErrStaleStatus
			}
			return repository.ErrNotFound
		}

		if event != nil {
			return insertOutboxEvent(ctx, tx, event)
		}
		return nil
	})
	return r.observe("update_booking_status", mapError(err))
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return r.observe("delete_booking", mapDeleteError(err))
	}
	return r.observe("delete_booking", requireAffected(res))
}

func (r *bookingRepository) AddSessionNote(ctx context.Context, note *model.SessionNote) error {
	query := `
		INSERT INTO session_notes (
			id, booking_id, doctor_note, diagnosis, prescription,
			follow_up_required, follow_up_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		note.ID, note.BookingID, note.DoctorNote, note.Diagnosis, note.Prescription,
		note.FollowUpRequired, note.FollowUpDate, note.CreatedAt,
	)
	return r.observe("add_session_note", mapError(err))
}

func (r *bookingRepository) ListSessionNotes(ctx context.Context, bookingID uuid.UUID) ([]*model.SessionNote, error) {
	query := `
		SELECT id, booking_id, doctor_note, diagnosis, prescription,
			follow_up_required, follow_up_date, created_at
		FROM session_notes
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`
	var notes []*model.SessionNote
	if err := r.db.SelectContext(ctx, &notes, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list session notes: %w", err)
	}
	return notes, nil
}
