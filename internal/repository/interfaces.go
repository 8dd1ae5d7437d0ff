package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

// All repository interfaces in one file
type (
	// BookingStore is the persistence boundary of the slot engine. CommitBooking
	// must run the conflict check and the inserts as one atomic step.
	BookingStore interface {
		GetService(ctx context.Context, id uuid.UUID) (*model.Service, error)
		FindActiveBookings(ctx context.Context, serviceID uuid.UUID, date model.Date) ([]model.Interval, error)
		CommitBooking(ctx context.Context, commit *model.BookingCommit) error
	}

	BookingRepository interface {
		BookingStore
		GetView(ctx context.Context, id uuid.UUID) (*model.BookingView, error)
		List(ctx context.Context, filter *model.BookingFilter) ([]*model.BookingView, error)
		ListByEmail(ctx context.Context, email string) ([]*model.BookingView, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.BookingView, error)
		// UpdateStatus moves a booking from one status to another and records
		// event in the same transaction. It returns ErrStaleStatus when the
		// booking is no longer in status from.
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.BookingStatus, event *model.OutboxEvent) error
		Delete(ctx context.Context, id uuid.UUID) error
		AddSessionNote(ctx context.Context, note *model.SessionNote) error
		ListSessionNotes(ctx context.Context, bookingID uuid.UUID) ([]*model.SessionNote, error)
	}

	ServiceRepository interface {
		Create(ctx context.Context, service *model.Service) error
		Get(ctx context.Context, id uuid.UUID) (*model.Service, error)
		Update(ctx context.Context, service *model.Service) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListActive(ctx context.Context) ([]*model.Service, error)
		ListWithCounts(ctx context.Context) ([]*model.ServiceWithCount, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		UpdateMedical(ctx context.Context, patient *model.Patient) error
		ListWithCounts(ctx context.Context) ([]*model.PatientWithCount, error)
		Search(ctx context.Context, query string, limit int) ([]*model.Patient, error)
	}

	AdminRepository interface {
		Create(ctx context.Context, admin *model.Admin) error
		Get(ctx context.Context, id uuid.UUID) (*model.Admin, error)
		GetByEmail(ctx context.Context, email string) (*model.Admin, error)
		Update(ctx context.Context, admin *model.Admin) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Admin, error)
		Count(ctx context.Context) (int, error)
	}

	StatsRepository interface {
		Dashboard(ctx context.Context) (*model.DashboardStats, error)
		BookingCreationTimes(ctx context.Context, since time.Time) ([]time.Time, error)
		ServiceUsage(ctx context.Context) ([]*model.ServiceUsage, error)
		StatusDistribution(ctx context.Context) ([]*model.StatusCount, error)
		StartTimes(ctx context.Context) ([]time.Time, error)
	}

	OutboxRepository interface {
		// ClaimPending moves up to limit pending events to processing and
		// returns them. Concurrent callers never claim the same event.
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		// MarkFailed records err and returns the event to pending until
		// maxRetries is reached, after which it is parked as failed.
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
