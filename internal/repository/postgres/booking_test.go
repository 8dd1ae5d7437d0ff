package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

func newMockBase(t *testing.T) (BaseRepository, sqlmock.Sqlmock, *metrics.Metrics) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := metrics.New("test", prometheus.NewRegistry())
	return NewBaseRepository(sqlx.NewDb(db, "sqlmock"), m), mock, m
}

func testCommit() *model.BookingCommit {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(-24 * time.Hour)
	patient := &model.Patient{Base: model.NewBase(now), FirstName: "Dana", LastName: "Levi", Phone: "0501234567"}
	booking := &model.Booking{
		Base:      model.NewBase(now),
		ServiceID: uuid.New(),
		PatientID: patient.ID,
		Date:      model.DateOf(start),
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Status:    model.BookingStatusPending,
	}
	event, _ := model.NewOutboxEvent(model.EventBookingCreated, map[string]string{"booking_id": booking.ID.String()}, now)
	return &model.BookingCommit{Booking: booking, Patient: patient, Event: event}
}

func expectLockAndCheck(mock sqlmock.Sqlmock, c *model.BookingCommit, conflict bool) {
	b := c.Booking
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs(b.ServiceID.String() + "|" + b.Date.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(b.ServiceID, b.Date, b.StartTime, b.EndTime).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(conflict))
}

func TestBookingRepository_CommitBooking(t *testing.T) {
	base, mock, m := newMockBase(t)
	repo := NewBookingRepository(base)
	c := testCommit()

	expectLockAndCheck(mock, c, false)
	mock.ExpectExec(`INSERT INTO patients`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(c.Booking.ID, c.Booking.ServiceID, c.Booking.PatientID, c.Booking.Date,
			c.Booking.StartTime, c.Booking.EndTime, c.Booking.Status, nil, nil,
			c.Booking.CreatedAt, c.Booking.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs(c.Event.ID, model.EventBookingCreated, sqlmock.AnyArg(), model.OutboxStatusPending, 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CommitBooking(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DatabaseOperations.WithLabelValues("commit_booking", "success")))
}

func TestBookingRepository_CommitBookingConflict(t *testing.T) {
	base, mock, _ := newMockBase(t)
	repo := NewBookingRepository(base)
	c := testCommit()

	expectLockAndCheck(mock, c, true)
	mock.ExpectRollback()

	err := repo.CommitBooking(context.Background(), c)
	assert.ErrorIs(t, err, repository.ErrSlotConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_CommitBookingExclusionViolation(t *testing.T) {
	base, mock, _ := newMockBase(t)
	repo := NewBookingRepository(base)
	c := testCommit()
	c.Patient = nil

	expectLockAndCheck(mock, c, false)
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(&pq.Error{Code: "23P01", Message: "conflicting key value violates exclusion constraint \"bookings_no_overlap\""})
	mock.ExpectRollback()

	err := repo.CommitBooking(context.Background(), c)
	assert.ErrorIs(t, err, repository.ErrSlotConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_CommitBookingUnknownPatient(t *testing.T) {
	base, mock, _ := newMockBase(t)
	repo := NewBookingRepository(base)
	c := testCommit()
	c.Patient = nil

	expectLockAndCheck(mock, c, false)
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	err := repo.CommitBooking(context.Background(), c)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepository_FindActiveBookings(t *testing.T) {
	base, mock, _ := newMockBase(t)
	repo := NewBookingRepository(base)
	serviceID := uuid.New()
	date := model.Date{Year: 2024, Month: time.June, Day: 1}
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`status IN ('PENDING', 'CONFIRMED')`)).
		WithArgs(serviceID, date).
		WillReturnRows(sqlmock.NewRows([]string{"start_time", "end_time"}).
			AddRow(start, start.Add(30*time.Minute)))

	intervals, err := repo.FindActiveBookings(context.Background(), serviceID, date)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.True(t, intervals[0].End.Equal(start.Add(30*time.Minute)))
}

func TestBookingRepository_GetView(t *testing.T) {
	base, mock, _ := newMockBase(t)
	repo := NewBookingRepository(base)

	id, serviceID, patientID := uuid.New(), uuid.New(), uuid.New()
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "service_id", "patient_id", "date", "start_time", "end_time",
		"status", "city", "notes", "created_at", "updated_at",
		"service.id", "service.name", "service.duration", "service.price",
		"patient.id", "patient.first_name", "patient.last_name", "patient.email", "patient.phone",
	}).AddRow(
		id.String(), serviceID.String(), patientID.String(), start, start, start.Add(30*time.Minute),
		"CONFIRMED", nil, "first visit", start, start,
		serviceID.String(), "Massage", 30, 120.5,
		patientID.String(), "Dana", "Levi", nil, "0501234567",
	)
	mock.ExpectQuery(`FROM bookings b`).WithArgs(id).WillReturnRows(rows)

	view, err := repo.GetView(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, view.Status)
	assert.Equal(t, "2024-06-01", view.Date.String())
	assert.Equal(t, "Massage", view.Service.Name)
	require.NotNil(t, view.Service.Price)
	assert.Equal(t, 120.5, *view.Service.Price)
	assert.Equal(t, "Dana", view.Patient.FirstName)
	assert.Nil(t, view.Patient.Email)
	require.NotNil(t, view.Notes)
	assert.Equal(t, "first visit", *view.Notes)
}

func TestBookingRepository_GetViewNotFound(t *testing.T) {
	base, mock, _ := newMockBase(t)
	repo := NewBookingRepository(base)

	mock.ExpectQuery(`FROM bookings b`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetView(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingRepository_ListFilters(t *testing.T) {
	base, mock, _ := newMockBase(t)
	repo := NewBookingRepository(base)

	status := model.BookingStatusPending
	serviceID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE b.status = $1 AND b.service_id = $2 ORDER BY b.created_at DESC`)).
		WithArgs(status, serviceID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	views, err := repo.List(context.Background(), &model.BookingFilter{Status: &status, ServiceID: &serviceID})
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	id := uuid.New()
	event, err := model.NewOutboxEvent(model.EventBookingStatusChanged, map[string]string{"booking_id": id.String()}, time.Now())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		base, mock, _ := newMockBase(t)
		repo := NewBookingRepository(base)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET status`).
			WithArgs(model.BookingStatusConfirmed, id, model.BookingStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO outbox_events`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.UpdateStatus(context.Background(), id, model.BookingStatusPending, model.BookingStatusConfirmed, event)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale", func(t *testing.T) {
		base, mock, _ := newMockBase(t)
		repo := NewBookingRepository(base)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		err := repo.UpdateStatus(context.Background(), id, model.BookingStatusPending, model.BookingStatusConfirmed, event)
		assert.ErrorIs(t, err, repository.ErrStaleStatus)
	})

	t.Run("missing", func(t *testing.T) {
		base, mock, _ := newMockBase(t)
		repo := NewBookingRepository(base)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE bookings SET status`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		err := repo.UpdateStatus(context.Background(), id, model.BookingStatusPending, model.BookingStatusConfirmed, event)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestBookingRepository_Delete(t *testing.T) {
	base, mock, _ := newMockBase(t)
	repo := NewBookingRepository(base)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM bookings`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), id), repository.ErrNotFound)

	mock.ExpectExec(`DELETE FROM bookings`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Delete(context.Background(), id))
}
