package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

func booking(serviceID uuid.UUID, start time.Time, status model.BookingStatus) *model.Booking {
	return &model.Booking{
		Base:      model.NewBase(start),
		ServiceID: serviceID,
		PatientID: uuid.New(),
		Date:      model.DateOf(start),
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Status:    status,
	}
}

func TestStoreFindActiveBookings(t *testing.T) {
	s := NewStore()
	svc := uuid.New()
	day := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	s.AddBooking(booking(svc, day, model.BookingStatusConfirmed))
	s.AddBooking(booking(svc, day.Add(time.Hour), model.BookingStatusCancelled))
	s.AddBooking(booking(svc, day.AddDate(0, 0, 1), model.BookingStatusPending))
	s.AddBooking(booking(uuid.New(), day, model.BookingStatusPending))

	got, err := s.FindActiveBookings(context.Background(), svc, model.DateOf(day))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(day))
}

func TestStoreCommitBooking(t *testing.T) {
	s := NewStore()
	svc := uuid.New()
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first := booking(svc, start, model.BookingStatusPending)
	patient := &model.Patient{Base: model.NewBase(start), FirstName: "Ann"}
	first.PatientID = patient.ID
	require.NoError(t, s.CommitBooking(ctx, &model.BookingCommit{Booking: first, Patient: patient}))

	second := booking(svc, start.Add(15*time.Minute), model.BookingStatusPending)
	second.PatientID = patient.ID
	err := s.CommitBooking(ctx, &model.BookingCommit{Booking: second})
	assert.ErrorIs(t, err, repository.ErrSlotConflict)

	unknown := booking(svc, start.Add(2*time.Hour), model.BookingStatusPending)
	err = s.CommitBooking(ctx, &model.BookingCommit{Booking: unknown})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Len(t, s.Bookings(), 1)
	assert.Equal(t, 1, s.Patients())
}
