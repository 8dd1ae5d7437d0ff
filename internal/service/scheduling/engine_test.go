package scheduling

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository/memory"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

var day = model.Date{Year: 2024, Month: time.June, Day: 1}

func clock(h, m int) time.Time {
	return day.At(h, m, time.UTC)
}

type fixture struct {
	store   *memory.Store
	engine  *Engine
	metrics *metrics.Metrics
	service *model.Service
}

func newFixture(t *testing.T, duration int) *fixture {
	t.Helper()
	store := memory.NewStore()
	svc := &model.Service{
		Base:     model.NewBase(clock(8, 0)),
		Name:     "Consultation",
		Duration: duration,
		Active:   true,
	}
	store.AddService(svc)
	m := metrics.New("test", prometheus.NewRegistry())
	return &fixture{
		store:   store,
		engine:  NewEngine(store, DefaultWindow, m, nil),
		metrics: m,
		service: svc,
	}
}

func (f *fixture) existing(start time.Time, status model.BookingStatus) {
	f.store.AddBooking(&model.Booking{
		Base:      model.NewBase(start),
		ServiceID: f.service.ID,
		PatientID: uuid.New(),
		Date:      model.DateOf(start),
		StartTime: start,
		EndTime:   start.Add(f.service.Length()),
		Status:    status,
	})
}

func request(serviceID uuid.UUID, start time.Time) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		ServiceID: serviceID,
		ContactFields: model.ContactFields{
			FirstName: "Dana",
			LastName:  "Levi",
			Email:     "dana@example.com",
			Phone:     "0501234567",
		},
		Date:      model.DateOf(start),
		StartTime: start,
	}
}

func slotAt(t *testing.T, slots []model.Slot, at time.Time) model.Slot {
	t.Helper()
	for _, s := range slots {
		if s.Time.Equal(at) {
			return s
		}
	}
	t.Fatalf("no slot at %s", at)
	return model.Slot{}
}

func TestAvailableSlots_EmptyDay(t *testing.T) {
	f := newFixture(t, 30)

	slots, err := f.engine.AvailableSlots(context.Background(), f.service.ID, day)
	require.NoError(t, err)

	require.Len(t, slots, 16)
	assert.True(t, slots[0].Time.Equal(clock(9, 0)))
	assert.True(t, slots[15].Time.Equal(clock(16, 30)))
	for i, s := range slots {
		assert.False(t, s.IsBooked)
		if i > 0 {
			assert.Equal(t, 30*time.Minute, s.Time.Sub(slots[i-1].Time))
		}
	}
}

func TestAvailableSlots_MarksOnlyOverlappingSlot(t *testing.T) {
	f := newFixture(t, 30)
	f.existing(clock(10, 0), model.BookingStatusConfirmed)

	slots, err := f.engine.AvailableSlots(context.Background(), f.service.ID, day)
	require.NoError(t, err)

	assert.True(t, slotAt(t, slots, clock(10, 0)).IsBooked)
	assert.False(t, slotAt(t, slots, clock(9, 30)).IsBooked)
	assert.False(t, slotAt(t, slots, clock(10, 30)).IsBooked)
}

func TestAvailableSlots_IgnoresInactiveBookings(t *testing.T) {
	f := newFixture(t, 30)
	f.existing(clock(11, 0), model.BookingStatusCancelled)
	f.existing(clock(12, 0), model.BookingStatusCompleted)
	f.existing(clock(13, 0), model.BookingStatusPending)

	slots, err := f.engine.AvailableSlots(context.Background(), f.service.ID, day)
	require.NoError(t, err)

	assert.False(t, slotAt(t, slots, clock(11, 0)).IsBooked)
	assert.False(t, slotAt(t, slots, clock(12, 0)).IsBooked)
	assert.True(t, slotAt(t, slots, clock(13, 0)).IsBooked)
}

func TestAvailableSlots_LongServiceKeepsCadenceAndTrailingSlot(t *testing.T) {
	f := newFixture(t, 60)
	f.existing(clock(10, 0), model.BookingStatusConfirmed)

	slots, err := f.engine.AvailableSlots(context.Background(), f.service.ID, day)
	require.NoError(t, err)

	require.Len(t, slots, 16)
	assert.True(t, slotAt(t, slots, clock(9, 30)).IsBooked, "09:30-10:30 overlaps 10:00-11:00")
	assert.True(t, slotAt(t, slots, clock(10, 30)).IsBooked)
	assert.False(t, slotAt(t, slots, clock(9, 0)).IsBooked, "09:00-10:00 ends where the booking starts")
	assert.False(t, slotAt(t, slots, clock(11, 0)).IsBooked)

	last := slots[len(slots)-1]
	assert.True(t, last.Time.Equal(clock(16, 30)))
}

func TestAvailableSlots_UnknownOrInactiveService(t *testing.T) {
	f := newFixture(t, 30)
	inactive := &model.Service{Base: model.NewBase(clock(8, 0)), Name: "Retired", Duration: 30}
	f.store.AddService(inactive)

	_, err := f.engine.AvailableSlots(context.Background(), uuid.New(), day)
	assert.Equal(t, errors.KindServiceNotFound, errors.KindOf(err))

	_, err = f.engine.AvailableSlots(context.Background(), inactive.ID, day)
	assert.Equal(t, errors.KindServiceNotFound, errors.KindOf(err))
}

func TestAvailableSlots_IdempotentRead(t *testing.T) {
	f := newFixture(t, 45)
	f.existing(clock(14, 0), model.BookingStatusPending)

	first, err := f.engine.AvailableSlots(context.Background(), f.service.ID, day)
	require.NoError(t, err)
	second, err := f.engine.AvailableSlots(context.Background(), f.service.ID, day)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAvailableSlots_ClinicTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	f := newFixture(t, 30)
	w := DefaultWindow
	w.Location = loc
	f.engine = NewEngine(f.store, w, f.metrics, nil)

	slots, err := f.engine.AvailableSlots(context.Background(), f.service.ID, day)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	first := slots[0].Time.In(loc)
	assert.Equal(t, 9, first.Hour())
	assert.Equal(t, 1, first.Day())
}

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t, 30)

	b, err := f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(9, 0)))
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.True(t, b.EndTime.Equal(clock(9, 30)))
	assert.Equal(t, day, b.Date)
	assert.Equal(t, 1, f.store.Patients())

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventBookingCreated, events[0].EventType)
	assert.Contains(t, string(events[0].Payload), b.ID.String())

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.BookingCommits.WithLabelValues(metrics.ResultSuccess)))
}

func TestCreateBooking_ConflictWithConfirmed(t *testing.T) {
	f := newFixture(t, 30)
	f.existing(clock(10, 0), model.BookingStatusConfirmed)

	_, err := f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(10, 0)))
	require.Error(t, err)
	assert.Equal(t, errors.KindSlotConflict, errors.KindOf(err))
	assert.ErrorIs(t, err, errors.SlotConflict(nil))
	assert.Len(t, f.store.Bookings(), 1)
	assert.Equal(t, 0, f.store.Patients())
}

func TestCreateBooking_BoundaryDoesNotConflict(t *testing.T) {
	f := newFixture(t, 30)
	f.existing(clock(10, 0), model.BookingStatusConfirmed)

	_, err := f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(10, 30)))
	require.NoError(t, err)

	_, err = f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(9, 30)))
	require.NoError(t, err)
}

func TestCreateBooking_CancelledDoesNotBlock(t *testing.T) {
	f := newFixture(t, 30)
	f.existing(clock(11, 0), model.BookingStatusCancelled)

	_, err := f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(11, 0)))
	require.NoError(t, err)
}

func TestCreateBooking_PartialOverlapConflicts(t *testing.T) {
	f := newFixture(t, 30)
	f.existing(clock(10, 0), model.BookingStatusPending)

	_, err := f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(10, 15)))
	assert.Equal(t, errors.KindSlotConflict, errors.KindOf(err))

	_, err = f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(9, 45)))
	assert.Equal(t, errors.KindSlotConflict, errors.KindOf(err))
}

func TestCreateBooking_SlotsReflectCommit(t *testing.T) {
	f := newFixture(t, 60)

	_, err := f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(13, 0)))
	require.NoError(t, err)

	slots, err := f.engine.AvailableSlots(context.Background(), f.service.ID, day)
	require.NoError(t, err)

	booked := model.Interval{Start: clock(13, 0), End: clock(14, 0)}
	for _, s := range slots {
		candidate := model.Interval{Start: s.Time, End: s.Time.Add(time.Hour)}
		assert.Equal(t, candidate.Overlaps(booked), s.IsBooked, "slot %s", s.Time.Format("15:04"))
	}
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t, 30)

	tests := []struct {
		name   string
		mutate func(r *model.CreateBookingRequest)
		field  string
	}{
		{"missing first name", func(r *model.CreateBookingRequest) { r.FirstName = "" }, "first_name"},
		{"missing last name", func(r *model.CreateBookingRequest) { r.LastName = "" }, "last_name"},
		{"short phone", func(r *model.CreateBookingRequest) { r.Phone = "12345" }, "phone"},
		{"bad email", func(r *model.CreateBookingRequest) { r.Email = "not-an-email" }, "email"},
		{"missing start", func(r *model.CreateBookingRequest) { r.StartTime = time.Time{} }, "start_time"},
		{"wrong date", func(r *model.CreateBookingRequest) { r.Date = day.AddDays(1) }, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(f.service.ID, clock(9, 0))
			tt.mutate(req)

			_, err := f.engine.CreateBooking(context.Background(), req)
			require.Error(t, err)

			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.KindValidation, appErr.Kind)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
	assert.Empty(t, f.store.Bookings())
}

func TestCreateBooking_EmailIsOptional(t *testing.T) {
	f := newFixture(t, 30)
	req := request(f.service.ID, clock(9, 0))
	req.Email = ""

	_, err := f.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)
}

func TestCreateBooking_ServiceNotFound(t *testing.T) {
	f := newFixture(t, 30)

	_, err := f.engine.CreateBooking(context.Background(), request(uuid.New(), clock(9, 0)))
	assert.Equal(t, errors.KindServiceNotFound, errors.KindOf(err))
}

func TestCreateBookingForPatient(t *testing.T) {
	f := newFixture(t, 30)
	patient := &model.Patient{Base: model.NewBase(clock(8, 0)), FirstName: "Omer", Phone: "0501111111"}
	f.store.AddPatient(patient)
	f.existing(clock(15, 0), model.BookingStatusConfirmed)

	city := "Haifa"
	req := &model.CreatePatientBookingRequest{
		PatientID: patient.ID,
		ServiceID: f.service.ID,
		City:      &city,
		StartTime: clock(15, 30),
	}
	b, err := f.engine.CreateBookingForPatient(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, b.PatientID)
	assert.Equal(t, day, b.Date, "date defaults to the day of the start time")

	req.StartTime = clock(15, 15)
	_, err = f.engine.CreateBookingForPatient(context.Background(), req)
	assert.Equal(t, errors.KindSlotConflict, errors.KindOf(err))

	req.PatientID = uuid.New()
	req.StartTime = clock(9, 0)
	_, err = f.engine.CreateBookingForPatient(context.Background(), req)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t, 30)

	const attempts = 2
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		successes int
		conflicts int
		mu        sync.Mutex
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(14, 0)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.KindOf(err) == errors.KindSlotConflict:
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCreateBooking_NoDoubleBookingUnderLoad(t *testing.T) {
	f := newFixture(t, 45)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			offset := time.Duration(i%16) * 15 * time.Minute
			_, _ = f.engine.CreateBooking(context.Background(), request(f.service.ID, clock(9, 0).Add(offset)))
		}(i)
	}
	wg.Wait()

	bookings := f.store.Bookings()
	require.NotEmpty(t, bookings)
	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			assert.False(t, bookings[i].Interval().Overlaps(bookings[j].Interval()),
				fmt.Sprintf("%s overlaps %s", bookings[i].StartTime.Format("15:04"), bookings[j].StartTime.Format("15:04")))
		}
	}
}

func TestWindowFromConfig(t *testing.T) {
	w, err := WindowFromConfig(config.ClinicConfig{
		Timezone:  "UTC",
		OpenTime:  "08:00",
		CloseTime: "10:00",
		SlotStep:  20 * time.Minute,
	})
	require.NoError(t, err)

	starts := w.Starts(day)
	require.Len(t, starts, 6)
	assert.True(t, starts[5].Equal(clock(9, 40)))

	_, err = WindowFromConfig(config.ClinicConfig{Timezone: "UTC", OpenTime: "08:00", CloseTime: "10:00"})
	assert.Error(t, err)
}
