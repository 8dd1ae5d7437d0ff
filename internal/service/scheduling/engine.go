// Package scheduling enumerates bookable slots and commits bookings without
// ever letting two active bookings for one service overlap.
package scheduling

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
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

// Window is the clinic's daily operating window and slot cadence.
type Window struct {
	Open     config.Clock
	Close    config.Clock
	Step     time.Duration
	Location *time.Location
}

// DefaultWindow is 09:00–17:00 every 30 minutes in UTC.
var DefaultWindow = Window{
	Open:     config.Clock{Hour: 9},
	Close:    config.Clock{Hour: 17},
	Step:     30 * time.Minute,
	Location: time.UTC,
}

func WindowFromConfig(c config.ClinicConfig) (Window, error) {
	open, err := config.ParseClock(c.OpenTime)
	if err != nil {
		return Window{}, err
	}
	closing, err := config.ParseClock(c.CloseTime)
	if err != nil {
		return Window{}, err
	}
	loc, err := c.Location()
	if err != nil {
		return Window{}, err
	}
	if c.SlotStep <= 0 {
		return Window{}, fmt.Errorf("slot step must be positive, got %s", c.SlotStep)
	}
	return Window{Open: open, Close: closing, Step: c.SlotStep, Location: loc}, nil
}

// Starts returns every candidate slot start on date, ascending. The last slot
// may end after closing time.
func (w Window) Starts(date model.Date) []time.Time {
	start := date.At(w.Open.Hour, w.Open.Minute, w.Location)
	end := date.At(w.Close.Hour, w.Close.Minute, w.Location)

	var starts []time.Time
	for t := start; t.Before(end); t = t.Add(w.Step) {
		starts = append(starts, t)
	}
	return starts
}

type Engine struct {
	store    repository.BookingStore
	window   Window
	validate *validator.Validator
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewEngine(store repository.BookingStore, window Window, m *metrics.Metrics, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		store:    store,
		window:   window,
		validate: validator.New(),
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

func (e *Engine) Window() Window {
	return e.window
}

// AvailableSlots lists the slots of date for a service, marking those whose
// interval overlaps an active booking. Results always reflect the store.
func (e *Engine) AvailableSlots(ctx context.Context, serviceID uuid.UUID, date model.Date) ([]model.Slot, error) {
	svc, err := e.resolveService(ctx, serviceID)
	if err != nil {
		e.metrics.ObserveSlotQuery(string(errors.KindOf(err)))
		return nil, err
	}

	busy, err := e.store.FindActiveBookings(ctx, serviceID, date)
	if err != nil {
		e.metrics.ObserveSlotQuery(string(errors.KindStoreUnavailable))
		return nil, errors.StoreUnavailable(fmt.Errorf("failed to load bookings: %w", err))
	}

	length := svc.Length()
	starts := e.window.Starts(date)
	slots := make([]model.Slot, 0, len(starts))
	for _, start := range starts {
		candidate := model.Interval{Start: start, End: start.Add(length)}
		slots = append(slots, model.Slot{Time: start, IsBooked: overlapsAny(candidate, busy)})
	}

	e.metrics.ObserveSlotQuery("ok")
	return slots, nil
}

func overlapsAny(candidate model.Interval, busy []model.Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// CreateBooking books a slot for a new patient from the public form.
func (e *Engine) CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	started := e.now()

	if fields := e.validate.Struct(req); fields != nil {
		e.metrics.ObserveCommit(metrics.ResultInvalid, e.since(started))
		return nil, errors.Validation(fields)
	}

	now := e.now()
	patient := &model.Patient{
		Base:      model.NewBase(now),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		patient.Email = &email
	}

	return e.commit(ctx, started, commitInput{
		serviceID: req.ServiceID,
		patient:   patient,
		patientID: patient.ID,
		date:      req.Date,
		start:     req.StartTime,
		notes:     req.Notes,
	})
}

// CreateBookingForPatient books a slot for an existing patient from the admin
// dashboard. It goes through the same conflict check as public bookings.
func (e *Engine) CreateBookingForPatient(ctx context.Context, req *model.CreatePatientBookingRequest) (*model.Booking, error) {
	started := e.now()

	if fields := e.validate.Struct(req); fields != nil {
		e.metrics.ObserveCommit(metrics.ResultInvalid, e.since(started))
		return nil, errors.Validation(fields)
	}

	return e.commit(ctx, started, commitInput{
		serviceID: req.ServiceID,
		patientID: req.PatientID,
		date:      req.Date,
		start:     req.StartTime,
		city:      req.City,
		notes:     req.Notes,
	})
}

type commitInput struct {
	serviceID uuid.UUID
	patient   *model.Patient
	patientID uuid.UUID
	date      model.Date
	start     time.Time
	city      *string
	notes     *string
}

func (e *Engine) commit(ctx context.Context, started time.Time, in commitInput) (*model.Booking, error) {
	svc, err := e.resolveService(ctx, in.serviceID)
	if err != nil {
		e.metrics.ObserveCommit(resultOf(err), e.since(started))
		return nil, err
	}

	start := in.start.In(e.window.Location)
	localDay := model.DateOf(start)
	date := in.date
	if date.IsZero() {
		date = localDay
	}
	if date != localDay {
		e.metrics.ObserveCommit(metrics.ResultInvalid, e.since(started))
		return nil, errors.Validation(map[string]string{
			"date": fmt.Sprintf("must match the day of start_time (%s)", localDay),
		})
	}

	now := e.now()
	booking := &model.Booking{
		Base:      model.NewBase(now),
		ServiceID: svc.ID,
		PatientID: in.patientID,
		Date:      date,
		StartTime: start.UTC(),
		EndTime:   start.Add(svc.Length()).UTC(),
		Status:    model.BookingStatusPending,
		City:      in.city,
		Notes:     in.notes,
	}

	payload := model.BookingEvent{
		BookingID:   booking.ID,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		PatientID:   booking.PatientID,
		Date:        booking.Date,
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		Status:      booking.Status,
	}
	if in.patient != nil {
		payload.PatientName = strings.TrimSpace(in.patient.FirstName + " " + in.patient.LastName)
		payload.PatientPhone = in.patient.Phone
	}
	event, err := model.NewOutboxEvent(model.EventBookingCreated, payload, now)
	if err != nil {
		e.metrics.ObserveCommit(metrics.ResultError, e.since(started))
		return nil, errors.Internal(err)
	}

	err = e.store.CommitBooking(ctx, &model.BookingCommit{Booking: booking, Patient: in.patient, Event: event})
	switch {
	case err == nil:
	case stderrors.Is(err, repository.ErrSlotConflict):
		e.metrics.ObserveCommit(metrics.ResultConflict, e.since(started))
		e.log.Info("Booking rejected, slot taken", "service_id", svc.ID, "start_time", booking.StartTime)
		return nil, errors.SlotConflict(err)
	case stderrors.Is(err, repository.ErrNotFound):
		e.metrics.ObserveCommit(metrics.ResultInvalid, e.since(started))
		return nil, errors.NotFound("patient", err)
	default:
		e.metrics.ObserveCommit(metrics.ResultError, e.since(started))
		e.log.Error(err, "Failed to commit booking", "service_id", svc.ID, "start_time", booking.StartTime)
		return nil, errors.StoreUnavailable(err)
	}

	e.metrics.ObserveCommit(metrics.ResultSuccess, e.since(started))
	e.log.Info("Booking created", "booking_id", booking.ID, "service_id", svc.ID, "start_time", booking.StartTime)
	return booking, nil
}

// resolveService returns the service if it exists and is bookable.
func (e *Engine) resolveService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := e.store.GetService(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.ServiceNotFound(err)
		}
		return nil, errors.StoreUnavailable(fmt.Errorf("failed to load service: %w", err))
	}
	if !svc.Active {
		return nil, errors.ServiceNotFound(fmt.Errorf("service %s is inactive", id))
	}
	return svc, nil
}

func (e *Engine) since(t time.Time) float64 {
	return e.now().Sub(t).Seconds()
}

func resultOf(err error) string {
	switch errors.KindOf(err) {
	case errors.KindServiceNotFound, errors.KindValidation:
		return metrics.ResultInvalid
	case errors.KindSlotConflict:
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}
