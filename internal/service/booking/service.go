package booking

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

// Service manages existing bookings. New bookings go through scheduling.Engine.
type Service struct {
	repo     repository.BookingRepository
	validate *validator.Validator
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo repository.BookingRepository, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*model.BookingView, error) {
	view, err := s.repo.GetView(ctx, id)
	if err != nil {
		return nil, wrap("booking", err)
	}
	return view, nil
}

func (s *Service) ListByEmail(ctx context.Context, email string) ([]*model.BookingView, error) {
	email = strings.TrimSpace(email)
	if fields := s.validate.Struct(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); fields != nil {
		return nil, errors.Validation(fields)
	}

	views, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	return nonNil(views), nil
}

func (s *Service) List(ctx context.Context, filter *model.BookingFilter) ([]*model.BookingView, error) {
	if filter != nil && filter.Status != nil && !filter.Status.Valid() {
		return nil, errors.Validation(map[string]string{"status": "must be one of [PENDING CONFIRMED COMPLETED CANCELLED]"})
	}
	views, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	return nonNil(views), nil
}

// GetDetails returns a booking with its session notes and the patient's
// other bookings.
func (s *Service) GetDetails(ctx context.Context, id uuid.UUID) (*model.BookingDetails, error) {
	view, err := s.repo.GetView(ctx, id)
	if err != nil {
		return nil, wrap("booking", err)
	}

	notes, err := s.repo.ListSessionNotes(ctx, id)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}

	all, err := s.repo.ListByPatient(ctx, view.PatientID)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	history := make([]*model.BookingView, 0, len(all))
	for _, b := range all {
		if b.ID != id {
			history = append(history, b)
		}
	}

	if notes == nil {
		notes = []*model.SessionNote{}
	}
	return &model.BookingDetails{BookingView: *view, SessionNotes: notes, PatientHistory: history}, nil
}

// UpdateStatus applies a status transition. Only pending → confirmed →
// completed and pending|confirmed → cancelled are allowed.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *model.UpdateBookingStatusRequest) (*model.BookingView, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	current, err := s.repo.GetView(ctx, id)
	if err != nil {
		return nil, wrap("booking", err)
	}
	if !current.Status.CanTransitionTo(req.Status) {
		return nil, errors.InvalidTransition(string(current.Status), string(req.Status))
	}

	event, err := model.NewOutboxEvent(model.EventBookingStatusChanged, model.BookingEvent{
		BookingID:      current.ID,
		ServiceID:      current.ServiceID,
		ServiceName:    current.Service.Name,
		PatientID:      current.PatientID,
		PatientName:    strings.TrimSpace(current.Patient.FirstName + " " + current.Patient.LastName),
		PatientPhone:   current.Patient.Phone,
		Date:           current.Date,
		StartTime:      current.StartTime,
		EndTime:        current.EndTime,
		Status:         req.Status,
		PreviousStatus: current.Status,
	}, s.now())
	if err != nil {
		return nil, errors.Internal(err)
	}

	if err := s.repo.UpdateStatus(ctx, id, current.Status, req.Status, event); err != nil {
		if stderrors.Is(err, repository.ErrStaleStatus) {
			return nil, errors.Conflict("booking was changed by someone else, reload and try again", err)
		}
		return nil, wrap("booking", err)
	}

	s.log.Info("Booking status updated", "booking_id", id, "from", current.Status, "to", req.Status)

	current.Status = req.Status
	current.UpdatedAt = s.now()
	return current, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return wrap("booking", err)
	}
	s.log.Info("Booking deleted", "booking_id", id)
	return nil
}

func (s *Service) AddSessionNote(ctx context.Context, bookingID uuid.UUID, req *model.CreateSessionNoteRequest) (*model.SessionNote, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	note := &model.SessionNote{
		ID:               uuid.New(),
		BookingID:        bookingID,
		DoctorNote:       strings.TrimSpace(req.DoctorNote),
		Diagnosis:        req.Diagnosis,
		Prescription:     req.Prescription,
		FollowUpRequired: req.FollowUpRequired,
		FollowUpDate:     req.FollowUpDate,
		CreatedAt:        s.now(),
	}
	if err := s.repo.AddSessionNote(ctx, note); err != nil {
		return nil, wrap("booking", err)
	}
	return note, nil
}

// wrap converts repository errors to application errors.
func wrap(resource string, err error) error {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound(resource, err)
	case stderrors.Is(err, repository.ErrReferenced):
		return errors.Conflict(fmt.Sprintf("%s is still in use", resource), err)
	default:
		return errors.StoreUnavailable(err)
	}
}

func nonNil(views []*model.BookingView) []*model.BookingView {
	if views == nil {
		return []*model.BookingView{}
	}
	return views
}
