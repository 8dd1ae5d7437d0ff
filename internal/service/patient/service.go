package patient

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

// SearchLimit caps patient search results.
const SearchLimit = 10

type Service struct {
	repo     repository.PatientRepository
	bookings repository.BookingRepository
	validate *validator.Validator
	now      func() time.Time
}

func NewService(repo repository.PatientRepository, bookings repository.BookingRepository) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]*model.PatientWithCount, error) {
	patients, err := s.repo.ListWithCounts(ctx)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if patients == nil {
		patients = []*model.PatientWithCount{}
	}
	return patients, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]*model.Patient, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Patient{}, nil
	}
	patients, err := s.repo.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if patients == nil {
		patients = []*model.Patient{}
	}
	return patients, nil
}

// GetDetails returns the patient record with the full booking history.
func (s *Service) GetDetails(ctx context.Context, id uuid.UUID) (*model.PatientDetails, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrap(err)
	}
	history, err := s.bookings.ListByPatient(ctx, id)
	if err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	if history == nil {
		history = []*model.BookingView{}
	}
	return &model.PatientDetails{Patient: *p, Bookings: history}, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	p := &model.Patient{
		Base:      model.NewBase(s.now()),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		p.Email = &email
	}
	applyMedical(p, &req.MedicalFields)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.StoreUnavailable(err)
	}
	return p, nil
}

// Update replaces the provided medical fields. Contact details are not
// editable here.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if fields := s.validate.Struct(req); fields != nil {
		return nil, errors.Validation(fields)
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, wrap(err)
	}
	applyMedical(p, &req.MedicalFields)
	p.UpdatedAt = s.now()

	if err := s.repo.UpdateMedical(ctx, p); err != nil {
		return nil, wrap(err)
	}
	return p, nil
}

func applyMedical(p *model.Patient, m *model.MedicalFields) {
	if m.DateOfBirth != nil {
		p.DateOfBirth = m.DateOfBirth
	}
	if m.BloodType != nil {
		p.BloodType = m.BloodType
	}
	if m.Allergies != nil {
		p.Allergies = m.Allergies
	}
	if m.ChronicConditions != nil {
		p.ChronicConditions = m.ChronicConditions
	}
	if m.EmergencyContact != nil {
		p.EmergencyContact = m.EmergencyContact
	}
	if m.EmergencyPhone != nil {
		p.EmergencyPhone = m.EmergencyPhone
	}
	if m.GeneralNotes != nil {
		p.GeneralNotes = m.GeneralNotes
	}
}

func wrap(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("patient", err)
	}
	return errors.StoreUnavailable(err)
}
