// Package memory holds an in-process BookingStore used by tests and local tooling.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/repository"
)

type Store struct {
	mu       sync.Mutex
	services map[uuid.UUID]*model.Service
	patients map[uuid.UUID]*model.Patient
	bookings []*model.Booking
	events   []*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		services: make(map[uuid.UUID]*model.Service),
		patients: make(map[uuid.UUID]*model.Patient),
	}
}

var _ repository.BookingStore = (*Store)(nil)

func (s *Store) AddService(svc *model.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *svc
	s.services[svc.ID] = &cp
}

// AddBooking inserts b without any conflict check.
func (s *Store) AddBooking(b *model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings = append(s.bookings, &cp)
}

func (s *Store) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *svc
	return &cp, nil
}

func (s *Store) FindActiveBookings(ctx context.Context, serviceID uuid.UUID, date model.Date) ([]model.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(serviceID, date), nil
}

func (s *Store) activeLocked(serviceID uuid.UUID, date model.Date) []model.Interval {
	var out []model.Interval
	for _, b := range s.bookings {
		if b.ServiceID == serviceID && b.Date == date && b.Status.IsActive() {
			out = append(out, b.Interval())
		}
	}
	return out
}

// CommitBooking holds the store lock across the conflict check and the
// inserts, so overlapping commits for the same service and date serialise.
func (s *Store) CommitBooking(ctx context.Context, commit *model.BookingCommit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := commit.Booking
	want := b.Interval()
	for _, existing := range s.activeLocked(b.ServiceID, b.Date) {
		if existing.Overlaps(want) {
			return repository.ErrSlotConflict
		}
	}

	if commit.Patient != nil {
		cp := *commit.Patient
		s.patients[cp.ID] = &cp
	} else if _, ok := s.patients[b.PatientID]; !ok {
		return repository.ErrNotFound
	}

	cp := *b
	s.bookings = append(s.bookings, &cp)
	if commit.Event != nil {
		s.events = append(s.events, commit.Event)
	}
	return nil
}

// AddPatient registers an existing patient for admin-flow commits.
func (s *Store) AddPatient(p *model.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.patients[p.ID] = &cp
}

func (s *Store) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	return out
}

func (s *Store) Events() []*model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.OutboxEvent(nil), s.events...)
}

func (s *Store) Patients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patients)
}
