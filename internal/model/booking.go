package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []BookingStatus{BookingStatusPending, BookingStatusConfirmed}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether a booking in this status blocks its interval.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// CanTransitionTo reports whether pending → confirmed → completed, or
// pending|confirmed → cancelled, allows moving from s to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `db:"start_time" json:"start_time"`
	End   time.Time `db:"end_time" json:"end_time"`
}

// Overlaps reports whether the half-open intervals intersect. Intervals that
// only touch at an endpoint do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

type Booking struct {
	Base
	ServiceID uuid.UUID     `db:"service_id" json:"service_id"`
	PatientID uuid.UUID     `db:"patient_id" json:"patient_id"`
	Date      Date          `db:"date" json:"date"`
	StartTime time.Time     `db:"start_time" json:"start_time"`
	EndTime   time.Time     `db:"end_time" json:"end_time"`
	Status    BookingStatus `db:"status" json:"status"`
	City      *string       `db:"city" json:"city,omitempty"`
	Notes     *string       `db:"notes" json:"notes,omitempty"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// ServiceSummary and PatientSummary are embedded in booking listings.
type ServiceSummary struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Duration int       `db:"duration" json:"duration"`
	Price    *float64  `db:"price" json:"price,omitempty"`
}

type PatientSummary struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     string    `db:"phone" json:"phone"`
}

// BookingView is a booking joined with its service and patient.
type BookingView struct {
	Booking
	Service ServiceSummary `db:"service" json:"service"`
	Patient PatientSummary `db:"patient" json:"patient"`
}

// BookingDetails adds session notes and the patient's booking history.
type BookingDetails struct {
	BookingView
	SessionNotes   []*SessionNote `json:"session_notes"`
	PatientHistory []*BookingView `json:"patient_history"`
}

// BookingCommit is everything the store writes atomically when a booking is
// accepted: the optional new patient, the booking and its outbox event.
type BookingCommit struct {
	Booking *Booking
	Patient *Patient
	Event   *OutboxEvent
}

type BookingFilter struct {
	Status    *BookingStatus
	ServiceID *uuid.UUID
	Date      *Date
}

// ContactFields are collected by the public booking form.
type ContactFields struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required,min=10"`
}

type CreateBookingRequest struct {
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	ContactFields
	Date      Date      `json:"date"`
	StartTime time.Time `json:"start_time" validate:"required"`
	Notes     *string   `json:"notes" validate:"omitempty,max=1000"`
}

type CreatePatientBookingRequest struct {
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	City      *string   `json:"city"`
	Date      Date      `json:"date"`
	StartTime time.Time `json:"start_time" validate:"required"`
	Notes     *string   `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
}

// Slot is a candidate start time for a service on a given day.
type Slot struct {
	Time     time.Time `json:"time"`
	IsBooked bool      `json:"is_booked"`
}
