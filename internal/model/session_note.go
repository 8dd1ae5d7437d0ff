package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionNote is the practitioner's record of a completed session.
type SessionNote struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	BookingID        uuid.UUID  `db:"booking_id" json:"booking_id"`
	DoctorNote       string     `db:"doctor_note" json:"doctor_note"`
	Diagnosis        *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription     *string    `db:"prescription" json:"prescription,omitempty"`
	FollowUpRequired bool       `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate     *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

type CreateSessionNoteRequest struct {
	DoctorNote       string     `json:"doctor_note" validate:"required"`
	Diagnosis        *string    `json:"diagnosis"`
	Prescription     *string    `json:"prescription"`
	FollowUpRequired bool       `json:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date"`
}
