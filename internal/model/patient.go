package model

import (
	"time"
)

type Patient struct {
	Base
	FirstName         string     `db:"first_name" json:"first_name"`
	LastName          string     `db:"last_name" json:"last_name"`
	Email             *string    `db:"email" json:"email,omitempty"`
	Phone             string     `db:"phone" json:"phone"`
	DateOfBirth       *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	BloodType         *string    `db:"blood_type" json:"blood_type,omitempty"`
	Allergies         *string    `db:"allergies" json:"allergies,omitempty"`
	ChronicConditions *string    `db:"chronic_conditions" json:"chronic_conditions,omitempty"`
	EmergencyContact  *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyPhone    *string    `db:"emergency_phone" json:"emergency_phone,omitempty"`
	GeneralNotes      *string    `db:"general_notes" json:"general_notes,omitempty"`
}

type PatientWithCount struct {
	Patient
	BookingCount int `db:"booking_count" json:"booking_count"`
}

type PatientDetails struct {
	Patient
	Bookings []*BookingView `json:"bookings"`
}

// MedicalFields are the clinical fields staff may fill in on a patient record.
type MedicalFields struct {
	DateOfBirth       *time.Time `json:"date_of_birth"`
	BloodType         *string    `json:"blood_type" validate:"omitempty,max=5"`
	Allergies         *string    `json:"allergies"`
	ChronicConditions *string    `json:"chronic_conditions"`
	EmergencyContact  *string    `json:"emergency_contact"`
	EmergencyPhone    *string    `json:"emergency_phone"`
	GeneralNotes      *string    `json:"general_notes"`
}

type CreatePatientRequest struct {
	ContactFields
	MedicalFields
}

type UpdatePatientRequest struct {
	MedicalFields
}
