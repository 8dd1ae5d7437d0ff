package model

import (
	"time"
)

// Service is a bookable treatment offered by the clinic.
type Service struct {
	Base
	Name        string   `db:"name" json:"name"`
	Description *string  `db:"description" json:"description,omitempty"`
	Duration    int      `db:"duration" json:"duration"` // in minutes
	Price       *float64 `db:"price" json:"price,omitempty"`
	Active      bool     `db:"active" json:"active"`
}

// Length returns the service duration as a time.Duration.
func (s *Service) Length() time.Duration {
	return time.Duration(s.Duration) * time.Minute
}

// ServiceWithCount is a service together with the number of bookings that reference it.
type ServiceWithCount struct {
	Service
	BookingCount int `db:"booking_count" json:"booking_count"`
}

type CreateServiceRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description"`
	Duration    int      `json:"duration" validate:"gt=0"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Active      *bool    `json:"active"`
}

type UpdateServiceRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Duration    *int     `json:"duration" validate:"omitempty,gt=0"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Active      *bool    `json:"active"`
}
