package model

import (
	"time"

	"github.com/google/uuid"
)

type AdminRole string

const (
	AdminRoleAdmin AdminRole = "ADMIN"
	AdminRoleStaff AdminRole = "STAFF"
)

// Admin is a staff account that can sign in to the dashboard.
type Admin struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password" json:"-"`
	Role         AdminRole `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateAdminRequest struct {
	Email    string    `json:"email" validate:"required,email"`
	Name     string    `json:"name" validate:"required"`
	Password string    `json:"password" validate:"required,min=8"`
	Role     AdminRole `json:"role" validate:"required,oneof=ADMIN STAFF"`
}

type UpdateAdminRequest struct {
	Name     *string    `json:"name" validate:"omitempty,min=1"`
	Role     *AdminRole `json:"role" validate:"omitempty,oneof=ADMIN STAFF"`
	Active   *bool      `json:"active"`
	Password *string    `json:"password" validate:"omitempty,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Admin       *Admin    `json:"admin"`
}
