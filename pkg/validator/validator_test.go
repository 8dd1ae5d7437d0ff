package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type contact struct {
	FirstName string  `json:"first_name" validate:"required"`
	Phone     string  `json:"phone" validate:"required,min=10"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Duration  int     `json:"duration" validate:"gt=0"`
	Role      string  `json:"role" validate:"omitempty,oneof=ADMIN STAFF"`
	Notes     *string `json:"notes" validate:"omitempty,max=5"`
}

func TestStructReportsFieldsByJSONName(t *testing.T) {
	notes := "too long"
	fields := New().Struct(contact{Phone: "123", Email: "nope", Role: "ROOT", Notes: &notes})

	assert.Equal(t, "is required", fields["first_name"])
	assert.Equal(t, "must be at least 10 characters long", fields["phone"])
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "must be greater than 0", fields["duration"])
	assert.Equal(t, "must be one of [ADMIN STAFF]", fields["role"])
	assert.Equal(t, "must not exceed 5 characters", fields["notes"])
}

func TestStructAcceptsValidInput(t *testing.T) {
	fields := New().Struct(contact{FirstName: "Lina", Phone: "0790000000", Duration: 30})
	assert.Nil(t, fields)
}
