package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the demographic fields of a user. Patient-only and
// professional-only fields share the record; every field is optional.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FirstName *string   `json:"first_name"`
	LastName  *string   `json:"last_name"`
	Age       *int      `json:"age"`
	Gender    *string   `json:"gender"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`

	// Patient fields.
	DateOfBirth      *string `json:"date_of_birth"`
	NationalHealthID *string `json:"national_health_id"`
	Allergies        *string `json:"allergies"`

	// Professional fields.
	Specialty     *string `json:"specialty"`
	LicenseNumber *string `json:"license_number"`
	Facility      *string `json:"facility"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileFields is a partial update: nil means "not supplied".
type ProfileFields struct {
	FirstName        *string
	LastName         *string
	Age              *int
	Gender           *string
	Phone            *string
	Address          *string
	DateOfBirth      *string
	NationalHealthID *string
	Allergies        *string
	Specialty        *string
	LicenseNumber    *string
	Facility         *string
}

// Empty reports whether no field was supplied.
func (f ProfileFields) Empty() bool {
	return f == ProfileFields{}
}

// Validate checks the few fields that carry a domain constraint.
func (f ProfileFields) Validate() error {
	if f.Age != nil && (*f.Age < 0 || *f.Age > 150) {
		return InvalidInput("age must be between 0 and 150")
	}
	return nil
}
