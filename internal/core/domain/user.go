package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RolePatient      = "paciente"
	RoleProfessional = "profesional"
)

// ValidRole reports whether r is one of the two account roles.
func ValidRole(r string) bool {
	return r == RolePatient || r == RoleProfessional
}

// User models an authenticated actor in the system. Role is fixed at registration.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the authenticated caller as decoded from a session token.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func (i Identity) IsProfessional() bool { return i.Role == RoleProfessional }

func (i Identity) IsPatient() bool { return i.Role == RolePatient }

// CanRead reports whether the caller may read records that belong to userID:
// the owner always can, professionals can read any patient's records.
func (i Identity) CanRead(userID uuid.UUID) bool {
	return i.UserID == userID || i.IsProfessional()
}
