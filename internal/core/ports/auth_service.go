package ports

import (
	"context"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

// RegisterInput carries a registration request plus the consent evidence
// captured from the HTTP request.
type RegisterInput struct {
	Email          string
	Password       string
	FullName       string
	Role           string
	ConsentText    string
	ConsentVersion string
	IPAddress      string
	UserAgent      string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	LatestConsent() domain.ConsentDocument
}
