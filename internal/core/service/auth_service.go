package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/etiaam/etiaam-api/internal/core/domain"
	"github.com/etiaam/etiaam-api/internal/core/ports"
)

// AuthService implements registration with consent capture and login.
type AuthService struct {
	users    ports.UserRepository
	consents ports.ConsentRepository
	tx       ports.Transactor
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	logger   zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	consents ports.ConsentRepository,
	tx ports.Transactor,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		consents: consents,
		tx:       tx,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates the user and its consent record atomically and returns a
// session token for the new account.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := domain.NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	switch {
	case email == "" || in.Password == "" || fullName == "":
		return nil, domain.InvalidInput("email, password and full_name are required")
	case !domain.ValidRole(in.Role):
		return nil, domain.InvalidInput("role must be %q or %q", domain.RolePatient, domain.RoleProfessional)
	case in.ConsentText == "" || in.ConsentVersion == "":
		return nil, domain.InvalidInput("consent_text and consent_version are required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		Role:         in.Role,
		CreatedAt:    now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.consents.Create(ctx, &domain.Consent{
			UserID:     user.ID,
			Version:    in.ConsentVersion,
			TextHash:   domain.HashConsentText(in.ConsentText),
			IPAddress:  in.IPAddress,
			UserAgent:  in.UserAgent,
			AcceptedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("role", in.Role).Msg("failed to register user")
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Str("role", user.Role).Str("consent_version", in.ConsentVersion).Msg("user registered")

	return &ports.AuthResult{Token: token, User: user}, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password fail with the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("stored password hash is malformed")
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &ports.AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) LatestConsent() domain.ConsentDocument {
	return domain.CurrentConsent
}
