package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/etiaam/etiaam-api/internal/core/domain"
)

type ProfileRepository struct{ base }

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{base{pool: pool}}
}

const profileCols = `id, user_id, first_name, last_name, age, gender, phone, address,
	date_of_birth, national_health_id, allergies, specialty, license_number, facility,
	created_at, updated_at`

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Age, &p.Gender, &p.Phone, &p.Address,
		&p.DateOfBirth, &p.NationalHealthID, &p.Allergies, &p.Specialty, &p.LicenseNumber, &p.Facility,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return scanProfile(r.conn(ctx).QueryRow(ctx, `SELECT `+profileCols+` FROM profiles WHERE user_id = $1`, userID))
}

// Upsert relies on COALESCE so that a NULL parameter (field not supplied)
// keeps the stored value.
func (r *ProfileRepository) Upsert(ctx context.Context, userID uuid.UUID, f domain.ProfileFields) (*domain.Profile, error) {
	p, err := scanProfile(r.conn(ctx).QueryRow(ctx, `
		INSERT INTO profiles (id, user_id, first_name, last_name, age, gender, phone, address,
			date_of_birth, national_health_id, allergies, specialty, license_number, facility)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name         = COALESCE(EXCLUDED.first_name, profiles.first_name),
			last_name          = COALESCE(EXCLUDED.last_name, profiles.last_name),
			age                = COALESCE(EXCLUDED.age, profiles.age),
			gender             = COALESCE(EXCLUDED.gender, profiles.gender),
			phone              = COALESCE(EXCLUDED.phone, profiles.phone),
			address            = COALESCE(EXCLUDED.address, profiles.address),
			date_of_birth      = COALESCE(EXCLUDED.date_of_birth, profiles.date_of_birth),
			national_health_id = COALESCE(EXCLUDED.national_health_id, profiles.national_health_id),
			allergies          = COALESCE(EXCLUDED.allergies, profiles.allergies),
			specialty          = COALESCE(EXCLUDED.specialty, profiles.specialty),
			license_number     = COALESCE(EXCLUDED.license_number, profiles.license_number),
			facility           = COALESCE(EXCLUDED.facility, profiles.facility),
			updated_at         = NOW()
		RETURNING `+profileCols,
		uuid.New(), userID, f.FirstName, f.LastName, f.Age, f.Gender, f.Phone, f.Address,
		f.DateOfBirth, f.NationalHealthID, f.Allergies, f.Specialty, f.LicenseNumber, f.Facility))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}
