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

type UserRepository struct{ base }

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{base{pool: pool}}
}

const userCols = `id, email, password_hash, full_name, role, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]*domain.User, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+userCols+` FROM users WHERE role = $1 ORDER BY full_name, id`, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// LockPatient must run inside a transaction; the FOR UPDATE lock is
// released on commit or rollback.
func (r *UserRepository) LockPatient(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1 AND role = $2 FOR UPDATE`, id, domain.RolePatient))
}
