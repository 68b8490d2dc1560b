package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/taxsim/internal/domain"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements domain.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// Compile-time check to ensure UserRepository implements domain.UserRepository.
var _ domain.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password_hash, role, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const op = "user.create"

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		strings.TrimSpace(user.Username), user.PasswordHash, string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.Conflict(op, "username already exists")
	}
	if err != nil {
		return domain.Internal(err, op, "failed to create user")
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const op = "user.get"

	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username),
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound(op, "user", username)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to get user")
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	const op = "user.list"

	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list users")
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to scan user")
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, op, "failed to read users")
	}
	return users, nil
}

// Update rewrites the password hash and role of the user matched by username.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	const op = "user.update"

	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET password_hash = $2, role = $3, updated_at = now()
		WHERE lower(username) = lower($1)
		RETURNING id, created_at, updated_at`,
		strings.TrimSpace(user.Username), user.PasswordHash, string(user.Role),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(op, "user", user.Username)
	}
	if err != nil {
		return domain.Internal(err, op, "failed to update user")
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	const op = "user.delete"

	tag, err := r.db.Exec(ctx,
		`DELETE FROM users WHERE lower(username) = lower($1)`,
		strings.TrimSpace(username),
	)
	if err != nil {
		return domain.Internal(err, op, "failed to delete user")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(op, "user", username)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
