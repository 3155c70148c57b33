package crdb

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
)

const userColumns = `id, name, email, password_hash, role, phone, bio, avatar, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.Bio, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) CreateUser(ctx context.Context, u *domain.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, phone, bio, avatar)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, u.ID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Role, u.Phone, u.Bio, u.Avatar).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapErr(err, "insert user")
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, mapErr(err, "get user by email")
	}
	return u, nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "get user")
	}
	return u, nil
}

func (r *Repository) UpdateUserProfile(ctx context.Context, u *domain.User) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, phone = $3, bio = $4, avatar = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID, u.Name, u.Phone, u.Bio, u.Avatar).Scan(&u.UpdatedAt)
	return mapErr(err, "update user")
}
