package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tpog/internal/config"
	intdb "tpog/internal/db"
	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

type UserRepository struct {
	DB *sql.DB
}

func (r UserRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return config.DB
}

// FindByLogin matches login against email or username.
func (r UserRepository) FindByLogin(ctx context.Context, login string) (models.User, error) {
	var u models.User
	err := r.db().QueryRowContext(ctx, `
		SELECT id, COALESCE(name,''), username, email, password_hash, role, status, created_at, updated_at
		FROM users
		WHERE email = ? OR username = ?
		LIMIT 1`, login, login).Scan(
		&u.ID,
		&u.Name,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (r UserRepository) Create(ctx context.Context, u models.User) (models.User, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO users (name, username, email, password_hash, role, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		u.Name, u.Username, u.Email, u.PasswordHash, u.Role, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if intdb.IsDuplicateKey(err) {
		return models.User{}, domain.ConflictError{Resource: "user", Msg: "email or username already registered", Err: err}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID, _ = res.LastInsertId()
	return u, nil
}
