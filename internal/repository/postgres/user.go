package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/models"
	"github.com/Kerhoff/shoplist/internal/repository"
)

type userRepository struct {
	db dbx.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db dbx.DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, pass_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name,
		strings.ToLower(user.Email),
		user.PassHash,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.Email = strings.ToLower(user.Email)
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, name, email, pass_hash, created_at
		FROM users
		WHERE id = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "ID")
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, pass_hash, created_at
		FROM users
		WHERE email = $1`

	return r.scanOne(r.db.QueryRowContext(ctx, query, strings.ToLower(email)), "email")
}

func (r *userRepository) scanOne(row *sql.Row, by string) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PassHash,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", by, err)
	}

	return user, nil
}

func (r *userRepository) UpdateName(ctx context.Context, id int64, name string) error {
	query := `UPDATE users SET name = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("failed to update user name: %w", err)
	}

	return expectAffected(result)
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return expectAffected(result)
}

// expectAffected maps a zero-row result to repository.ErrNotFound.
func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
