package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/models"
	"github.com/Kerhoff/shoplist/internal/repository"
)

type settingsRepository struct {
	db dbx.DBTX
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db dbx.DBTX) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Create(ctx context.Context, settings *models.Settings) error {
	query := `
		INSERT INTO user_settings (user_id, language, currency)
		VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, settings.UserID, settings.Language, settings.Currency)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create user settings: %w", err)
	}

	return nil
}

// GetProfile returns the user joined with their settings. Missing settings
// come back as empty strings.
func (r *settingsRepository) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT u.id, u.name, u.email,
			COALESCE(us.language, ''), COALESCE(us.currency, '')
		FROM users u
		LEFT JOIN user_settings us ON us.user_id = u.id
		WHERE u.id = $1`

	profile := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Email,
		&profile.Language,
		&profile.Currency,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}

	return profile, nil
}

func (r *settingsRepository) Update(ctx context.Context, settings *models.Settings) error {
	query := `
		UPDATE user_settings
		SET language = $2, currency = $3
		WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, settings.UserID, settings.Language, settings.Currency)
	if err != nil {
		return fmt.Errorf("failed to update user settings: %w", err)
	}

	return expectAffected(result)
}
