package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/auth"
	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/models"
	"github.com/Kerhoff/shoplist/internal/repository"
)

// Register creates a user together with their default settings.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	v := &ValidationError{}
	name = trimmedRequired(v, "name", name)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		v.Add("email", "a valid email is required")
	} else if len(email) > maxEmailLength {
		v.Add("email", fmt.Sprintf("email must be at most %d characters", maxEmailLength))
	}
	validatePassword(v, password)
	if err := v.ErrorOrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repos.Users(tx).Create(ctx, &models.User{
			Name:     name,
			Email:    email,
			PassHash: hash,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}

		err = s.repos.Settings(tx).Create(ctx, &models.Settings{
			UserID:   created.ID,
			Language: s.opts.DefaultLanguage,
			Currency: s.opts.DefaultCurrency,
		})
		if err != nil {
			return err
		}

		user = created
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")

	return user, nil
}

// Login checks the credentials and issues a session token. Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PassHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &models.Session{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}, nil
}

// Authenticate resolves a session token to a user id.
func (s *Service) Authenticate(token string) (int64, error) {
	return s.tokens.ParseToken(token)
}

// GetSettings returns the user's profile and settings.
func (s *Service) GetSettings(ctx context.Context, userID int64) (*models.Profile, error) {
	profile, err := s.repos.Settings(s.db).GetProfile(ctx, userID)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get settings of user %d: %w", userID, err)
	}
	return profile, nil
}

// UpdateName renames the user.
func (s *Service) UpdateName(ctx context.Context, userID int64, name string) error {
	v := &ValidationError{}
	name = trimmedRequired(v, "name", name)
	if err := v.ErrorOrNil(); err != nil {
		return err
	}

	if err := s.repos.Users(s.db).UpdateName(ctx, userID, name); err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update name of user %d: %w", userID, err)
	}
	return nil
}

// UpdateSettings changes the user's language and currency. Language is a two
// letter code and currency an ISO 4217 code.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, language, currency string) error {
	v := &ValidationError{}
	language = strings.ToLower(strings.TrimSpace(language))
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if err := s.validate.Var(language, "required,len=2,alpha"); err != nil {
		v.Add("language", "language must be a two letter code")
	}
	if err := s.validate.Var(currency, "required,iso4217"); err != nil {
		v.Add("currency", "currency must be an ISO 4217 code")
	}
	if err := v.ErrorOrNil(); err != nil {
		return err
	}

	err := s.repos.Settings(s.db).Update(ctx, &models.Settings{
		UserID:   userID,
		Language: language,
		Currency: currency,
	})
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update settings of user %d: %w", userID, err)
	}
	return nil
}

// DeleteAccount removes the user after re-checking their password. Settings,
// lists and items go with the user.
func (s *Service) DeleteAccount(ctx context.Context, userID int64, password string) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return notFound(err)
		}

		ok, err := auth.CheckPassword(user.PassHash, password)
		if err != nil {
			return err
		}
		if !ok {
			v := &ValidationError{}
			v.Add("password", "password is incorrect")
			return v
		}

		return notFound(users.Delete(ctx, userID))
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return err
		}
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID}).Info("account deleted")

	return nil
}
