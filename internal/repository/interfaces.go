package repository

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible
	// to the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

// SettingsRepository defines the interface for user settings operations
type SettingsRepository interface {
	Create(ctx context.Context, settings *models.Settings) error
	GetProfile(ctx context.Context, userID int64) (*models.Profile, error)
	Update(ctx context.Context, settings *models.Settings) error
}

// ListRepository defines the interface for list and list item operations.
// Every read and every mutation is scoped by the owning user.
type ListRepository interface {
	Create(ctx context.Context, userID int64, name string) (*models.List, error)
	InsertItems(ctx context.Context, listID int64, items []models.NewItem) (int64, error)
	GetByID(ctx context.Context, listID, userID int64) (*models.List, error)
	LockByID(ctx context.Context, listID, userID int64) (*models.List, error)
	GetItems(ctx context.Context, listID, userID int64) ([]models.ListItem, error)

	GetPending(ctx context.Context, userID int64) ([]*models.PendingList, error)
	GetPurchased(ctx context.Context, userID int64) ([]*models.PurchasedList, error)
	GetDetailRows(ctx context.Context, listID, userID int64) ([]*models.DetailRow, error)

	SetItemPurchased(ctx context.Context, itemID, listID int64, price decimal.Decimal) (int64, error)
	MarkCompleted(ctx context.Context, listID, userID int64) error
	UpdateItemPrice(ctx context.Context, itemID, userID int64, price decimal.Decimal) error

	DeleteItems(ctx context.Context, listID, userID int64) (int64, error)
	Delete(ctx context.Context, listID, userID int64) error
}

// Manager vends repositories bound to a database handle, so the same
// repositories can run against the pool or inside a transaction.
type Manager interface {
	Users(db dbx.DBTX) UserRepository
	Settings(db dbx.DBTX) SettingsRepository
	Lists(db dbx.DBTX) ListRepository
}
