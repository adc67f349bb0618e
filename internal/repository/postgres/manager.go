package postgres

import (
	"errors"

	"github.com/lib/pq"

	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/repository"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Manager vends PostgreSQL-backed repositories.
type Manager struct{}

// NewManager creates a new repository manager
func NewManager() repository.Manager {
	return &Manager{}
}

// Users returns a user repository bound to db.
func (m *Manager) Users(db dbx.DBTX) repository.UserRepository {
	return NewUserRepository(db)
}

// Settings returns a settings repository bound to db.
func (m *Manager) Settings(db dbx.DBTX) repository.SettingsRepository {
	return NewSettingsRepository(db)
}

// Lists returns a list repository bound to db.
func (m *Manager) Lists(db dbx.DBTX) repository.ListRepository {
	return NewListRepository(db)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
