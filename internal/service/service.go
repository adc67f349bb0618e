package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/auth"
	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/repository"
)

// purchaseQueueSize bounds the number of purchase notifications waiting for
// the notifier loop.
const purchaseQueueSize = 64

const defaultNotifyTimeout = 10 * time.Second

// Options tunes a Service.
type Options struct {
	TxTimeout       time.Duration
	DefaultLanguage string
	DefaultCurrency string

	// NotifyPurchases enables the purchase notification queue consumed by
	// StartPurchaseNotifier.
	NotifyPurchases bool
	// NotifyTimeout bounds the handling of one notification, including the
	// database reads. Zero means 10s.
	NotifyTimeout time.Duration
}

// Service is the business logic layer. It owns the transaction boundaries
// and hands repositories either the pool or the open transaction.
type Service struct {
	db       *sql.DB
	tx       *dbx.TxRunner
	logger   *logrus.Logger
	repos    repository.Manager
	tokens   *auth.TokenManager
	validate *validator.Validate
	opts     Options

	purchases chan purchaseEvent
}

// New creates a new Service with all required dependencies.
func New(db *sql.DB, logger *logrus.Logger, repos repository.Manager, tokens *auth.TokenManager, opts Options) *Service {
	s := &Service{
		db:       db,
		tx:       dbx.NewTxRunner(db, opts.TxTimeout),
		logger:   logger,
		repos:    repos,
		tokens:   tokens,
		validate: validator.New(),
		opts:     opts,
	}
	if s.opts.NotifyTimeout <= 0 {
		s.opts.NotifyTimeout = defaultNotifyTimeout
	}
	if opts.NotifyPurchases {
		s.purchases = make(chan purchaseEvent, purchaseQueueSize)
	}
	return s
}

// DBTime returns the database clock. It doubles as a liveness probe.
func (s *Service) DBTime(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := s.db.QueryRowContext(ctx, "SELECT NOW()").Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("failed to query database time: %w", err)
	}
	return now, nil
}

// notFound translates repository.ErrNotFound into ErrNotFound and passes any
// other error through.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
