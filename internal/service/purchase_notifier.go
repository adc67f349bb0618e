package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/models"
)

// PurchaseCallback delivers a summary of a completed purchase. currency is
// the buyer's configured currency.
type PurchaseCallback func(ctx context.Context, detail *models.ListDetail, currency string) error

type purchaseEvent struct {
	listID int64
	userID int64
}

// enqueuePurchase hands a committed purchase to the notifier loop. It never
// blocks; when the queue is full the notification is dropped.
func (s *Service) enqueuePurchase(ev purchaseEvent) {
	if s.purchases == nil {
		return
	}

	select {
	case s.purchases <- ev:
	default:
		s.logger.WithField("list_id", ev.listID).Warn("purchase notification queue full, dropping")
	}
}

// StartPurchaseNotifier consumes completed purchases and invokes the callback
// with the list detail of each one. It blocks until the context is cancelled,
// so it should be launched in a separate goroutine.
func (s *Service) StartPurchaseNotifier(ctx context.Context, callback PurchaseCallback) {
	if s.purchases == nil {
		s.logger.Warn("Purchase notifier started without a queue, nothing to do")
		return
	}

	s.logger.Info("Purchase notifier started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Purchase notifier stopped")
			return
		case ev := <-s.purchases:
			s.processPurchase(ctx, ev, callback)
		}
	}
}

func (s *Service) processPurchase(ctx context.Context, ev purchaseEvent, callback PurchaseCallback) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.NotifyTimeout)
	defer cancel()

	log := s.logger.WithFields(logrus.Fields{
		"user_id": ev.userID,
		"list_id": ev.listID,
	})

	detail, err := s.GetListDetail(ctx, ev.listID, ev.userID)
	if err != nil {
		log.WithError(err).Error("Failed to load purchased list")
		return
	}

	currency := s.opts.DefaultCurrency
	profile, err := s.repos.Settings(s.db).GetProfile(ctx, ev.userID)
	switch {
	case err != nil:
		log.WithError(err).Warn("Failed to load buyer settings, using default currency")
	case profile.Currency != "":
		currency = profile.Currency
	}

	if err := callback(ctx, detail, currency); err != nil {
		log.WithError(err).Error("Failed to send purchase notification")
	}
}
