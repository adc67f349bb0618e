package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/models"
)

// CompletePurchase records the final price of every submitted item, marks
// them bought and moves the list to completed, all in one transaction.
//
// The list update is the ownership check: a list that does not exist, belongs
// to another user or is already completed yields ErrNotFound and nothing is
// persisted. Items that are not part of the list yield ErrUnknownItems and
// likewise roll back the whole purchase.
func (s *Service) CompletePurchase(ctx context.Context, listID, userID int64, items []models.PurchaseItem) error {
	v := &ValidationError{}
	validatePurchaseItems(v, items)
	if err := v.ErrorOrNil(); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		lists := s.repos.Lists(tx)

		var updated int64
		for _, item := range items {
			n, err := lists.SetItemPurchased(ctx, item.ID, listID, item.Price)
			if err != nil {
				return err
			}
			updated += n
		}

		if err := lists.MarkCompleted(ctx, listID, userID); err != nil {
			return notFound(err)
		}

		if updated != int64(len(items)) {
			return ErrUnknownItems
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnknownItems) {
			return err
		}
		return fmt.Errorf("failed to complete purchase of list %d: %w", listID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"list_id": listID,
		"items":   len(items),
	}).Info("purchase completed")

	s.enqueuePurchase(purchaseEvent{listID: listID, userID: userID})

	return nil
}
