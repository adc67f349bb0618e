package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/models"
)

// CreateList creates a pending list with its items and returns the new list
// id. The list and its items are written in one transaction, so a failed item
// insert leaves no list behind.
func (s *Service) CreateList(ctx context.Context, userID int64, name string, items []models.NewItem) (int64, error) {
	v := &ValidationError{}
	name = trimmedRequired(v, "name", name)
	validateNewItems(v, items)
	if err := v.ErrorOrNil(); err != nil {
		return 0, err
	}

	items = trimItems(items)

	var listID int64
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		lists := s.repos.Lists(tx)

		list, err := lists.Create(ctx, userID, name)
		if err != nil {
			return err
		}

		if _, err := lists.InsertItems(ctx, list.ID, items); err != nil {
			return err
		}

		listID = list.ID
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create list for user %d: %w", userID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"list_id": listID,
		"items":   len(items),
	}).Info("list created")

	return listID, nil
}

// GetOverview returns the user's pending and purchased lists.
func (s *Service) GetOverview(ctx context.Context, userID int64) (*models.Overview, error) {
	lists := s.repos.Lists(s.db)

	pending, err := lists.GetPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending lists for user %d: %w", userID, err)
	}

	purchased, err := lists.GetPurchased(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchased lists for user %d: %w", userID, err)
	}

	return &models.Overview{Pending: pending, Purchased: purchased}, nil
}

// GetShoppingList returns the list header together with its items, in
// insertion order.
func (s *Service) GetShoppingList(ctx context.Context, listID, userID int64) (*models.List, error) {
	lists := s.repos.Lists(s.db)

	list, err := lists.GetByID(ctx, listID, userID)
	if err != nil {
		return nil, notFound(err)
	}

	items, err := lists.GetItems(ctx, listID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items of list %d: %w", listID, err)
	}

	list.Items = items
	if list.Items == nil {
		list.Items = []models.ListItem{}
	}

	return list, nil
}

// GetListDetail returns the list with per-item subtotals and list totals. A
// list without items has no detail and reports ErrNotFound.
func (s *Service) GetListDetail(ctx context.Context, listID, userID int64) (*models.ListDetail, error) {
	rows, err := s.repos.Lists(s.db).GetDetailRows(ctx, listID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get detail of list %d: %w", listID, err)
	}

	detail := models.NewListDetail(rows)
	if detail == nil {
		return nil, ErrNotFound
	}

	return detail, nil
}

// DeleteList removes the list and all its items.
func (s *Service) DeleteList(ctx context.Context, listID, userID int64) error {
	var removed int64
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		lists := s.repos.Lists(tx)

		n, err := lists.DeleteItems(ctx, listID, userID)
		if err != nil {
			return err
		}
		removed = n

		return notFound(lists.Delete(ctx, listID, userID))
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete list %d: %w", listID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"list_id": listID,
		"items":   removed,
	}).Info("list deleted")

	return nil
}

// AddItems appends items to a pending list and returns how many were added.
func (s *Service) AddItems(ctx context.Context, listID, userID int64, items []models.NewItem) (int, error) {
	v := &ValidationError{}
	validateNewItems(v, items)
	if err := v.ErrorOrNil(); err != nil {
		return 0, err
	}

	items = trimItems(items)

	var added int64
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		lists := s.repos.Lists(tx)

		list, err := lists.LockByID(ctx, listID, userID)
		if err != nil {
			return notFound(err)
		}
		if list.IsCompleted {
			return ErrListCompleted
		}

		added, err = lists.InsertItems(ctx, listID, items)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrListCompleted) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to add items to list %d: %w", listID, err)
	}

	return int(added), nil
}

// UpdateItemPrice changes the price of one item of a pending list owned by
// userID.
func (s *Service) UpdateItemPrice(ctx context.Context, itemID, userID int64, price decimal.Decimal) error {
	v := &ValidationError{}
	validatePrice(v, "price", price)
	if err := v.ErrorOrNil(); err != nil {
		return err
	}

	if err := s.repos.Lists(s.db).UpdateItemPrice(ctx, itemID, userID, price); err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update price of item %d: %w", itemID, err)
	}

	return nil
}

// PreviewPurchase computes the total the list would have if completed with
// the given prices. Items without a submitted price count at their stored
// price.
func (s *Service) PreviewPurchase(ctx context.Context, listID, userID int64, items []models.PurchaseItem) (decimal.Decimal, error) {
	v := &ValidationError{}
	if len(items) > 0 {
		validatePurchaseItems(v, items)
	}
	if err := v.ErrorOrNil(); err != nil {
		return decimal.Zero, err
	}

	list, err := s.GetShoppingList(ctx, listID, userID)
	if err != nil {
		return decimal.Zero, err
	}

	known := make(map[int64]struct{}, len(list.Items))
	for _, item := range list.Items {
		known[item.ID] = struct{}{}
	}

	overrides := make(map[int64]decimal.Decimal, len(items))
	for _, item := range items {
		if _, ok := known[item.ID]; !ok {
			return decimal.Zero, ErrUnknownItems
		}
		overrides[item.ID] = item.Price
	}

	return models.PurchaseTotal(list.Items, overrides), nil
}
