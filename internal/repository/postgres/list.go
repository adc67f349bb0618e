package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/shoplist/internal/dbx"
	"github.com/Kerhoff/shoplist/internal/models"
	"github.com/Kerhoff/shoplist/internal/repository"
)

type listRepository struct {
	db dbx.DBTX
}

// NewListRepository creates a new list repository
func NewListRepository(db dbx.DBTX) repository.ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) Create(ctx context.Context, userID int64, name string) (*models.List, error) {
	query := `
		INSERT INTO lists (user_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at, is_completed`

	list := &models.List{UserID: userID, Name: name}
	err := r.db.QueryRowContext(ctx, query, userID, name).
		Scan(&list.ID, &list.CreatedAt, &list.IsCompleted)

	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	return list, nil
}

// InsertItems batch-inserts items into the list in a single statement. New
// items always start as not bought.
func (r *listRepository) InsertItems(ctx context.Context, listID int64, items []models.NewItem) (int64, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("failed to insert list items: no items given")
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO list_items (list_id, product_name, quantity, price, is_bought) VALUES ")

	args := make([]any, 0, 1+len(items)*3)
	args = append(args, listID)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&sb, "($1, $%d, $%d, $%d, false)", n+1, n+2, n+3)
		args = append(args, item.Name, item.Quantity, item.Price)
	}

	result, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert list items: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

const selectList = `
		SELECT id, user_id, name, created_at, is_completed, purchased_at
		FROM lists
		WHERE id = $1 AND user_id = $2`

func (r *listRepository) GetByID(ctx context.Context, listID, userID int64) (*models.List, error) {
	return r.getList(ctx, selectList, listID, userID)
}

// LockByID reads the list and holds its row lock until the surrounding
// transaction ends.
func (r *listRepository) LockByID(ctx context.Context, listID, userID int64) (*models.List, error) {
	return r.getList(ctx, selectList+`
		FOR UPDATE`, listID, userID)
}

func (r *listRepository) getList(ctx context.Context, query string, listID, userID int64) (*models.List, error) {
	list := &models.List{}
	err := r.db.QueryRowContext(ctx, query, listID, userID).Scan(
		&list.ID,
		&list.UserID,
		&list.Name,
		&list.CreatedAt,
		&list.IsCompleted,
		&list.PurchasedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get list by ID: %w", err)
	}

	return list, nil
}

func (r *listRepository) GetItems(ctx context.Context, listID, userID int64) ([]models.ListItem, error) {
	query := `
		SELECT li.id, li.list_id, li.product_name, li.quantity, li.price, li.is_bought
		FROM list_items li
		JOIN lists l ON l.id = li.list_id
		WHERE li.list_id = $1 AND l.user_id = $2
		ORDER BY li.id ASC`

	rows, err := r.db.QueryContext(ctx, query, listID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	defer rows.Close()

	var items []models.ListItem
	for rows.Next() {
		var item models.ListItem
		if err := rows.Scan(
			&item.ID,
			&item.ListID,
			&item.ProductName,
			&item.Quantity,
			&item.Price,
			&item.IsBought,
		); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// GetPending returns the user's pending lists with their item counts. Lists
// without items are included with a zero count.
func (r *listRepository) GetPending(ctx context.Context, userID int64) ([]*models.PendingList, error) {
	query := `
		SELECT l.id, l.name, l.created_at, COUNT(li.id) AS product_count
		FROM lists l
		LEFT JOIN list_items li ON li.list_id = l.id
		WHERE l.user_id = $1 AND NOT l.is_completed
		GROUP BY l.id, l.name, l.created_at
		ORDER BY l.created_at DESC, l.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending lists: %w", err)
	}
	defer rows.Close()

	lists := []*models.PendingList{}
	for rows.Next() {
		list := &models.PendingList{}
		if err := rows.Scan(&list.ID, &list.Name, &list.CreatedAt, &list.ProductCount); err != nil {
			return nil, fmt.Errorf("failed to scan pending list: %w", err)
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

// GetPurchased returns the user's completed lists with quantity and cost
// totals, newest purchase first. Lists without items report zero totals.
func (r *listRepository) GetPurchased(ctx context.Context, userID int64) ([]*models.PurchasedList, error) {
	query := `
		SELECT l.id, l.name, l.purchased_at,
			COALESCE(SUM(li.quantity), 0) AS total_products,
			COALESCE(SUM(li.quantity * li.price), 0) AS total_cost
		FROM lists l
		LEFT JOIN list_items li ON li.list_id = l.id
		WHERE l.user_id = $1 AND l.is_completed
		GROUP BY l.id, l.name, l.purchased_at
		ORDER BY l.purchased_at DESC, l.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchased lists: %w", err)
	}
	defer rows.Close()

	lists := []*models.PurchasedList{}
	for rows.Next() {
		list := &models.PurchasedList{}
		if err := rows.Scan(
			&list.ID,
			&list.Name,
			&list.PurchasedAt,
			&list.TotalProducts,
			&list.TotalCost,
		); err != nil {
			return nil, fmt.Errorf("failed to scan purchased list: %w", err)
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

// GetDetailRows returns one row per item of the list, each carrying the
// list-wide totals computed by a window over the list id.
func (r *listRepository) GetDetailRows(ctx context.Context, listID, userID int64) ([]*models.DetailRow, error) {
	query := `
		SELECT
			l.id, l.name, l.created_at, l.is_completed, l.purchased_at,
			u.name, u.email,
			li.id, li.product_name, li.quantity, li.price,
			li.quantity * li.price AS subtotal,
			li.is_bought,
			SUM(li.quantity) OVER (PARTITION BY l.id) AS total_products,
			SUM(li.quantity * li.price) OVER (PARTITION BY l.id) AS total_cost
		FROM lists l
		JOIN users u ON u.id = l.user_id
		JOIN list_items li ON li.list_id = l.id
		WHERE l.id = $1 AND l.user_id = $2
		ORDER BY li.id ASC`

	rows, err := r.db.QueryContext(ctx, query, listID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list detail: %w", err)
	}
	defer rows.Close()

	var result []*models.DetailRow
	for rows.Next() {
		row := &models.DetailRow{}
		if err := rows.Scan(
			&row.ListID,
			&row.ListName,
			&row.CreatedAt,
			&row.IsCompleted,
			&row.PurchasedAt,
			&row.UserName,
			&row.UserEmail,
			&row.ItemID,
			&row.ProductName,
			&row.Quantity,
			&row.Price,
			&row.Subtotal,
			&row.IsBought,
			&row.TotalProducts,
			&row.TotalCost,
		); err != nil {
			return nil, fmt.Errorf("failed to scan list detail: %w", err)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// SetItemPurchased records the final price of an item and marks it bought.
// It reports the number of rows affected; zero means the item is not part of
// the list.
func (r *listRepository) SetItemPurchased(ctx context.Context, itemID, listID int64, price decimal.Decimal) (int64, error) {
	query := `
		UPDATE list_items
		SET price = $1, is_bought = true
		WHERE id = $2 AND list_id = $3`

	result, err := r.db.ExecContext(ctx, query, price, itemID, listID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark item as purchased: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// MarkCompleted moves a pending list owned by userID to completed. A list
// that is missing, owned by someone else or already completed yields
// repository.ErrNotFound.
func (r *listRepository) MarkCompleted(ctx context.Context, listID, userID int64) error {
	query := `
		UPDATE lists
		SET is_completed = true, purchased_at = NOW()
		WHERE id = $1 AND user_id = $2 AND NOT is_completed`

	result, err := r.db.ExecContext(ctx, query, listID, userID)
	if err != nil {
		return fmt.Errorf("failed to complete list: %w", err)
	}

	return expectAffected(result)
}

// UpdateItemPrice changes the price of an item that belongs to a pending
// list owned by userID.
func (r *listRepository) UpdateItemPrice(ctx context.Context, itemID, userID int64, price decimal.Decimal) error {
	query := `
		UPDATE list_items li
		SET price = $1
		FROM lists l
		WHERE li.id = $2 AND li.list_id = l.id AND l.user_id = $3 AND NOT l.is_completed`

	result, err := r.db.ExecContext(ctx, query, price, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to update item price: %w", err)
	}

	return expectAffected(result)
}

func (r *listRepository) DeleteItems(ctx context.Context, listID, userID int64) (int64, error) {
	query := `
		DELETE FROM list_items li
		USING lists l
		WHERE li.list_id = l.id AND l.id = $1 AND l.user_id = $2`

	result, err := r.db.ExecContext(ctx, query, listID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete list items: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *listRepository) Delete(ctx context.Context, listID, userID int64) error {
	query := `DELETE FROM lists WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, listID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	return expectAffected(result)
}
