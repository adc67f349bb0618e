package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// List represents a shopping list owned by a single user
type List struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	IsCompleted bool       `json:"is_completed" db:"is_completed"`
	PurchasedAt *time.Time `json:"purchased_at" db:"purchased_at"`
	Items       []ListItem `json:"items,omitempty"`
}

// ListItem represents a product entry within a list
type ListItem struct {
	ID          int64           `json:"id" db:"id"`
	ListID      int64           `json:"list_id" db:"list_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	Quantity    decimal.Decimal `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
	IsBought    bool            `json:"is_bought" db:"is_bought"`
}

// Subtotal returns quantity × price.
func (i ListItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.Price)
}

// NewItem is an item to be inserted into a list
type NewItem struct {
	Name     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// PurchaseItem carries the final price of one item at completion time
type PurchaseItem struct {
	ID    int64
	Price decimal.Decimal
}

// PendingList is the dashboard projection of a list not yet purchased
type PendingList struct {
	ID           int64     `json:"id_list"`
	Name         string    `json:"name_list"`
	CreatedAt    time.Time `json:"created_at"`
	ProductCount int64     `json:"product_count"`
}

// PurchasedList is the history projection of a completed list
type PurchasedList struct {
	ID            int64           `json:"id_list"`
	Name          string          `json:"name_list"`
	PurchasedAt   time.Time       `json:"purchased_at"`
	TotalProducts decimal.Decimal `json:"total_products"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// Overview groups a user's lists by state
type Overview struct {
	Pending   []*PendingList   `json:"pending"`
	Purchased []*PurchasedList `json:"purchased"`
}

// DetailRow is one flat row of the detail-with-totals projection. The list
// totals repeat on every row of the same list.
type DetailRow struct {
	ListID        int64
	ListName      string
	CreatedAt     time.Time
	IsCompleted   bool
	PurchasedAt   *time.Time
	UserName      string
	UserEmail     string
	ItemID        int64
	ProductName   string
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	Subtotal      decimal.Decimal
	IsBought      bool
	TotalProducts decimal.Decimal
	TotalCost     decimal.Decimal
}

// ListDetail is a list with its items and computed totals
type ListDetail struct {
	ID                 int64           `json:"id"`
	Name               string          `json:"name"`
	IsCompleted        bool            `json:"is_completed"`
	CreatedAt          time.Time       `json:"created_at"`
	PurchasedAt        *time.Time      `json:"purchased_at"`
	UserName           string          `json:"user_name"`
	UserEmail          string          `json:"user_email"`
	TotalProductsCount decimal.Decimal `json:"total_products_count"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	Products           []DetailProduct `json:"products"`
}

// DetailProduct is one item of a ListDetail
type DetailProduct struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Subtotal decimal.Decimal `json:"subtotal"`
	IsBought bool            `json:"is_bought"`
}

// NewListDetail folds the flat per-item rows of one list into a ListDetail.
// It returns nil when rows is empty.
func NewListDetail(rows []*DetailRow) *ListDetail {
	if len(rows) == 0 {
		return nil
	}

	head := rows[0]
	detail := &ListDetail{
		ID:                 head.ListID,
		Name:               head.ListName,
		IsCompleted:        head.IsCompleted,
		CreatedAt:          head.CreatedAt,
		PurchasedAt:        head.PurchasedAt,
		UserName:           head.UserName,
		UserEmail:          head.UserEmail,
		TotalProductsCount: head.TotalProducts,
		TotalCost:          head.TotalCost,
		Products:           make([]DetailProduct, 0, len(rows)),
	}

	for _, r := range rows {
		detail.Products = append(detail.Products, DetailProduct{
			ID:       r.ItemID,
			Name:     r.ProductName,
			Quantity: r.Quantity,
			Price:    r.Price,
			Subtotal: r.Subtotal,
			IsBought: r.IsBought,
		})
	}

	return detail
}

// PurchaseTotal sums quantity × price over items. Prices found in overrides
// replace the stored item price.
func PurchaseTotal(items []ListItem, overrides map[int64]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		price := item.Price
		if p, ok := overrides[item.ID]; ok {
			price = p
		}
		total = total.Add(item.Quantity.Mul(price))
	}
	return total
}
