package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/shoplist/internal/models"
)

const (
	setItemPurchasedSQL = `UPDATE list_items SET price = \$1, is_bought = true WHERE id = \$2 AND list_id = \$3`
	markCompletedSQL    = `UPDATE lists SET is_completed = true, purchased_at = NOW\(\) WHERE id = \$1 AND user_id = \$2 AND NOT is_completed`
	profileSQL          = `LEFT JOIN user_settings us ON us.user_id = u.id WHERE u.id = \$1`
)

var profileColumns = []string{"id", "name", "email", "language", "currency"}

var detailColumns = []string{
	"id", "name", "created_at", "is_completed", "purchased_at", "user_name", "email",
	"item_id", "product_name", "quantity", "price", "subtotal", "is_bought", "total_products", "total_cost",
}

func purchaseItems() []models.PurchaseItem {
	return []models.PurchaseItem{
		{ID: 10, Price: d("3.00")},
		{ID: 11, Price: d("5.00")},
	}
}

func TestCompletePurchase_Commits(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(setItemPurchasedSQL).
		WithArgs("3", int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setItemPurchasedSQL).
		WithArgs("5", int64(11), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markCompletedSQL).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.CompletePurchase(context.Background(), 1, 7, purchaseItems()))
}

func TestCompletePurchase_FailureAfterItemUpdatesPersistsNothing(t *testing.T) {
	svc, mock := newTestService(t, Options{})
	dbErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markCompletedSQL).WillReturnError(dbErr)
	mock.ExpectRollback()

	err := svc.CompletePurchase(context.Background(), 1, 7, purchaseItems())
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestCompletePurchase_ItemUpdateErrorRollsBack(t *testing.T) {
	svc, mock := newTestService(t, Options{})
	dbErr := errors.New("deadlock detected")

	mock.ExpectBegin()
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setItemPurchasedSQL).WillReturnError(dbErr)
	mock.ExpectRollback()

	err := svc.CompletePurchase(context.Background(), 1, 7, purchaseItems())
	assert.ErrorIs(t, err, dbErr)
}

func TestCompletePurchase_SecondCompletionFails(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markCompletedSQL).
		WithArgs(int64(1), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.CompletePurchase(context.Background(), 1, 7, purchaseItems())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompletePurchase_OtherUsersListIsNotFound(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markCompletedSQL).
		WithArgs(int64(1), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.CompletePurchase(context.Background(), 1, 8, purchaseItems())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompletePurchase_UnknownItemsRollBack(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setItemPurchasedSQL).
		WithArgs(sqlmock.AnyArg(), int64(11), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(markCompletedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := svc.CompletePurchase(context.Background(), 1, 7, purchaseItems())
	assert.ErrorIs(t, err, ErrUnknownItems)
}

func TestCompletePurchase_Validation(t *testing.T) {
	tests := []struct {
		name  string
		items []models.PurchaseItem
		field string
	}{
		{name: "no items", items: nil, field: "items"},
		{name: "negative price", items: []models.PurchaseItem{{ID: 1, Price: d("-1")}}, field: "items[0].price"},
		{name: "missing id", items: []models.PurchaseItem{{ID: 0, Price: d("1")}}, field: "items[0].id"},
		{
			name:  "duplicate id",
			items: []models.PurchaseItem{{ID: 4, Price: d("1")}, {ID: 4, Price: d("2")}},
			field: "items[1].id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, Options{})

			err := svc.CompletePurchase(context.Background(), 1, 7, tt.items)
			require.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestCompletePurchase_NotifiesAfterCommit(t *testing.T) {
	svc, mock := newTestService(t, Options{NotifyPurchases: true})
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setItemPurchasedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markCompletedSQL).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`OVER \(PARTITION BY l.id\)`).
		WithArgs(int64(1), int64(7)).
		WillReturnRows(sqlmock.NewRows(detailColumns).
			AddRow(int64(1), "Groceries", now, true, now, "Ana", "ana@example.com", int64(10), "milk", "2", "3", "6", true, "3", "11").
			AddRow(int64(1), "Groceries", now, true, now, "Ana", "ana@example.com", int64(11), "bread", "1", "5", "5", true, "3", "11"))
	mock.ExpectQuery(profileSQL).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(int64(7), "Ana", "ana@example.com", "en", "USD"))

	require.NoError(t, svc.CompletePurchase(context.Background(), 1, 7, purchaseItems()))

	n := runNotifier(t, svc)
	assert.Equal(t, "Groceries", n.detail.Name)
	assert.True(t, n.detail.TotalCost.Equal(d("11")))
	assert.Len(t, n.detail.Products, 2)
	assert.Equal(t, "USD", n.currency)
	assert.True(t, n.hasDeadline)
}

func TestProcessPurchase_DefaultCurrencyWhenSettingsFail(t *testing.T) {
	svc, mock := newTestService(t, Options{NotifyPurchases: true, DefaultCurrency: "EUR"})
	now := time.Now()

	mock.ExpectQuery(`OVER \(PARTITION BY l.id\)`).
		WillReturnRows(sqlmock.NewRows(detailColumns).
			AddRow(int64(1), "Groceries", now, true, now, "Ana", "ana@example.com", int64(10), "milk", "2", "3", "6", true, "2", "6"))
	mock.ExpectQuery(profileSQL).WillReturnError(errors.New("connection reset"))

	svc.enqueuePurchase(purchaseEvent{listID: 1, userID: 7})

	n := runNotifier(t, svc)
	assert.Equal(t, "EUR", n.currency)
}

type notification struct {
	detail      *models.ListDetail
	currency    string
	hasDeadline bool
}

// runNotifier runs the notifier loop until the first notification arrives.
func runNotifier(t *testing.T, svc *Service) notification {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan notification, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.StartPurchaseNotifier(ctx, func(ctx context.Context, detail *models.ListDetail, currency string) error {
			_, ok := ctx.Deadline()
			got <- notification{detail: detail, currency: currency, hasDeadline: ok}
			return nil
		})
	}()

	var n notification
	select {
	case n = <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("purchase notification was not delivered")
	}

	cancel()
	<-done
	return n
}

func TestEnqueuePurchase_DropsWhenQueueFull(t *testing.T) {
	svc, _ := newTestService(t, Options{NotifyPurchases: true})

	for i := 0; i < purchaseQueueSize+5; i++ {
		svc.enqueuePurchase(purchaseEvent{listID: int64(i), userID: 1})
	}
	assert.Len(t, svc.purchases, purchaseQueueSize)
}

func TestEnqueuePurchase_DisabledIsNoop(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	svc.enqueuePurchase(purchaseEvent{listID: 1, userID: 1})
	assert.Nil(t, svc.purchases)
}
