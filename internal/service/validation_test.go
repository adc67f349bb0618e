package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/shoplist/internal/models"
)

func manyItems(n int) []models.NewItem {
	items := make([]models.NewItem, n)
	for i := range items {
		items[i] = models.NewItem{Name: "item", Quantity: d("1"), Price: d("0")}
	}
	return items
}

// Input the schema would reject must fail validation before a transaction
// is opened. The mocks carry no expectations, so any query fails the test.
func TestCreateList_ColumnLimits(t *testing.T) {
	item := func(name, qty, price string) []models.NewItem {
		return []models.NewItem{{Name: name, Quantity: d(qty), Price: d(price)}}
	}

	tests := []struct {
		name     string
		listName string
		items    []models.NewItem
		field    string
	}{
		{name: "list name too long", listName: strings.Repeat("a", 101), items: item("milk", "1", "0"), field: "name"},
		{name: "item name too long", listName: "Groceries", items: item(strings.Repeat("ñ", 101), "1", "0"), field: "items[0].name"},
		{name: "quantity rounds to zero", listName: "Groceries", items: item("milk", "0.0001", "0"), field: "items[0].quantity"},
		{name: "quantity scale", listName: "Groceries", items: item("milk", "1.2345", "0"), field: "items[0].quantity"},
		{name: "quantity overflow", listName: "Groceries", items: item("milk", "1000000000", "0"), field: "items[0].quantity"},
		{name: "price scale", listName: "Groceries", items: item("milk", "1", "2.505"), field: "items[0].price"},
		{name: "price overflow", listName: "Groceries", items: item("milk", "1", "10000000000"), field: "items[0].price"},
		{name: "too many items", listName: "Groceries", items: manyItems(maxItems + 1), field: "items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, Options{})

			_, err := svc.CreateList(context.Background(), 7, tt.listName, tt.items)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestCompletePurchase_ColumnLimits(t *testing.T) {
	tests := []struct {
		name  string
		price string
	}{
		{name: "overflow", price: "100000000000"},
		{name: "scale", price: "2.505"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, Options{})

			err := svc.CompletePurchase(context.Background(), 1, 7, []models.PurchaseItem{{ID: 10, Price: d(tt.price)}})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "items[0].price")
		})
	}

	t.Run("too many items", func(t *testing.T) {
		svc, _ := newTestService(t, Options{})

		items := make([]models.PurchaseItem, maxItems+1)
		for i := range items {
			items[i] = models.PurchaseItem{ID: int64(i + 1), Price: d("1")}
		}
		err := svc.CompletePurchase(context.Background(), 1, 7, items)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "items")
	})
}

func TestAddItems_ColumnLimits(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	_, err := svc.AddItems(context.Background(), 1, 7, []models.NewItem{{Name: "milk", Quantity: d("0.0001")}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddItems(context.Background(), 1, 7, manyItems(maxItems+1))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateItemPrice_ColumnLimits(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	assert.ErrorIs(t, svc.UpdateItemPrice(context.Background(), 10, 7, d("2.505")), ErrValidation)
	assert.ErrorIs(t, svc.UpdateItemPrice(context.Background(), 10, 7, d("10000000000")), ErrValidation)
}

func TestUpdateName_TooLong(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	err := svc.UpdateName(context.Background(), 7, strings.Repeat("a", 101))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
}

func TestValidateLimits_AcceptBoundaries(t *testing.T) {
	v := &ValidationError{}
	name := checkName(v, "name", "name", " "+strings.Repeat("ñ", maxNameLength)+" ")
	validateQuantity(v, "quantity", d("999999999.999"))
	validateQuantity(v, "quantity", d("1.500"))
	validatePrice(v, "price", d("9999999999.99"))
	validatePrice(v, "price", d("2.50"))
	validateItemCount(v, maxItems)

	assert.NoError(t, v.ErrorOrNil())
	assert.Equal(t, maxNameLength, len([]rune(name)))
}

func TestCreateList_DoesNotModifyCallerItems(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(createListSQL).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "is_completed"}).AddRow(int64(1), time.Now(), false))
	mock.ExpectExec(insertItemsSQL).
		WithArgs(int64(1), "Milk", "2", "1.2", "Bread", "1", "2.5").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	items := groceries()
	_, err := svc.CreateList(context.Background(), 7, "Groceries", items)
	require.NoError(t, err)
	assert.Equal(t, " Milk ", items[0].Name)
}

func TestAddItems_DoesNotModifyCallerItems(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(listColumns).AddRow(int64(1), int64(7), "Groceries", time.Now(), false, nil))
	mock.ExpectExec(insertItemsSQL).
		WithArgs(int64(1), "Milk", "2", "1.2", "Bread", "1", "2.5").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	items := groceries()
	_, err := svc.AddItems(context.Background(), 1, 7, items)
	require.NoError(t, err)
	assert.Equal(t, " Milk ", items[0].Name)
}
