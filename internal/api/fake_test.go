package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/auth"
	"github.com/Kerhoff/shoplist/internal/models"
)

const (
	validToken   = "valid"
	expiredToken = "expired"
	callerID     = int64(7)
)

var errNotStubbed = errors.New("not stubbed")

// fakeServices implements Services with overridable functions.
type fakeServices struct {
	register         func(name, email, password string) (*models.User, error)
	login            func(email, password string) (*models.Session, error)
	getSettings      func(userID int64) (*models.Profile, error)
	updateName       func(userID int64, name string) error
	updateSettings   func(userID int64, language, currency string) error
	deleteAccount    func(userID int64, password string) error
	createList       func(userID int64, name string, items []models.NewItem) (int64, error)
	getOverview      func(userID int64) (*models.Overview, error)
	getShoppingList  func(listID, userID int64) (*models.List, error)
	getListDetail    func(listID, userID int64) (*models.ListDetail, error)
	deleteList       func(listID, userID int64) error
	completePurchase func(listID, userID int64, items []models.PurchaseItem) error
	addItems         func(listID, userID int64, items []models.NewItem) (int, error)
	updateItemPrice  func(itemID, userID int64, price decimal.Decimal) error
	previewPurchase  func(listID, userID int64, items []models.PurchaseItem) (decimal.Decimal, error)
	dbTime           func() (time.Time, error)
}

func (f *fakeServices) Authenticate(token string) (int64, error) {
	switch token {
	case validToken:
		return callerID, nil
	case expiredToken:
		return 0, auth.ErrTokenExpired
	default:
		return 0, auth.ErrInvalidToken
	}
}

func (f *fakeServices) DBTime(context.Context) (time.Time, error) {
	if f.dbTime == nil {
		return time.Time{}, errNotStubbed
	}
	return f.dbTime()
}

func (f *fakeServices) Register(_ context.Context, name, email, password string) (*models.User, error) {
	if f.register == nil {
		return nil, errNotStubbed
	}
	return f.register(name, email, password)
}

func (f *fakeServices) Login(_ context.Context, email, password string) (*models.Session, error) {
	if f.login == nil {
		return nil, errNotStubbed
	}
	return f.login(email, password)
}

func (f *fakeServices) GetSettings(_ context.Context, userID int64) (*models.Profile, error) {
	if f.getSettings == nil {
		return nil, errNotStubbed
	}
	return f.getSettings(userID)
}

func (f *fakeServices) UpdateName(_ context.Context, userID int64, name string) error {
	if f.updateName == nil {
		return errNotStubbed
	}
	return f.updateName(userID, name)
}

func (f *fakeServices) UpdateSettings(_ context.Context, userID int64, language, currency string) error {
	if f.updateSettings == nil {
		return errNotStubbed
	}
	return f.updateSettings(userID, language, currency)
}

func (f *fakeServices) DeleteAccount(_ context.Context, userID int64, password string) error {
	if f.deleteAccount == nil {
		return errNotStubbed
	}
	return f.deleteAccount(userID, password)
}

func (f *fakeServices) CreateList(_ context.Context, userID int64, name string, items []models.NewItem) (int64, error) {
	if f.createList == nil {
		return 0, errNotStubbed
	}
	return f.createList(userID, name, items)
}

func (f *fakeServices) GetOverview(_ context.Context, userID int64) (*models.Overview, error) {
	if f.getOverview == nil {
		return nil, errNotStubbed
	}
	return f.getOverview(userID)
}

func (f *fakeServices) GetShoppingList(_ context.Context, listID, userID int64) (*models.List, error) {
	if f.getShoppingList == nil {
		return nil, errNotStubbed
	}
	return f.getShoppingList(listID, userID)
}

func (f *fakeServices) GetListDetail(_ context.Context, listID, userID int64) (*models.ListDetail, error) {
	if f.getListDetail == nil {
		return nil, errNotStubbed
	}
	return f.getListDetail(listID, userID)
}

func (f *fakeServices) DeleteList(_ context.Context, listID, userID int64) error {
	if f.deleteList == nil {
		return errNotStubbed
	}
	return f.deleteList(listID, userID)
}

func (f *fakeServices) CompletePurchase(_ context.Context, listID, userID int64, items []models.PurchaseItem) error {
	if f.completePurchase == nil {
		return errNotStubbed
	}
	return f.completePurchase(listID, userID, items)
}

func (f *fakeServices) AddItems(_ context.Context, listID, userID int64, items []models.NewItem) (int, error) {
	if f.addItems == nil {
		return 0, errNotStubbed
	}
	return f.addItems(listID, userID, items)
}

func (f *fakeServices) UpdateItemPrice(_ context.Context, itemID, userID int64, price decimal.Decimal) error {
	if f.updateItemPrice == nil {
		return errNotStubbed
	}
	return f.updateItemPrice(itemID, userID, price)
}

func (f *fakeServices) PreviewPurchase(_ context.Context, listID, userID int64, items []models.PurchaseItem) (decimal.Decimal, error) {
	if f.previewPurchase == nil {
		return decimal.Zero, errNotStubbed
	}
	return f.previewPurchase(listID, userID, items)
}

func newTestServer(t *testing.T, svc *fakeServices) http.Handler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewServer(svc, logger, nil).Handler()
}

// do sends a request with an optional JSON body and bearer token.
func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
