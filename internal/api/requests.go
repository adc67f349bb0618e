package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Kerhoff/shoplist/internal/models"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type updateNameRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type updateSettingsRequest struct {
	Language string `json:"language" validate:"required,max=8"`
	Currency string `json:"currency" validate:"required,max=8"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required,max=72"`
}

// ---------------------------------------------------------------------------
// Lists
// ---------------------------------------------------------------------------

type createListRequest struct {
	Name  string           `json:"name" validate:"required,max=100"`
	Items []newItemRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

// Quantities are NUMERIC(12,3) and prices NUMERIC(12,2); the decimal places
// are checked by the service.
type newItemRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0,lt=1000000000"`
	Price    lenientPrice    `json:"price" validate:"gte=0,lt=10000000000"`
}

type addItemsRequest struct {
	Items []addItemRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

type addItemRequest struct {
	Name     string           `json:"name" validate:"required,max=100"`
	Quantity decimal.Decimal  `json:"quantity" validate:"gt=0,lt=1000000000"`
	Price    *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lt=10000000000"`
}

type purchaseRequest struct {
	Items []purchaseItemRequest `json:"items" validate:"required,min=1,max=500,dive"`
}

type previewRequest struct {
	Items []purchaseItemRequest `json:"items" validate:"max=500,dive"`
}

type purchaseItemRequest struct {
	ID    int64            `json:"id" validate:"required,gt=0"`
	Price *decimal.Decimal `json:"price" validate:"required,gte=0,lt=10000000000"`
}

type updatePriceRequest struct {
	Price *decimal.Decimal `json:"price" validate:"required,gte=0,lt=10000000000"`
}

func (r createListRequest) toItems() []models.NewItem {
	items := make([]models.NewItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, models.NewItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price.Decimal})
	}
	return items
}

func (r addItemsRequest) toItems() []models.NewItem {
	items := make([]models.NewItem, 0, len(r.Items))
	for _, it := range r.Items {
		price := decimal.Zero
		if it.Price != nil {
			price = *it.Price
		}
		items = append(items, models.NewItem{Name: it.Name, Quantity: it.Quantity, Price: price})
	}
	return items
}

func toPurchaseItems(reqs []purchaseItemRequest) []models.PurchaseItem {
	items := make([]models.PurchaseItem, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, models.PurchaseItem{ID: it.ID, Price: *it.Price})
	}
	return items
}

// lenientPrice accepts any JSON value. Numbers are taken as the price and
// anything else, including a missing field, counts as zero.
type lenientPrice struct {
	decimal.Decimal
}

func (p *lenientPrice) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	p.Decimal = decimal.Zero
	if num, ok := v.(json.Number); ok {
		if d, err := decimal.NewFromString(num.String()); err == nil {
			p.Decimal = d
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Numeric tags on decimals compare against their float value.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := d.Float64()
			return f
		case lenientPrice:
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, lenientPrice{})

	return v
}

// fieldErrors turns validator errors into a field → message map keyed by the
// JSON path of the field, e.g. "items[0].price".
func fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		if _, exists := out[key]; !exists {
			out[key] = fieldMessage(fe)
		}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s entries", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
