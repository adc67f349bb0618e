package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/Kerhoff/shoplist/internal/models"
)

// Limits mirror the column types of the schema so that oversized input is
// rejected before a transaction is opened.
const (
	minPasswordLength = 6
	maxPasswordBytes  = 72 // bcrypt input limit
	maxNameLength     = 100
	maxEmailLength    = 100
	maxItems          = 500

	quantityPlaces = 3
	pricePlaces    = 2
)

var (
	// NUMERIC(12,3)
	maxQuantity = decimal.New(1, 9)
	// NUMERIC(12,2)
	maxPrice = decimal.New(1, 10)
)

func validateItemCount(v *ValidationError, n int) bool {
	switch {
	case n == 0:
		v.Add("items", "at least one item is required")
		return false
	case n > maxItems:
		v.Add("items", fmt.Sprintf("at most %d items are allowed", maxItems))
		return false
	}
	return true
}

func validateNewItems(v *ValidationError, items []models.NewItem) {
	if !validateItemCount(v, len(items)) {
		return
	}
	for i, item := range items {
		checkName(v, fmt.Sprintf("items[%d].name", i), "name", item.Name)
		validateQuantity(v, fmt.Sprintf("items[%d].quantity", i), item.Quantity)
		validatePrice(v, fmt.Sprintf("items[%d].price", i), item.Price)
	}
}

func validatePurchaseItems(v *ValidationError, items []models.PurchaseItem) {
	if !validateItemCount(v, len(items)) {
		return
	}
	seen := make(map[int64]struct{}, len(items))
	for i, item := range items {
		if item.ID <= 0 {
			v.Add(fmt.Sprintf("items[%d].id", i), "id must be a positive integer")
		} else if _, dup := seen[item.ID]; dup {
			v.Add(fmt.Sprintf("items[%d].id", i), "duplicate item id")
		}
		seen[item.ID] = struct{}{}
		validatePrice(v, fmt.Sprintf("items[%d].price", i), item.Price)
	}
}

func validateQuantity(v *ValidationError, field string, q decimal.Decimal) {
	switch {
	case !q.IsPositive():
		v.Add(field, "quantity must be a positive number")
	case q.GreaterThanOrEqual(maxQuantity):
		v.Add(field, fmt.Sprintf("quantity must be less than %s", maxQuantity))
	case !q.Equal(q.Truncate(quantityPlaces)):
		v.Add(field, fmt.Sprintf("quantity must have at most %d decimal places", quantityPlaces))
	}
}

func validatePrice(v *ValidationError, field string, p decimal.Decimal) {
	switch {
	case p.IsNegative():
		v.Add(field, "price must not be negative")
	case p.GreaterThanOrEqual(maxPrice):
		v.Add(field, fmt.Sprintf("price must be less than %s", maxPrice))
	case !p.Equal(p.Truncate(pricePlaces)):
		v.Add(field, fmt.Sprintf("price must have at most %d decimal places", pricePlaces))
	}
}

// validatePassword enforces the password policy: a minimum length plus at
// least one lowercase letter, uppercase letter, digit and special character.
func validatePassword(v *ValidationError, password string) {
	if len([]rune(password)) < minPasswordLength {
		v.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
		return
	}
	if len(password) > maxPasswordBytes {
		v.Add("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
		return
	}

	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}

	switch {
	case !lower:
		v.Add("password", "password must contain a lowercase letter")
	case !upper:
		v.Add("password", "password must contain an uppercase letter")
	case !digit:
		v.Add("password", "password must contain a digit")
	case !special:
		v.Add("password", "password must contain a special character")
	}
}

// trimmedRequired trims value and checks it as a name stored in field.
func trimmedRequired(v *ValidationError, field, value string) string {
	return checkName(v, field, field, value)
}

func checkName(v *ValidationError, field, label, value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		v.Add(field, label+" is required")
	case utf8.RuneCountInString(value) > maxNameLength:
		v.Add(field, fmt.Sprintf("%s must be at most %d characters", label, maxNameLength))
	}
	return value
}

// trimItems returns a copy of items with trimmed names.
func trimItems(items []models.NewItem) []models.NewItem {
	out := make([]models.NewItem, len(items))
	for i, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		out[i] = item
	}
	return out
}
