package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNotFound is returned when a list, item or user does not exist or is
	// not owned by the caller. The two cases are deliberately not told apart.
	ErrNotFound = errors.New("not found")

	// ErrValidation is the sentinel every *ValidationError unwraps to.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownItems is returned when a purchase names items that are not
	// part of the list.
	ErrUnknownItems = errors.New("one or more items do not belong to the list")

	// ErrListCompleted is returned when a completed list is modified.
	ErrListCompleted = errors.New("list is already completed")

	// ErrEmailTaken is returned on registration with an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError collects per-field input errors.
type ValidationError struct {
	Fields map[string]string
	errs   *multierror.Error
}

// Add records msg for field. Only the first message per field is kept in
// Fields; all of them appear in Error().
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string]string)
	}
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = msg
	}
	v.errs = multierror.Append(v.errs, fmt.Errorf("%s: %s", field, msg))
	v.errs.ErrorFormat = listFormat
}

func (v *ValidationError) Error() string {
	if v.errs == nil {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + v.errs.Error()
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// ErrorOrNil returns nil when no field error was added.
func (v *ValidationError) ErrorOrNil() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func listFormat(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
