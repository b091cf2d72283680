// internal/services/errors.go
package services

import (
	"errors"

	"github.com/google/uuid"

	"github.com/javajoker/marketplace-backend/internal/i18n"
	"github.com/javajoker/marketplace-backend/internal/models"
	"github.com/javajoker/marketplace-backend/internal/utils"
)

type ErrorKind string

const (
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindForbidden         ErrorKind = "FORBIDDEN"
	KindInvalidInput      ErrorKind = "INVALID_INPUT"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindUnauthenticated   ErrorKind = "UNAUTHENTICATED"
)

// Error is a domain failure. Key and Args select a localized message;
// Details carries the identifying context (ids, stock, status).
type Error struct {
	Kind    ErrorKind
	Key     string
	Args    []interface{}
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return e.Localize(i18n.DefaultLanguage)
}

func (e *Error) Localize(lang string) string {
	return i18n.T(lang, e.Key, e.Args...)
}

// Is matches sentinel errors by kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Key == "" && t.Kind == e.Kind
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated}
)

// KindOf returns the kind of a domain error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newNotFound(key string, id uuid.UUID) *Error {
	return &Error{
		Kind:    KindNotFound,
		Key:     key,
		Args:    []interface{}{id.String()},
		Details: map[string]interface{}{"id": id.String()},
	}
}

func newForbidden(key string) *Error {
	return &Error{Kind: KindForbidden, Key: key}
}

func newInvalidInput(key string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Key: key, Args: args}
}

func newValidationError(err error) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Key:     i18n.KeyValidationFailed,
		Details: map[string]interface{}{"fields": utils.GetValidationErrors(err)},
	}
}

func newInsufficientStock(product *models.Product, requested int) *Error {
	return &Error{
		Kind: KindInsufficientStock,
		Key:  i18n.KeyStockInsufficient,
		Args: []interface{}{product.Name, product.Stock, requested},
		Details: map[string]interface{}{
			"product_id":   product.ID.String(),
			"product_name": product.Name,
			"available":    product.Stock,
			"requested":    requested,
		},
	}
}

func newInvalidTransition(from, to models.OrderStatus) *Error {
	return &Error{
		Kind: KindInvalidTransition,
		Key:  i18n.KeyOrderInvalidTransition,
		Args: []interface{}{string(from), string(to)},
		Details: map[string]interface{}{
			"current_status":   string(from),
			"requested_status": string(to),
		},
	}
}

func newUnauthenticated(key string) *Error {
	return &Error{Kind: KindUnauthenticated, Key: key}
}
