package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice = errors.New("invalid price")
	ErrBelowMinimum = errors.New("price below minimum")
	ErrAboveMaximum = errors.New("price above maximum")
)

// ErrorCode selects the message template of a PriceError.
type ErrorCode string

const (
	CodeInvalid      ErrorCode = "invalid"
	CodeBelowMinimum ErrorCode = "minimum"
	CodeAboveMaximum ErrorCode = "maximum"
)

// PriceError is a rejected price submission. It unwraps to one of
// ErrInvalidPrice, ErrBelowMinimum or ErrAboveMaximum.
type PriceError struct {
	Code         ErrorCode
	ProductTitle string
	// Bound is the violated minimum or maximum, unset for CodeInvalid.
	Bound decimal.NullDecimal
	// Period is set when Bound is a per-period amount.
	Period  Period
	Message string
}

func (e *PriceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Unwrap().Error()
}

func (e *PriceError) Unwrap() error {
	switch e.Code {
	case CodeBelowMinimum:
		return ErrBelowMinimum
	case CodeAboveMaximum:
		return ErrAboveMaximum
	default:
		return ErrInvalidPrice
	}
}

// Messages holds the user-facing templates keyed by error code.
type Messages map[ErrorCode]string

const (
	tagTitle   = "%%TITLE%%"
	tagMinimum = "%%MINIMUM%%"
	tagMaximum = "%%MAXIMUM%%"
)

func DefaultMessages() Messages {
	return Messages{
		CodeInvalid:      `"%%TITLE%%" could not be added to the cart: Please enter a valid, positive number.`,
		CodeBelowMinimum: `"%%TITLE%%" could not be added to the cart: Please enter at least %%MINIMUM%%.`,
		CodeAboveMaximum: `"%%TITLE%%" could not be added to the cart: Please enter at most %%MAXIMUM%%.`,
	}
}

// Render substitutes tags into the template for code. Unknown codes render
// as an empty string.
func (m Messages) Render(code ErrorCode, tags map[string]string) string {
	message, ok := m[code]
	if !ok {
		message = DefaultMessages()[code]
	}
	for tag, value := range tags {
		message = strings.ReplaceAll(message, tag, value)
	}
	return message
}
