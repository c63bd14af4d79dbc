// Package validation holds the input predicates applied before anything is
// persisted. Every predicate is pure and reports a bool; ValidateOrder turns
// the order predicates into a field-level error.
package validation

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/findosh/ordertrack/internal/models"
)

// Credential length minimums, counted in characters.
const (
	MinUsernameLength = 3
	MinPasswordLength = 6
)

// MaxTotalScale is the most decimal places an order total may carry.
const MaxTotalScale = 9

const maxTotalDigits = 15

// maxTotal is the exclusive upper bound of an order total.
var maxTotal = decimal.New(1, maxTotalDigits)

var phonePattern = regexp.MustCompile(`^[0-9+]{10,15}$`)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "positive_amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		// Bound the exponent before comparing; rescaling 1e50000000 would
		// expand it digit by digit.
		if exp := d.Exponent(); exp < -MaxTotalScale || exp >= maxTotalDigits {
			return false
		}
		return d.IsPositive() && d.LessThan(maxTotal)
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func check(s, tag string) bool {
	return validate.Var(s, tag) == nil
}

// IsValidUsername reports whether s is non-empty and at least 3 characters long.
func IsValidUsername(s string) bool {
	return check(s, fmt.Sprintf("required,min=%d", MinUsernameLength))
}

// IsValidPassword reports whether s is non-empty and at least 6 characters long.
func IsValidPassword(s string) bool {
	return check(s, fmt.Sprintf("required,min=%d", MinPasswordLength))
}

// PasswordsMatch reports whether a and b are exactly equal.
func PasswordsMatch(a, b string) bool {
	return a == b
}

// IsValidOrderNumber reports whether s is non-empty.
func IsValidOrderNumber(s string) bool { return check(s, "required") }

// IsValidCustomerName reports whether s is non-empty.
func IsValidCustomerName(s string) bool { return check(s, "required") }

// IsValidAddress reports whether s is non-empty.
func IsValidAddress(s string) bool { return check(s, "required") }

// IsValidPhoneNumber accepts 10 to 15 characters, each a digit or '+'.
func IsValidPhoneNumber(s string) bool {
	return check(s, "phone")
}

// IsValidOrderTotal reports whether s parses as a decimal strictly greater than
// zero and below 10^15, with at most MaxTotalScale decimal places.
func IsValidOrderTotal(s string) bool {
	return check(s, "positive_amount")
}

// Order fields, in the order ValidateOrder checks them.
const (
	FieldOrderNumber = "orderNumber"
	FieldBuyerName   = "buyerName"
	FieldAddress     = "address"
	FieldPhone       = "phone"
	FieldTotal       = "total"
)

// ValidationError identifies the first input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

var orderRules = []struct {
	field   string
	message string
	value   func(models.OrderInput) string
	valid   func(string) bool
}{
	{FieldOrderNumber, "Order Number cannot be empty.", func(in models.OrderInput) string { return in.OrderNumber }, IsValidOrderNumber},
	{FieldBuyerName, "Customer Name cannot be empty.", func(in models.OrderInput) string { return in.BuyerName }, IsValidCustomerName},
	{FieldAddress, "Customer Address cannot be empty.", func(in models.OrderInput) string { return in.Address }, IsValidAddress},
	{FieldPhone, "Customer Phone must be 10 to 15 digits, optionally with a leading +.", func(in models.OrderInput) string { return in.Phone }, IsValidPhoneNumber},
	{FieldTotal, "Order Total must be a positive number.", func(in models.OrderInput) string { return in.Total }, IsValidOrderTotal},
}

// ValidateOrder returns a *ValidationError for the first failing field of in,
// checking orderNumber, buyerName, address, phone and total in that order.
func ValidateOrder(in models.OrderInput) error {
	for _, r := range orderRules {
		if !r.valid(r.value(in)) {
			return &ValidationError{Field: r.field, Message: r.message}
		}
	}
	return nil
}
