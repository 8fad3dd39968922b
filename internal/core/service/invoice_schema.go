package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

const (
	FieldCustomerID = "customerId"
	FieldAmount     = "amount"
	FieldStatus     = "status"
)

const (
	msgSelectCustomer = "Please select a customer."
	msgAmountPositive = "Please enter an amount greater than $0."
	msgSelectStatus   = "Please select an invoice status."
)

// Raw amounts outside these bounds are rejected before any arithmetic; the
// decimal exponent decides how large the intermediate big integers get.
const (
	maxAmountLength   = 32
	minAmountExponent = -20
	maxAmountExponent = 18
)

var fieldMessages = map[string]string{
	FieldCustomerID: msgSelectCustomer,
	FieldAmount:     msgAmountPositive,
	FieldStatus:     msgSelectStatus,
}

// FormData is a submitted form: field name to first submitted value.
// A missing key means the field was not submitted at all.
type FormData map[string]string

// FieldErrors maps a form field to its validation messages. A field without a
// key passed validation.
type FieldErrors map[string][]string

// InvoiceInput is the typed data of a form that passed validation.
type InvoiceInput struct {
	CustomerID string
	Amount     decimal.Decimal
	Status     domain.InvoiceStatus
}

// ValidationResult holds either Data or FieldErrors, never both.
type ValidationResult struct {
	Data        *InvoiceInput
	FieldErrors FieldErrors
}

func (r ValidationResult) Valid() bool {
	return r.Data != nil
}

// invoiceForm is the coerced form that the validator rules run against.
// Amount is in minor units and stays 0 when the raw value is not a number.
type invoiceForm struct {
	CustomerID string `form:"customerId" validate:"required"`
	Amount     int64  `form:"amount" validate:"gt=0"`
	Status     string `form:"status" validate:"oneof=pending paid"`
}

// Schema validates invoice forms for both create and update. id and date are
// never read from the form.
type Schema struct {
	validate *validator.Validate
}

func NewInvoiceSchema() *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return &Schema{validate: v}
}

// Validate coerces and checks every field, collecting all failures together.
func (s *Schema) Validate(form FormData) ValidationResult {
	amount, amountOK := parseAmount(form[FieldAmount])

	coerced := invoiceForm{
		CustomerID: strings.TrimSpace(form[FieldCustomerID]),
		Status:     form[FieldStatus],
	}
	if amountOK {
		coerced.Amount = domain.ToMinorUnits(amount)
	}

	err := s.validate.Struct(coerced)
	if err == nil {
		return ValidationResult{Data: &InvoiceInput{
			CustomerID: coerced.CustomerID,
			Amount:     amount,
			Status:     domain.InvoiceStatus(coerced.Status),
		}}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// Only reachable with a malformed rule set.
		panic(err)
	}

	fieldErrors := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		fieldErrors[field] = append(fieldErrors[field], fieldMessages[field])
	}
	return ValidationResult{FieldErrors: fieldErrors}
}

// parseAmount coerces the raw amount. Values that do not parse, are too long,
// carry an out-of-range exponent or whose cent value would not fit an int64
// are reported as not ok.
func parseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxAmountLength {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, false
	}
	if !d.Shift(2).Round(0).BigInt().IsInt64() {
		return decimal.Zero, false
	}
	return d, true
}
