package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date form invoices are stored and displayed with.
const DateLayout = "2006-01-02"

var (
	ErrInvoiceNotFound  = errors.New("invoice not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

func (s InvoiceStatus) Valid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// Invoice amounts are integer minor units (cents).
type Invoice struct {
	ID         string        `json:"id"`
	CustomerID string        `json:"customer_id"`
	Amount     int64         `json:"amount"`
	Status     InvoiceStatus `json:"status"`
	Date       string        `json:"date"`
}

// AmountDecimal returns the amount in major units, e.g. 1500 -> 15.00.
func (i Invoice) AmountDecimal() decimal.Decimal {
	return decimal.New(i.Amount, -2)
}

// InvoiceListItem is an invoice joined with the display fields of its customer.
type InvoiceListItem struct {
	Invoice
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"image_url"`
}

type InvoicePage struct {
	Query      string            `json:"query"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	Invoices   []InvoiceListItem `json:"invoices"`
}

// ToMinorUnits converts a major-unit amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
