package port

import (
	"context"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

type InvoiceRepository interface {
	// CreateInvoice inserts a new row and returns the id the store assigned to it
	CreateInvoice(ctx context.Context, invoice domain.Invoice) (string, error)

	// UpdateInvoice sets customer, amount and status; id and date are left untouched
	UpdateInvoice(ctx context.Context, invoice domain.Invoice) error

	// DeleteInvoice removes the row; a missing id is not an error
	DeleteInvoice(ctx context.Context, id string) error

	// GetInvoice returns nil, nil when no row matches
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)

	// SearchInvoices returns one page of invoices matching query, newest first
	SearchInvoices(ctx context.Context, query string, limit, offset int) ([]domain.InvoiceListItem, error)

	// CountInvoices counts the invoices matching query
	CountInvoices(ctx context.Context, query string) (int, error)
}

type CustomerRepository interface {
	// ListCustomers returns every customer ordered by name
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
}

type UserRepository interface {
	// GetUserByEmail returns nil, nil when no user has that email
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
