package port

import (
	"context"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

type ViewCache interface {
	// Generation returns the current version of the views under path. Pages
	// cached under an older generation are never read again
	Generation(ctx context.Context, path string) (int64, error)

	// GetInvoicePage returns a cached list page, false on a miss
	GetInvoicePage(ctx context.Context, key string) (*domain.InvoicePage, bool, error)

	// SetInvoicePage stores a rendered list page under key
	SetInvoicePage(ctx context.Context, key string, page domain.InvoicePage) error

	// Invalidate bumps the generation of path and drops every cached view
	// whose key starts with path
	Invalidate(ctx context.Context, path string) error
}
