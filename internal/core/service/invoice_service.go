package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
	"github.com/rl1809/invoice-dashboard/internal/port"
)

// InvoicesPath is the invoice list view; successful mutations invalidate it and
// navigate back to it.
const InvoicesPath = "/dashboard/invoices"

const (
	invoicesPerPage = 6
	// maxListPage keeps the store offset well inside int range
	maxListPage = 1 << 20
)

const (
	msgCreateMissingFields = "Missing Fields. Failed to create invoice."
	msgUpdateMissingFields = "Missing Fields. Failed to Update Invoice."
	msgCreateDatabaseError = "Database Error: Failed to Create Invoice."
	msgUpdateDatabaseError = "Database Error: Failed to Update Invoice."
	msgDeleteDatabaseError = "Database Error: Failed to Delete Invoice."
)

// InvoiceDeletedMessage is the State message of a successful delete.
const InvoiceDeletedMessage = "Deleted Invoice."

// State is what a form is re-rendered with after a submission that did not
// navigate away.
type State struct {
	Errors  FieldErrors `json:"errors,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Result is either a navigation to RedirectTo or a State to show the caller.
type Result struct {
	State      State
	RedirectTo string
}

func Success(redirectTo string) Result {
	return Result{RedirectTo: redirectTo}
}

func Failure(state State) Result {
	return Result{State: state}
}

func (r Result) Redirected() bool {
	return r.RedirectTo != ""
}

// InvoiceForm is the data the create and edit pages are rendered from.
type InvoiceForm struct {
	Invoice   *domain.Invoice   `json:"invoice,omitempty"`
	Customers []domain.Customer `json:"customers"`
}

type InvoiceService struct {
	invoices  port.InvoiceRepository
	customers port.CustomerRepository
	views     port.ViewCache
	schema    *Schema
	now       func() time.Time
}

type InvoiceServiceOption func(*InvoiceService)

// WithClock replaces time.Now as the source of invoice dates.
func WithClock(now func() time.Time) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.now = now
	}
}

func NewInvoiceService(invoices port.InvoiceRepository, customers port.CustomerRepository, views port.ViewCache, opts ...InvoiceServiceOption) *InvoiceService {
	s := &InvoiceService{
		invoices:  invoices,
		customers: customers,
		views:     views,
		schema:    NewInvoiceSchema(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, _ State, form FormData) Result {
	validated := s.schema.Validate(form)
	if !validated.Valid() {
		return Failure(State{Errors: validated.FieldErrors, Message: msgCreateMissingFields})
	}

	invoice := domain.Invoice{
		CustomerID: validated.Data.CustomerID,
		Amount:     domain.ToMinorUnits(validated.Data.Amount),
		Status:     validated.Data.Status,
		Date:       s.now().UTC().Format(domain.DateLayout),
	}

	id, err := s.invoices.CreateInvoice(ctx, invoice)
	if err != nil {
		logWriteFailure(ctx, "create", invoice, err)
		return Failure(State{Message: msgCreateDatabaseError})
	}
	log.Printf("[invoice][service] created caller=%s invoice_id=%s customer_id=%s amount=%s",
		domain.CallerFromContext(ctx), id, invoice.CustomerID, invoice.AmountDecimal().StringFixed(2))

	s.invalidate(ctx, InvoicesPath)
	return Success(InvoicesPath)
}

// UpdateInvoice rewrites customer, amount and status of invoice id. id comes
// from the route and is trusted; the date is never touched.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id string, _ State, form FormData) Result {
	validated := s.schema.Validate(form)
	if !validated.Valid() {
		return Failure(State{Errors: validated.FieldErrors, Message: msgUpdateMissingFields})
	}

	invoice := domain.Invoice{
		ID:         id,
		CustomerID: validated.Data.CustomerID,
		Amount:     domain.ToMinorUnits(validated.Data.Amount),
		Status:     validated.Data.Status,
	}

	if err := s.invoices.UpdateInvoice(ctx, invoice); err != nil {
		logWriteFailure(ctx, "update", invoice, err)
		return Failure(State{Message: msgUpdateDatabaseError})
	}
	log.Printf("[invoice][service] updated caller=%s invoice_id=%s", domain.CallerFromContext(ctx), id)

	s.invalidate(ctx, InvoicesPath)
	return Success(InvoicesPath)
}

// DeleteInvoice removes invoice id. There is no confirmation step here; the
// caller asks for one if it wants it.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id string) State {
	if err := s.invoices.DeleteInvoice(ctx, id); err != nil {
		logWriteFailure(ctx, "delete", domain.Invoice{ID: id}, err)
		return State{Message: msgDeleteDatabaseError}
	}
	log.Printf("[invoice][service] deleted caller=%s invoice_id=%s", domain.CallerFromContext(ctx), id)

	s.invalidate(ctx, InvoicesPath)
	return State{Message: InvoiceDeletedMessage}
}

// ListInvoices returns one page of the invoice list, served from the view
// cache when possible. Cache failures fall through to the store.
func (s *InvoiceService) ListInvoices(ctx context.Context, query string, page int) (domain.InvoicePage, error) {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	if page > maxListPage {
		page = maxListPage
	}

	// The generation is read before the store so that a mutation landing
	// mid-read moves later readers past whatever this read caches.
	cacheable := true
	gen, err := s.views.Generation(ctx, InvoicesPath)
	if err != nil {
		log.Printf("[invoice][service] view generation read failed path=%s err=%v", InvoicesPath, err)
		cacheable = false
	}
	key := ViewKey(InvoicesPath, gen, query, page)

	if cacheable {
		cached, ok, err := s.views.GetInvoicePage(ctx, key)
		if err != nil {
			log.Printf("[invoice][service] view cache read failed key=%s err=%v", key, err)
		} else if ok {
			return *cached, nil
		}
	}

	var (
		items []domain.InvoiceListItem
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.invoices.SearchInvoices(gctx, query, invoicesPerPage, (page-1)*invoicesPerPage)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.invoices.CountInvoices(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.InvoicePage{}, fmt.Errorf("list invoices: %w", err)
	}

	if items == nil {
		items = []domain.InvoiceListItem{}
	}
	result := domain.InvoicePage{
		Query:      query,
		Page:       page,
		TotalPages: (total + invoicesPerPage - 1) / invoicesPerPage,
		Invoices:   items,
	}

	if cacheable {
		if err := s.views.SetInvoicePage(ctx, key, result); err != nil {
			log.Printf("[invoice][service] view cache write failed key=%s err=%v", key, err)
		}
	}
	return result, nil
}

// EditInvoiceForm loads the invoice and the customer list concurrently.
func (s *InvoiceService) EditInvoiceForm(ctx context.Context, id string) (InvoiceForm, error) {
	var (
		invoice   *domain.Invoice
		customers []domain.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		invoice, err = s.invoices.GetInvoice(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch invoice: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		customers, err = s.customers.ListCustomers(gctx)
		if err != nil {
			return fmt.Errorf("fetch customers: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return InvoiceForm{}, err
	}
	if invoice == nil {
		return InvoiceForm{}, domain.ErrInvoiceNotFound
	}

	return InvoiceForm{Invoice: invoice, Customers: customers}, nil
}

func (s *InvoiceService) CreateInvoiceForm(ctx context.Context) (InvoiceForm, error) {
	customers, err := s.customers.ListCustomers(ctx)
	if err != nil {
		return InvoiceForm{}, fmt.Errorf("fetch customers: %w", err)
	}
	return InvoiceForm{Customers: customers}, nil
}

func (s *InvoiceService) invalidate(ctx context.Context, path string) {
	if err := s.views.Invalidate(ctx, path); err != nil {
		log.Printf("[invoice][service] view invalidation failed path=%s err=%v", path, err)
	}
}

// ViewKey identifies one rendered list page within a view generation, e.g.
// /dashboard/invoices?page=2&query=paid&v=3.
func ViewKey(path string, generation int64, query string, page int) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("query", query)
	v.Set("v", strconv.FormatInt(generation, 10))
	return path + "?" + v.Encode()
}

func logWriteFailure(ctx context.Context, op string, invoice domain.Invoice, err error) {
	caller := domain.CallerFromContext(ctx)
	if errors.Is(err, domain.ErrCustomerNotFound) {
		log.Printf("[invoice][service] %s rejected by store caller=%s invoice_id=%s customer_id=%s: unknown customer",
			op, caller, invoice.ID, invoice.CustomerID)
		return
	}
	log.Printf("[invoice][service] %s failed caller=%s invoice_id=%s err=%v", op, caller, invoice.ID, err)
}
