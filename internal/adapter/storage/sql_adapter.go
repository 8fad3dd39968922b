package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

type SQLAdapter struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLAdapter(db *sql.DB, dialect Dialect) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: dialect}
}

func (s *SQLAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLAdapter) CreateInvoice(ctx context.Context, invoice domain.Invoice) (string, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		INSERT INTO invoices (id, customer_id, amount, status, date)
		VALUES (?, ?, ?, ?, ?)`),
		id, invoice.CustomerID, invoice.Amount, string(invoice.Status), invoice.Date,
	)
	if err != nil {
		return "", fmt.Errorf("insert invoice: %w", wrapConstraint(err))
	}

	return id, nil
}

func (s *SQLAdapter) UpdateInvoice(ctx context.Context, invoice domain.Invoice) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
		UPDATE invoices
		SET customer_id = ?, amount = ?, status = ?
		WHERE id = ?`),
		invoice.CustomerID, invoice.Amount, string(invoice.Status), invoice.ID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", wrapConstraint(err))
	}

	return nil
}

func (s *SQLAdapter) DeleteInvoice(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`DELETE FROM invoices WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	return nil
}

func (s *SQLAdapter) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	var (
		inv    domain.Invoice
		status string
		date   calendarDate
	)
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT id, customer_id, amount, status, date
		FROM invoices WHERE id = ?`), id,
	).Scan(&inv.ID, &inv.CustomerID, &inv.Amount, &status, &date)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query invoice: %w", err)
	}

	inv.Status = domain.InvoiceStatus(status)
	inv.Date = string(date)
	return &inv, nil
}

func (s *SQLAdapter) SearchInvoices(ctx context.Context, query string, limit, offset int) ([]domain.InvoiceListItem, error) {
	pattern := likePattern(query)

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT i.id, i.customer_id, i.amount, i.status, i.date, c.name, c.email, c.image_url
		FROM invoices i
		JOIN customers c ON i.customer_id = c.id
		WHERE `+s.searchPredicate()+`
		ORDER BY i.date DESC, i.id
		LIMIT ? OFFSET ?`),
		pattern, pattern, pattern, pattern, pattern, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("search invoices: %w", err)
	}
	defer rows.Close()

	var items []domain.InvoiceListItem
	for rows.Next() {
		var (
			item   domain.InvoiceListItem
			status string
			date   calendarDate
		)
		if err := rows.Scan(&item.ID, &item.CustomerID, &item.Amount, &status, &date,
			&item.Name, &item.Email, &item.ImageURL); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		item.Status = domain.InvoiceStatus(status)
		item.Date = string(date)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}

	return items, nil
}

func (s *SQLAdapter) CountInvoices(ctx context.Context, query string) (int, error) {
	pattern := likePattern(query)

	var count int
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT COUNT(*)
		FROM invoices i
		JOIN customers c ON i.customer_id = c.id
		WHERE `+s.searchPredicate()),
		pattern, pattern, pattern, pattern, pattern,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}

	return count, nil
}

func (s *SQLAdapter) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, image_url
		FROM customers
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	return customers, nil
}

func (s *SQLAdapter) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
		SELECT id, name, email, password
		FROM users WHERE email = ?`), email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Password)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &u, nil
}

// searchPredicate matches the pattern against customer name and email and the
// invoice amount, date and status. It takes five placeholders.
func (s *SQLAdapter) searchPredicate() string {
	text := "CHAR"
	if s.dialect == DialectPostgres {
		text = "TEXT"
	}
	return `(LOWER(c.name) LIKE LOWER(?) ESCAPE '` + likeEscape + `'
		OR LOWER(c.email) LIKE LOWER(?) ESCAPE '` + likeEscape + `'
		OR CAST(i.amount AS ` + text + `) LIKE ? ESCAPE '` + likeEscape + `'
		OR CAST(i.date AS ` + text + `) LIKE ? ESCAPE '` + likeEscape + `'
		OR LOWER(i.status) LIKE LOWER(?) ESCAPE '` + likeEscape + `')`
}

// likeEscape must read the same in MySQL and Postgres string literals.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
)

// likePattern matches query as a literal substring.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

func wrapConstraint(err error) error {
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %w", domain.ErrCustomerNotFound, err)
	}
	return err
}

// calendarDate scans a DATE column into its YYYY-MM-DD form. Drivers hand
// back time.Time (pgx, mysql with parseTime=true) or the raw text (mysql
// without it).
type calendarDate string

func (d *calendarDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = calendarDate(v.Format(domain.DateLayout))
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	}
	return fmt.Errorf("scan date: unsupported value %T", src)
}

func (d *calendarDate) parse(raw string) error {
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return fmt.Errorf("scan date: %w", err)
	}
	*d = calendarDate(t.Format(domain.DateLayout))
	return nil
}
