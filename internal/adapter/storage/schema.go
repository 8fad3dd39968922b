package storage

import (
	"context"
	"fmt"

	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		image_url VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id VARCHAR(36) PRIMARY KEY,
		customer_id VARCHAR(36) NOT NULL,
		amount BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		date DATE NOT NULL,
		INDEX idx_invoices_date (date),
		CONSTRAINT fk_invoices_customer FOREIGN KEY (customer_id) REFERENCES customers (id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		image_url VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id VARCHAR(36) PRIMARY KEY,
		customer_id VARCHAR(36) NOT NULL REFERENCES customers (id),
		amount BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL,
		date DATE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_date ON invoices (date)`,
}

// Schema returns the DDL statements for the dialect, in dependency order.
func Schema(d Dialect) []string {
	if d == DialectPostgres {
		return postgresSchema
	}
	return mysqlSchema
}

// ApplySchema creates any missing tables. It is safe to run repeatedly.
func (s *SQLAdapter) ApplySchema(ctx context.Context) error {
	for _, stmt := range Schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// SeedData is a fixed data set for demo and test databases. Invoices must carry
// their own ids so that seeding can be repeated.
type SeedData struct {
	Users     []domain.User
	Customers []domain.Customer
	Invoices  []domain.Invoice
}

// Seed inserts the rows of data, skipping rows whose id already exists.
func (s *SQLAdapter) Seed(ctx context.Context, data SeedData) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, u := range data.Users {
		_, err := tx.ExecContext(ctx, s.insertIgnore("users", "id, name, email, password", 4),
			u.ID, u.Name, u.Email, u.Password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	for _, c := range data.Customers {
		_, err := tx.ExecContext(ctx, s.insertIgnore("customers", "id, name, email, image_url", 4),
			c.ID, c.Name, c.Email, c.ImageURL)
		if err != nil {
			return fmt.Errorf("seed customer %s: %w", c.ID, err)
		}
	}
	for _, inv := range data.Invoices {
		_, err := tx.ExecContext(ctx, s.insertIgnore("invoices", "id, customer_id, amount, status, date", 5),
			inv.ID, inv.CustomerID, inv.Amount, string(inv.Status), inv.Date)
		if err != nil {
			return fmt.Errorf("seed invoice %s: %w", inv.ID, wrapConstraint(err))
		}
	}

	return tx.Commit()
}

func (s *SQLAdapter) insertIgnore(table, columns string, n int) string {
	placeholders := "?"
	for i := 1; i < n; i++ {
		placeholders += ", ?"
	}
	if s.dialect == DialectPostgres {
		return s.dialect.rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING",
			table, columns, placeholders))
	}
	return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)", table, columns, placeholders)
}
